// Package agent locates and runs the child CLI programs a session drives.
package agent

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// wellKnownDirs are install locations checked after PATH, per agent name.
// npm-global and homebrew installs often live outside a login shell's PATH
// when voxterm is launched from a desktop environment.
var wellKnownDirs = map[string][]string{
	"claude": {
		"~/.claude/local",
		"/usr/local/bin",
		"/opt/homebrew/bin",
	},
	"codex": {
		"/usr/local/bin",
		"/opt/homebrew/bin",
	},
	"ollama": {
		"/usr/local/bin",
		"/opt/homebrew/bin",
	},
}

// KnownAgents lists the agent CLIs doctor reports on.
var KnownAgents = []string{"claude", "codex", "ollama"}

// Locate resolves the agent name to an executable path: PATH lookup first,
// then well-known install locations. Symlinks are resolved so the real
// binary path is spawned (e.g. ~/.local/bin/claude -> ~/.claude/bin/claude).
func Locate(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return resolve(path), nil
	}

	home, _ := os.UserHomeDir()
	for _, dir := range wellKnownDirs[name] {
		if home != "" && len(dir) > 1 && dir[:2] == "~/" {
			dir = filepath.Join(home, dir[2:])
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return resolve(candidate), nil
		}
	}

	return "", fmt.Errorf("agent %q not found in PATH or well-known locations", name)
}

func resolve(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
