package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hbray/voxterm/internal/config"
)

var version = "dev"

var (
	configPath string
	agentFlag  string
)

func main() {
	root := &cobra.Command{
		Use:   "voxterm",
		Short: "voxterm — voice-controlled terminal sessions for agent CLIs",
		Long:  "Runs an agent CLI (claude, codex, ollama) inside a pseudo-terminal and merges keyboard input with voice commands from a transcription server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.voxterm/config.yaml)")
	root.PersistentFlags().StringVar(&agentFlag, "agent", "", "Agent CLI to run (overrides config)")

	root.AddCommand(
		runCmd(),
		oneshotCmd(),
		logCmd(),
		doctorCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path, loads it, and applies CLI overrides.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if agentFlag != "" {
		cfg.Agent = agentFlag
	}
	return cfg, path, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the voxterm version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("voxterm", version)
		},
	}
}
