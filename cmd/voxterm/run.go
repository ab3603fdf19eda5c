package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/hbray/voxterm/internal/agent"
	"github.com/hbray/voxterm/internal/config"
	"github.com/hbray/voxterm/internal/history"
	"github.com/hbray/voxterm/internal/logger"
	"github.com/hbray/voxterm/internal/session"
	"github.com/hbray/voxterm/internal/stt"
	"github.com/hbray/voxterm/internal/term"
	"github.com/hbray/voxterm/internal/voice"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start an interactive voice-controlled session (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context())
		},
	}
}

func runSession(ctx context.Context) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.EnsureDir(); err != nil {
		return err
	}
	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, logPath); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	binPath, err := agent.Locate(cfg.Agent)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	rows, cols := uint16(24), uint16(80)
	if xterm.IsTerminal(fd) {
		if w, h, err := xterm.GetSize(fd); err == nil {
			cols, rows = uint16(w), uint16(h)
		}
	}

	sess := session.New(session.Config{
		Command:      binPath,
		ExitCommand:  cfg.ExitCommand,
		PollInterval: cfg.PollInterval(),
		CharDelay:    cfg.CharDelay(),
		SettleDelay:  cfg.SettleDelay(),
		GracePeriod:  cfg.GracePeriod(),
		Rows:         rows,
		Cols:         cols,
	})

	var hist *history.Store
	if histPath, err := cfg.HistoryPath(); err == nil {
		if h, err := history.Open(histPath); err != nil {
			logger.Warn("run: history unavailable", "error", err)
		} else {
			hist = h
			defer h.Close()
		}
	}

	sttClient := stt.NewClient(cfg.STT.URL)
	disp := voice.NewDispatcher(
		sttClient,
		voice.NewMatcher(cfg.WakePhrases, cfg.Fillers),
		func(command string) { sess.Injector().Enqueue(command) },
		func() { sess.Injector().EnqueueExit() },
	)
	if hist != nil {
		disp.OnEvent(func(heard, command string, action voice.Action) {
			if err := hist.RecordUtterance(sess.ID, heard, command, action.String()); err != nil {
				logger.Warn("run: record utterance", "error", err)
			}
		})
	}

	printBanner(cfg, binPath)

	guard := term.NewGuard(fd)
	if guard.IsTerminal() {
		if err := guard.Acquire(); err != nil {
			return err
		}
		defer guard.Release()
	}

	if err := sess.Start(); err != nil {
		return err
	}
	if hist != nil {
		if err := hist.StartSession(sess.ID, cfg.Agent); err != nil {
			logger.Warn("run: record session", "error", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sttClient.Run(runCtx)
	go disp.Run(runCtx)
	go config.Watch(runCtx, cfgPath, func(c *config.Config) {
		disp.SetMatcher(voice.NewMatcher(c.WakePhrases, c.Fillers))
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			go sess.Stop()
		}
	}()

	winchCh := make(chan os.Signal, 1)
	signal.Notify(winchCh, syscall.SIGWINCH)
	defer signal.Stop(winchCh)
	go func() {
		for range winchCh {
			if w, h, err := xterm.GetSize(fd); err == nil {
				sess.Resize(uint16(h), uint16(w))
			}
		}
	}()

	<-sess.Done()
	res := sess.Stop()
	cancel()

	if hist != nil {
		if err := hist.EndSession(sess.ID, res.Code); err != nil {
			logger.Warn("run: record exit", "error", err)
		}
	}

	guard.Release()
	fmt.Printf("\nvoxterm: %s exited with code %d\n", cfg.Agent, res.Code)
	return nil
}

// printBanner runs before raw mode; nothing may print to stdout after it.
func printBanner(cfg *config.Config, binPath string) {
	fmt.Println("voxterm — voice-controlled terminal")
	fmt.Printf("agent: %s (%s)\n", cfg.Agent, binPath)
	fmt.Printf("stt:   %s\n", cfg.STT.URL)
	fmt.Println()
	fmt.Println("Type normally to interact.")
	if len(cfg.WakePhrases) > 0 {
		fmt.Printf("Say %q followed by a request for voice input.\n", cfg.WakePhrases[0])
		fmt.Printf("Say %q to quit.\n", cfg.WakePhrases[0]+" exit")
	}
	fmt.Println()
}
