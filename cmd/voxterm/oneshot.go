package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hbray/voxterm/internal/agent"
	"github.com/hbray/voxterm/internal/config"
	"github.com/hbray/voxterm/internal/logger"
	"github.com/hbray/voxterm/internal/stt"
	"github.com/hbray/voxterm/internal/voice"
)

func oneshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "oneshot",
		Short: "Run each voice command as an independent agent invocation",
		Long:  "Every extracted voice command runs `agent -p <command>` as its own process. Simpler than a session but keeps no conversation context between commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneshot(cmd.Context())
		},
	}
}

func runOneshot(ctx context.Context) error {
	cfg, _, err := loadConfig()
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

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sttClient := stt.NewClient(cfg.STT.URL)
	disp := voice.NewDispatcher(
		sttClient,
		voice.NewMatcher(cfg.WakePhrases, cfg.Fillers),
		func(command string) {
			fmt.Printf("\n[voice command: %s]\n", command)
			if err := agent.RunOnce(runCtx, binPath, command); err != nil {
				fmt.Printf("[error: %v]\n", err)
			}
		},
		cancel,
	)

	fmt.Println("voxterm oneshot — each command runs independently")
	fmt.Printf("agent: %s (%s)\n", cfg.Agent, binPath)
	if len(cfg.WakePhrases) > 0 {
		fmt.Printf("Say %q followed by a request; %q to quit.\n",
			cfg.WakePhrases[0], cfg.WakePhrases[0]+" exit")
	}

	go sttClient.Run(runCtx)
	if err := disp.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
