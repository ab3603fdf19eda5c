package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hbray/voxterm/internal/agent"
	"github.com/hbray/voxterm/internal/stt"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check available agents, the STT server, and config paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Println("voxterm doctor")
			fmt.Println()

			fmt.Println("Agent CLIs:")
			for _, name := range agent.KnownAgents {
				path, err := agent.Locate(name)
				if err != nil {
					fmt.Printf("  %-12s not found\n", name)
				} else {
					fmt.Printf("  %-12s %s\n", name, path)
				}
			}
			fmt.Println()

			fmt.Println("STT server:")
			if err := stt.Probe(context.Background(), cfg.STT.URL); err != nil {
				fmt.Printf("  %-12s not reachable at %s\n", "transcriber", cfg.STT.URL)
			} else {
				fmt.Printf("  %-12s reachable at %s\n", "transcriber", cfg.STT.URL)
			}
			fmt.Println()

			fmt.Println("Paths:")
			fmt.Printf("  %-12s %s\n", "config", cfgPath)
			if p, err := cfg.LogPath(); err == nil {
				fmt.Printf("  %-12s %s\n", "log", p)
			}
			if p, err := cfg.HistoryPath(); err == nil {
				fmt.Printf("  %-12s %s\n", "history", p)
			}
			return nil
		},
	}
}
