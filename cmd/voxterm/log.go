package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hbray/voxterm/internal/history"
)

func logCmd() *cobra.Command {
	var limit int
	var showUtterances bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent sessions and handled voice commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			histPath, err := cfg.HistoryPath()
			if err != nil {
				return err
			}
			store, err := history.Open(histPath)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			sessions, err := store.RecentSessions(limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no sessions recorded")
				return nil
			}

			for _, s := range sessions {
				status := "running"
				if s.ExitCode != nil {
					status = fmt.Sprintf("exit %d", *s.ExitCode)
				}
				fmt.Printf("%s  %s  %s  %s\n",
					s.ID, s.Agent, s.StartedAt.Local().Format("2006-01-02 15:04:05"), status)
				if !showUtterances {
					continue
				}
				utts, err := store.Utterances(s.ID)
				if err != nil {
					return err
				}
				for _, u := range utts {
					if u.Command != "" && u.Command != u.Heard {
						fmt.Printf("    [%s] %q -> %q\n", u.Action, u.Heard, u.Command)
					} else {
						fmt.Printf("    [%s] %q\n", u.Action, u.Heard)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of sessions to show")
	cmd.Flags().BoolVarP(&showUtterances, "utterances", "u", false, "Include each session's voice commands")
	return cmd
}
