package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past study sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()
		if e.svc == nil {
			return fmt.Errorf("a configured question source is required")
		}

		sessions := e.svc.List(cmd.Context())
		if len(sessions) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}

		fmt.Printf("%-19s  %-30s  %-9s  %5s  %s\n",
			"Started", "Subject", "Status", "Score", "Questions")
		fmt.Println(strings.Repeat("─", 80))
		for _, s := range sessions {
			fmt.Printf("%-19s  %-30s  %-9s  %4d%%  %d\n",
				s.CreatedAt.Format("2006-01-02 15:04"),
				clip(s.Subject, 30),
				s.Status,
				s.Score,
				s.TotalQuestions,
			)
		}
		return nil
	},
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
