package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studorama/studorama/internal/llm"
	"github.com/studorama/studorama/internal/session"
	"github.com/studorama/studorama/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show study statistics and AI usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()
		ctx := cmd.Context()

		sessions := storage.Get(ctx, e.kv, storage.KeySessions, []session.StudySession{})
		completed, answered, correct := 0, 0, 0
		for i := range sessions {
			if sessions[i].Status == session.StatusCompleted {
				completed++
			}
			for j := range sessions[i].Questions {
				q := &sessions[i].Questions[j]
				if !q.Answered() {
					continue
				}
				answered++
				if q.IsCorrect != nil && *q.IsCorrect {
					correct++
				}
			}
		}

		fmt.Println("Sessions: ", len(sessions), "total,", completed, "completed")
		fmt.Println("Questions:", answered, "answered,", correct, "correct")
		if answered > 0 {
			fmt.Printf("Accuracy:  %.0f%%\n", float64(correct)/float64(answered)*100)
		}

		usage := storage.Get(ctx, e.kv, storage.KeyLLMUsage, llm.UsageTotals{})
		if usage.Requests == 0 {
			return nil
		}
		fmt.Println()
		fmt.Println("AI usage since last reset:")
		fmt.Println("  Requests:", usage.Requests, "(", usage.Failures, "failed )")
		fmt.Println("  Tokens:  ", usage.InputTokens, "in /", usage.OutputTokens, "out")
		if usage.CostUSD > 0 {
			fmt.Printf("  Est cost: $%.4f\n", usage.CostUSD)
		}
		for purpose, n := range usage.ByPurpose {
			fmt.Printf("  %-10s %d\n", purpose+":", n)
		}
		return nil
	},
}
