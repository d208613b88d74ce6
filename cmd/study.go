package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studorama/studorama/internal/app"
	"github.com/studorama/studorama/internal/prefs"
	"github.com/studorama/studorama/internal/session"
	"github.com/studorama/studorama/internal/storage"
	"github.com/studorama/studorama/internal/timer"
)

var studyCmd = &cobra.Command{
	Use:   "study [subject]",
	Short: "Start a study session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()
		if e.svc == nil {
			return fmt.Errorf("a configured question source is required")
		}

		var cfg *session.Config
		if len(args) > 0 {
			qtype, _ := cmd.Flags().GetString("type")
			mode := session.QuestionMode(qtype)
			if !mode.Valid() {
				return fmt.Errorf("unknown question type %q (multiple-choice, dissertative, mixed)", qtype)
			}

			modifiers, _ := cmd.Flags().GetStringSlice("focus")
			cfg = &session.Config{
				Subject:   args[0],
				Modifiers: modifiers,
				Mode:      mode,
				Timer:     timerSettings(cmd),
			}
			cfg.Learning.ElaborativeInterrogation, _ = cmd.Flags().GetBool("elaborative")
			cfg.Learning.SelfExplanation, _ = cmd.Flags().GetBool("self-explanation")

			if remember, _ := cmd.Flags().GetBool("remember"); remember {
				ctx := cmd.Context()
				storage.Set(ctx, e.kv, storage.KeyTimerPreferences,
					prefs.Sticky[timer.Settings]{RememberChoice: true, Defaults: cfg.Timer})
				storage.Set(ctx, e.kv, storage.KeyLearningDefaults,
					prefs.Sticky[session.LearningSettings]{RememberChoice: true, Defaults: cfg.Learning})
			}
		}

		return app.Run(app.Options{
			Service:     e.svc,
			KV:          e.kv,
			Notice:      e.notice,
			Theme:       prefs.LoadTheme(cmd.Context(), e.kv),
			StartConfig: cfg,
		})
	},
}

func timerSettings(cmd *cobra.Command) timer.Settings {
	s := timer.DefaultSettings()
	if d, _ := cmd.Flags().GetDuration("session-timer"); d > 0 {
		s.SessionEnabled = true
		s.SessionDuration = d
	}
	if d, _ := cmd.Flags().GetDuration("question-timer"); d > 0 {
		s.QuestionEnabled = true
		s.QuestionDuration = d
	}
	s.AutoSubmit, _ = cmd.Flags().GetBool("auto-submit")
	s.Accumulate, _ = cmd.Flags().GetBool("accumulate-time")
	return s
}

func init() {
	studyCmd.Flags().String("type", string(session.ModeMultipleChoice), "Question type: multiple-choice, dissertative, or mixed")
	studyCmd.Flags().StringSlice("focus", nil, "Subject modifiers to steer question generation")
	studyCmd.Flags().Duration("session-timer", 0, "Overall session time limit (e.g. 30m)")
	studyCmd.Flags().Duration("question-timer", 0, "Per-question time limit (e.g. 90s)")
	studyCmd.Flags().Bool("auto-submit", false, "Submit the drafted answer when the question timer expires")
	studyCmd.Flags().Bool("accumulate-time", false, "Carry unused question time into the next question")
	studyCmd.Flags().Bool("elaborative", false, "Ask a follow-up 'why' question after incorrect answers")
	studyCmd.Flags().Bool("self-explanation", false, "Prompt for reasoning after correct answers")
	studyCmd.Flags().Bool("remember", false, "Remember these timer and learning settings for future sessions")
}
