package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studorama/studorama/internal/prefs"
	"github.com/studorama/studorama/internal/ui/theme"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Configure the question source, language, and theme",
}

var settingsAPICmd = &cobra.Command{
	Use:   "api",
	Short: "Configure the AI provider",
	Long: "Store the provider, model, and API key used to generate questions. " +
		"The key is kept locally and never displayed again.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		ctx := cmd.Context()
		settings := prefs.LoadAPISettings(ctx, e.kv)

		if v, _ := cmd.Flags().GetString("provider"); v != "" {
			settings.Provider = v
		}
		if v, _ := cmd.Flags().GetString("model"); v != "" {
			settings.Model = v
		}
		if v, _ := cmd.Flags().GetString("base-url"); v != "" {
			settings.BaseURL = v
		}
		if v, _ := cmd.Flags().GetString("generate-prompt"); v != "" {
			settings.GeneratePrompt = v
		}
		if v, _ := cmd.Flags().GetString("evaluate-prompt"); v != "" {
			settings.EvaluatePrompt = v
		}

		if setKey, _ := cmd.Flags().GetBool("key"); setKey {
			fmt.Fprint(os.Stderr, "API key: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("read key: %w", err)
			}
			settings.APIKey = strings.TrimSpace(line)
		}

		if !prefs.SaveAPISettings(ctx, e.kv, settings) {
			return fmt.Errorf("persist API settings")
		}

		// Echo everything except the credential.
		fmt.Println("Provider:", settings.Provider)
		if settings.Model != "" {
			fmt.Println("Model:   ", settings.Model)
		}
		if settings.APIKey != "" {
			fmt.Println("API key: (stored)")
		}
		return nil
	},
}

var settingsLanguageCmd = &cobra.Command{
	Use:   "language <tag>",
	Short: "Set the language questions are generated in (e.g. en-US, pt-BR)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		if !prefs.SaveLanguage(cmd.Context(), e.kv, prefs.LanguageSettings{Language: args[0]}) {
			return fmt.Errorf("persist language")
		}
		fmt.Println("Language set to", args[0])
		return nil
	},
}

var settingsThemeCmd = &cobra.Command{
	Use:   "theme <name>",
	Short: "Set the color theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !theme.Valid(args[0]) {
			return fmt.Errorf("unknown theme %q (available: %s)", args[0], strings.Join(theme.Names(), ", "))
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		if !prefs.SaveTheme(cmd.Context(), e.kv, args[0]) {
			return fmt.Errorf("persist theme")
		}
		fmt.Println("Theme set to", args[0])
		return nil
	},
}

func init() {
	settingsAPICmd.Flags().String("provider", "", "Provider: openai, anthropic, gemini, openrouter, or mock")
	settingsAPICmd.Flags().String("model", "", "Model alias or raw model ID")
	settingsAPICmd.Flags().String("base-url", "", "Endpoint override for OpenAI-compatible APIs")
	settingsAPICmd.Flags().String("generate-prompt", "", "Custom system prompt for question generation")
	settingsAPICmd.Flags().String("evaluate-prompt", "", "Custom system prompt for answer evaluation")
	settingsAPICmd.Flags().Bool("key", false, "Prompt for the API key on stdin")

	settingsCmd.AddCommand(settingsAPICmd)
	settingsCmd.AddCommand(settingsLanguageCmd)
	settingsCmd.AddCommand(settingsThemeCmd)
}
