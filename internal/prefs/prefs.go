// Package prefs holds the persisted user preferences that seed new sessions
// and configure the question source.
package prefs

import (
	"context"

	"github.com/studorama/studorama/internal/storage"
)

// Sticky pairs a remembered default with the flag that says whether to apply
// it. One abstraction covers timer settings and learning settings alike:
// when RememberChoice is set, Defaults seeds the corresponding settings of
// every new session.
type Sticky[T any] struct {
	RememberChoice bool `json:"rememberChoice"`
	Defaults       T    `json:"defaults"`
}

// Apply returns the remembered defaults when RememberChoice is set,
// otherwise the given fallback.
func (s Sticky[T]) Apply(fallback T) T {
	if s.RememberChoice {
		return s.Defaults
	}
	return fallback
}

// APISettings configures the question source. The key is persisted locally
// and included in backups so a restore works on its own; it is never echoed
// back through the CLI.
type APISettings struct {
	Provider       string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
	APIKey         string `json:"openaiApiKey"`
	Model          string `json:"model"`
	BaseURL        string `json:"baseUrl,omitempty"`
	GeneratePrompt string `json:"generatePrompt,omitempty"` // custom prompt override
	EvaluatePrompt string `json:"evaluatePrompt,omitempty"` // custom prompt override
}

// Configured reports whether a usable credential is present.
func (a APISettings) Configured() bool {
	return a.APIKey != "" || a.Provider == "mock"
}

// LanguageSettings selects the language questions and feedback are produced
// in. It is a prompt parameter, not a translation table.
type LanguageSettings struct {
	Language string `json:"language"`
}

// LoadAPISettings reads the persisted API settings.
func LoadAPISettings(ctx context.Context, kv *storage.KV) APISettings {
	return storage.Get(ctx, kv, storage.KeyAPISettings, APISettings{Provider: "openai"})
}

// SaveAPISettings persists settings. Callers must never echo the key back.
func SaveAPISettings(ctx context.Context, kv *storage.KV, s APISettings) bool {
	return storage.Set(ctx, kv, storage.KeyAPISettings, s)
}

// LoadLanguage reads the persisted language, defaulting to English.
func LoadLanguage(ctx context.Context, kv *storage.KV) LanguageSettings {
	return storage.Get(ctx, kv, storage.KeyLanguage, LanguageSettings{Language: "en-US"})
}

// SaveLanguage persists the language setting.
func SaveLanguage(ctx context.Context, kv *storage.KV, l LanguageSettings) bool {
	return storage.Set(ctx, kv, storage.KeyLanguage, l)
}

// LoadTheme reads the persisted theme id, defaulting to "dark".
func LoadTheme(ctx context.Context, kv *storage.KV) string {
	return storage.Get(ctx, kv, storage.KeyTheme, "dark")
}

// SaveTheme persists the theme id.
func SaveTheme(ctx context.Context, kv *storage.KV, id string) bool {
	return storage.Set(ctx, kv, storage.KeyTheme, id)
}
