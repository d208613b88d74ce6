package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/studorama/studorama/internal/app"
	"github.com/studorama/studorama/internal/cloudsync"
	"github.com/studorama/studorama/internal/llm"
	"github.com/studorama/studorama/internal/migration"
	"github.com/studorama/studorama/internal/prefs"
	"github.com/studorama/studorama/internal/preload"
	"github.com/studorama/studorama/internal/quiz"
	"github.com/studorama/studorama/internal/session"
	"github.com/studorama/studorama/internal/storage"
)

// env holds everything a command needs after startup: the store (with the
// migration gate already run) and the session service when a question
// source is configured.
type env struct {
	store   *storage.Store
	kv      *storage.KV
	svc     *session.Service
	engine  *cloudsync.Engine
	notice  string
	cleanup func()
}

// openEnv opens the store, runs the migration gate, and builds the session
// service. The gate runs before anything else touches the namespace.
func openEnv(cmd *cobra.Command) (*env, error) {
	ctx := cmd.Context()

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	kv := st.KV()

	if _, err := migration.Run(ctx, kv, version); err != nil {
		fmt.Fprintln(os.Stderr, "warning: migration:", err)
	}

	e := &env{
		store:   st,
		kv:      kv,
		engine:  cloudsync.NewEngine(kv),
		cleanup: func() { st.Close() },
	}
	if n, ok := migration.TakeNotice(ctx, kv); ok {
		e.notice = n.Message
	}

	if gen, err := buildGenerator(ctx, kv); err != nil {
		fmt.Fprintln(os.Stderr, "Question source not configured:", err)
		fmt.Fprintln(os.Stderr, "Run 'studorama settings api' or set an API key env var.")
	} else {
		api := prefs.LoadAPISettings(ctx, kv)
		lang := prefs.LoadLanguage(ctx, kv)
		e.svc = session.NewService(session.Options{
			KV:             kv,
			Generator:      gen,
			Buffer:         preload.NewBuffer(gen, preloadSize()),
			Language:       lang.Language,
			GeneratePrompt: api.GeneratePrompt,
			EvaluatePrompt: api.EvaluatePrompt,
		})
	}

	return e, nil
}

// buildGenerator builds the LLM-backed question source from the stored API
// settings, falling back to env var discovery on first run.
func buildGenerator(ctx context.Context, kv *storage.KV) (quiz.Generator, error) {
	api := prefs.LoadAPISettings(ctx, kv)

	cfg := llm.DefaultConfig()
	if api.Configured() {
		cfg.Provider = api.Provider
		cfg.APIKey = api.APIKey
		cfg.Model = api.Model
		cfg.BaseURL = api.BaseURL
	} else {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			return nil, fmt.Errorf("no API key found")
		}
		cfg = discovered
	}

	provider, err := llm.NewProvider(ctx, cfg, kv)
	if err != nil {
		return nil, err
	}
	return quiz.New(provider, quiz.DefaultConfig()), nil
}

// preloadSize reads the buffer bound from the environment, clamped by the
// buffer itself.
func preloadSize() int {
	if v := os.Getenv("STUDORAMA_PRELOAD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 2
}

// runApp launches the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.cleanup()

	ctx := cmd.Context()
	if e.svc == nil {
		return fmt.Errorf("a configured question source is required for the TUI")
	}

	if cfg := e.engine.Configuration(ctx); cfg.IsConnected && cfg.AutoSync {
		e.engine.StartAutoSync(ctx)
		defer e.engine.StopAutoSync()
	}

	return app.Run(app.Options{
		Service: e.svc,
		KV:      e.kv,
		Notice:  e.notice,
		Theme:   prefs.LoadTheme(ctx, e.kv),
	})
}
