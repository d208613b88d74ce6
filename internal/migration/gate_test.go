package migration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studorama/studorama/internal/storage"
)

func testKV(t *testing.T) *storage.KV {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.KV()
}

func TestFreshInstallRecordsVersion(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	res, err := Run(ctx, kv, "1.4.0")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Migrated {
		t.Error("fresh install reported Migrated = true")
	}
	if got := storage.Get(ctx, kv, storage.KeyVersion, ""); got != "1.4.0" {
		t.Errorf("stored version = %q, want 1.4.0", got)
	}
	if _, ok := TakeNotice(ctx, kv); ok {
		t.Error("fresh install left a migration notice")
	}
}

func TestMatchingVersionIsNoOp(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	storage.Set(ctx, kv, storage.KeyVersion, "1.4.0")
	storage.Set(ctx, kv, storage.Prefix+"scratch", map[string]int{"x": 1})

	res, err := Run(ctx, kv, "1.4.0")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Migrated {
		t.Error("matching version reported Migrated = true")
	}
	if got := storage.Get(ctx, kv, storage.Prefix+"scratch", map[string]int{}); got["x"] != 1 {
		t.Error("matching version wiped data")
	}
}

func TestMismatchWipesOnlyNonPreserved(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	// Stored state from a previous version: settings that must survive
	// plus derived state that must not.
	storage.Set(ctx, kv, storage.KeyVersion, "1.3.0")
	storage.Set(ctx, kv, storage.KeyAPISettings, map[string]string{"openaiApiKey": "sk-x"})
	storage.Set(ctx, kv, storage.KeySessions, []string{"s1"})
	storage.Set(ctx, kv, storage.KeyTheme, "light")
	storage.Set(ctx, kv, storage.Prefix+"scratch", map[string]int{"x": 1})
	storage.Set(ctx, kv, storage.KeyLLMUsage, map[string]int{"calls": 9})

	res, err := Run(ctx, kv, "1.4.0")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Migrated || res.From != "1.3.0" || res.To != "1.4.0" {
		t.Fatalf("Run() = %+v, want migrated 1.3.0 -> 1.4.0", res)
	}

	api := storage.Get(ctx, kv, storage.KeyAPISettings, map[string]string{})
	if api["openaiApiKey"] != "sk-x" {
		t.Errorf("api settings not preserved: %v", api)
	}
	if got := storage.Get(ctx, kv, storage.KeySessions, []string{}); len(got) != 1 || got[0] != "s1" {
		t.Errorf("sessions not preserved: %v", got)
	}
	if got := storage.Get(ctx, kv, storage.KeyTheme, ""); got != "light" {
		t.Errorf("theme not preserved: %q", got)
	}
	if got := storage.Get(ctx, kv, storage.Prefix+"scratch", map[string]int{}); len(got) != 0 {
		t.Errorf("scratch key survived the wipe: %v", got)
	}
	if got := storage.Get(ctx, kv, storage.KeyLLMUsage, map[string]int{}); len(got) != 0 {
		t.Errorf("usage key survived the wipe: %v", got)
	}
	if got := storage.Get(ctx, kv, storage.KeyVersion, ""); got != "1.4.0" {
		t.Errorf("stored version = %q, want 1.4.0", got)
	}
}

func TestNoticeShownExactlyOnce(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	storage.Set(ctx, kv, storage.KeyVersion, "1.3.0")
	if _, err := Run(ctx, kv, "1.4.0"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	n, ok := TakeNotice(ctx, kv)
	if !ok {
		t.Fatal("TakeNotice() found no notice after a wipe")
	}
	if n.From != "1.3.0" || n.To != "1.4.0" {
		t.Errorf("notice = %+v, want 1.3.0 -> 1.4.0", n)
	}
	if !strings.Contains(n.Message, "updated") {
		t.Errorf("notice message = %q, want an update wording", n.Message)
	}

	if _, ok := TakeNotice(ctx, kv); ok {
		t.Error("TakeNotice() returned the notice twice")
	}
}

func TestDowngradeWording(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	storage.Set(ctx, kv, storage.KeyVersion, "2.0.0")
	if _, err := Run(ctx, kv, "1.4.0"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	n, ok := TakeNotice(ctx, kv)
	if !ok {
		t.Fatal("no notice after downgrade")
	}
	if !strings.Contains(n.Message, "downgraded") {
		t.Errorf("notice message = %q, want downgrade wording", n.Message)
	}
}
