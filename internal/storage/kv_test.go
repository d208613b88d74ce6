package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testKV(t *testing.T) *KV {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.KV()
}

func TestGetReturnsDefaultWhenAbsent(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	got := Get(ctx, kv, KeyTheme, "dark")
	if got != "dark" {
		t.Errorf("Get() = %q, want default %q", got, "dark")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	type sample struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	want := sample{Name: "algebra", Count: 3}

	if ok := Set(ctx, kv, KeyLearningDefaults, want); !ok {
		t.Fatal("Set() = false, want true")
	}
	got := Get(ctx, kv, KeyLearningDefaults, sample{})
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestSetOverwritesWholeValue(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	Set(ctx, kv, KeyTheme, "dark")
	Set(ctx, kv, KeyTheme, "light")

	if got := Get(ctx, kv, KeyTheme, ""); got != "light" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "light")
	}
}

func TestRemove(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	Set(ctx, kv, KeyTheme, "dark")
	if ok := kv.Remove(ctx, KeyTheme); !ok {
		t.Fatal("Remove() = false, want true")
	}
	if got := Get(ctx, kv, KeyTheme, "fallback"); got != "fallback" {
		t.Errorf("Get() after remove = %q, want default", got)
	}
}

func TestKeysListsNamespaceOnly(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	Set(ctx, kv, KeyTheme, "dark")
	Set(ctx, kv, KeyLanguage, "en-US")

	keys, err := kv.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	// theme, language, plus the last-modified stamp.
	want := map[string]bool{KeyTheme: true, KeyLanguage: true, KeyLastModified: true}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %d keys", keys, len(want))
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("Keys() contains unexpected %q", k)
		}
	}
}

func TestWriteBumpsLastModified(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	if got := kv.LastModified(ctx); !got.IsZero() {
		t.Fatalf("LastModified() before any write = %v, want zero", got)
	}

	before := time.Now().Add(-time.Second)
	Set(ctx, kv, KeySessions, []string{"s1"})

	got := kv.LastModified(ctx)
	if got.IsZero() || got.Before(before) {
		t.Errorf("LastModified() = %v, want after %v", got, before)
	}
}

func TestExportSkipsLastModified(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	Set(ctx, kv, KeyTheme, "dark")

	data, err := kv.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if _, ok := data[KeyLastModified]; ok {
		t.Error("Export() includes the last-modified meta key")
	}
	if _, ok := data[KeyTheme]; !ok {
		t.Error("Export() missing theme key")
	}
}

func TestReplaceAllSwapsNamespace(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	Set(ctx, kv, KeyTheme, "dark")
	Set(ctx, kv, KeySessions, []string{"old"})

	Set(ctx, kv, KeyLanguage, "en-US")
	incoming, err := kv.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	delete(incoming, KeyTheme)
	delete(incoming, KeySessions)

	if err := kv.ReplaceAll(ctx, incoming); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	if got := Get(ctx, kv, KeyTheme, ""); got != "" {
		t.Errorf("theme survived the swap: %q", got)
	}
	if got := Get(ctx, kv, KeyLanguage, ""); got != "en-US" {
		t.Errorf("language = %q, want en-US", got)
	}
	if kv.LastModified(ctx).IsZero() {
		t.Error("ReplaceAll() did not stamp last-modified")
	}
}

func TestCacheInvalidatedOnWrite(t *testing.T) {
	kv := testKV(t)
	ctx := context.Background()

	Set(ctx, kv, KeyTheme, "dark")
	if got := Get(ctx, kv, KeyTheme, ""); got != "dark" {
		t.Fatalf("Get() = %q", got)
	}
	// The first read cached the value; the write must invalidate it.
	Set(ctx, kv, KeyTheme, "light")
	if got := Get(ctx, kv, KeyTheme, ""); got != "light" {
		t.Errorf("Get() after write = %q, want light (stale cache?)", got)
	}
}

func TestIsPreserved(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{KeyVersion, true},
		{KeyAPISettings, true},
		{KeySessions, true},
		{KeyDropboxConfig, true},
		{KeyMigrationNotice, false},
		{KeyLLMUsage, false},
		{Prefix + "scratch", false},
	}
	for _, tt := range tests {
		if got := IsPreserved(tt.key); got != tt.want {
			t.Errorf("IsPreserved(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
