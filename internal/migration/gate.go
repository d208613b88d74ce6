// Package migration implements the versioned storage gate that runs before
// any other component touches the key-value namespace.
package migration

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/mod/semver"

	"github.com/studorama/studorama/internal/storage"
)

// Result describes what the gate did on startup.
type Result struct {
	// Migrated is true when a version mismatch triggered a wipe.
	Migrated bool

	// From is the previously stored version, empty on a fresh install.
	From string

	// To is the running version, now stored.
	To string
}

// Notice is the one-time user-visible message recorded after a wipe. It is
// stored under a non-preserved key, so the next version bump clears it too.
type Notice struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// Run compares the stored version against current and, on mismatch, deletes
// every namespaced key outside the preserved allow-list. Deletion is
// best-effort: failures are logged and never block startup. Run must
// complete before any session or sync code reads the store.
func Run(ctx context.Context, kv *storage.KV, current string) (Result, error) {
	stored := storage.Get(ctx, kv, storage.KeyVersion, "")

	// Fresh install: record the version, nothing to wipe.
	if stored == "" {
		storage.Set(ctx, kv, storage.KeyVersion, current)
		return Result{To: current}, nil
	}

	if stored == current {
		return Result{From: stored, To: current}, nil
	}

	keys, err := kv.Keys(ctx)
	if err != nil {
		return Result{From: stored, To: current}, fmt.Errorf("enumerate keys: %w", err)
	}

	for _, key := range keys {
		if storage.IsPreserved(key) {
			continue
		}
		if !kv.Remove(ctx, key) {
			fmt.Fprintf(os.Stderr, "warning: migration could not delete %s\n", key)
		}
	}

	storage.Set(ctx, kv, storage.KeyVersion, current)
	storage.Set(ctx, kv, storage.KeyMigrationNotice, Notice{
		From:    stored,
		To:      current,
		Message: noticeMessage(stored, current),
	})

	return Result{Migrated: true, From: stored, To: current}, nil
}

// TakeNotice returns the pending migration notice, if any, and clears it so
// it is shown exactly once.
func TakeNotice(ctx context.Context, kv *storage.KV) (Notice, bool) {
	n := storage.Get(ctx, kv, storage.KeyMigrationNotice, Notice{})
	if n.To == "" {
		return Notice{}, false
	}
	kv.Remove(ctx, storage.KeyMigrationNotice)
	return n, true
}

func noticeMessage(from, to string) string {
	word := "updated"
	if semver.IsValid("v"+from) && semver.IsValid("v"+to) && semver.Compare("v"+from, "v"+to) > 0 {
		word = "downgraded"
	}
	return fmt.Sprintf("Studorama was %s from %s to %s. Local caches were reset; your sessions and settings were kept.", word, from, to)
}
