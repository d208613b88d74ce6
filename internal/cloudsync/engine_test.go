package cloudsync

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/studorama/studorama/internal/storage"
)

// fakeRemote is an in-memory Remote recording uploads.
type fakeRemote struct {
	doc     *Document
	uploads int
}

func (r *fakeRemote) Download(ctx context.Context) (*Document, error) {
	if r.doc == nil {
		return nil, ErrRemoteMissing
	}
	copied := *r.doc
	return &copied, nil
}

func (r *fakeRemote) Upload(ctx context.Context, doc *Document) error {
	r.uploads++
	copied := *doc
	r.doc = &copied
	return nil
}

func testEngine(t *testing.T) (*Engine, *fakeRemote, *storage.KV) {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	kv := s.KV()
	remote := &fakeRemote{}
	e := NewEngine(kv)
	e.newRemote = func(token string) Remote { return remote }

	if err := e.Connect(context.Background(), "app-key", "token"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return e, remote, kv
}

func TestSyncRequiresConnection(t *testing.T) {
	s, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	e := NewEngine(s.KV())
	if _, err := e.Sync(context.Background(), StrategyNone); err != ErrNotConnected {
		t.Errorf("Sync() error = %v, want ErrNotConnected", err)
	}
}

func TestFirstSyncBootstrapsRemote(t *testing.T) {
	e, remote, kv := testEngine(t)
	ctx := context.Background()

	storage.Set(ctx, kv, storage.KeySessions, []string{"A"})

	res, err := e.Sync(ctx, StrategyNone)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !res.Success || res.Conflict != nil {
		t.Fatalf("Sync() = %+v, want plain success", res)
	}
	if remote.doc == nil {
		t.Fatal("remote was not written")
	}
	var sessions []string
	if err := json.Unmarshal(remote.doc.Data[storage.KeySessions], &sessions); err != nil {
		t.Fatalf("decode remote sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0] != "A" {
		t.Errorf("remote sessions = %v, want [A]", sessions)
	}
	if remote.doc.Version != DocumentVersion {
		t.Errorf("remote version = %q, want %q", remote.doc.Version, DocumentVersion)
	}

	if e.Configuration(ctx).LastSync == nil {
		t.Error("LastSync not recorded after success")
	}
}

func TestStaleRemoteIsOverwritten(t *testing.T) {
	e, remote, kv := testEngine(t)
	ctx := context.Background()

	remote.doc = &Document{
		Data:         map[string]json.RawMessage{storage.KeySessions: json.RawMessage(`["old"]`)},
		LastModified: time.Now().Add(-time.Hour),
		Version:      DocumentVersion,
	}
	storage.Set(ctx, kv, storage.KeySessions, []string{"new"})

	res, err := e.Sync(ctx, StrategyNone)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !res.Success || res.Conflict != nil {
		t.Fatalf("Sync() = %+v, want success without conflict", res)
	}
	var sessions []string
	json.Unmarshal(remote.doc.Data[storage.KeySessions], &sessions)
	if len(sessions) != 1 || sessions[0] != "new" {
		t.Errorf("remote sessions = %v, want [new]", sessions)
	}
}

func TestDivergenceSurfacesConflictWithoutWriting(t *testing.T) {
	e, remote, kv := testEngine(t)
	ctx := context.Background()

	// Local snapshot A at T1, remote snapshot B at T2 > T1, A != B.
	storage.Set(ctx, kv, storage.KeySessions, []string{"A"})
	remote.doc = &Document{
		Data:         map[string]json.RawMessage{storage.KeySessions: json.RawMessage(`["A","B"]`)},
		LastModified: time.Now().Add(time.Hour),
		Version:      DocumentVersion,
	}
	uploadsBefore := remote.uploads

	res, err := e.Sync(ctx, StrategyNone)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Conflict == nil {
		t.Fatal("divergence did not surface a conflict")
	}
	if res.Success {
		t.Error("conflicted pass reported success")
	}

	c := res.Conflict
	var local, remoteSessions []string
	json.Unmarshal(c.LocalData[storage.KeySessions], &local)
	json.Unmarshal(c.RemoteData[storage.KeySessions], &remoteSessions)
	if len(local) != 1 || local[0] != "A" {
		t.Errorf("conflict local = %v, want [A]", local)
	}
	if len(remoteSessions) != 2 {
		t.Errorf("conflict remote = %v, want [A B]", remoteSessions)
	}
	if !c.RemoteLastModified.After(c.LocalLastModified) {
		t.Error("conflict timestamps not ordered remote > local")
	}

	// Neither side written until resolution.
	if remote.uploads != uploadsBefore {
		t.Error("conflict pass uploaded to the remote")
	}
	got := storage.Get(ctx, kv, storage.KeySessions, []string{})
	if len(got) != 1 || got[0] != "A" {
		t.Errorf("local sessions changed during conflict: %v", got)
	}
}

func TestRemoteWinsResolutionReplacesNamespace(t *testing.T) {
	e, remote, kv := testEngine(t)
	ctx := context.Background()

	storage.Set(ctx, kv, storage.KeySessions, []string{"A"})
	storage.Set(ctx, kv, storage.KeyTheme, "light")
	remote.doc = &Document{
		Data: map[string]json.RawMessage{
			storage.KeySessions: json.RawMessage(`["A","B"]`),
		},
		LastModified: time.Now().Add(time.Hour),
		Version:      DocumentVersion,
	}

	res, err := e.Sync(ctx, StrategyRemote)
	if err != nil {
		t.Fatalf("Sync(remote) error = %v", err)
	}
	if !res.Success {
		t.Fatal("remote-wins resolution did not succeed")
	}

	got := storage.Get(ctx, kv, storage.KeySessions, []string{})
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("local sessions = %v, want exact remote copy [A B]", got)
	}
	// Full replace: keys absent from the remote snapshot are gone.
	if theme := storage.Get(ctx, kv, storage.KeyTheme, ""); theme != "" {
		t.Errorf("theme survived the swap: %q", theme)
	}
	// The connection itself survives the swap.
	cfg := e.Configuration(ctx)
	if !cfg.IsConnected || cfg.AccessToken != "token" {
		t.Errorf("sync config lost in swap: %+v", cfg)
	}
}

func TestLocalWinsResolutionUploads(t *testing.T) {
	e, remote, kv := testEngine(t)
	ctx := context.Background()

	storage.Set(ctx, kv, storage.KeySessions, []string{"A"})
	remote.doc = &Document{
		Data:         map[string]json.RawMessage{storage.KeySessions: json.RawMessage(`["A","B"]`)},
		LastModified: time.Now().Add(time.Hour),
		Version:      DocumentVersion,
	}

	res, err := e.Sync(ctx, StrategyLocal)
	if err != nil {
		t.Fatalf("Sync(local) error = %v", err)
	}
	if !res.Success {
		t.Fatal("local-wins resolution did not succeed")
	}
	var sessions []string
	json.Unmarshal(remote.doc.Data[storage.KeySessions], &sessions)
	if len(sessions) != 1 || sessions[0] != "A" {
		t.Errorf("remote sessions = %v, want local [A]", sessions)
	}
}

func TestDisconnectClearsTokenKeepsAppKey(t *testing.T) {
	e, _, _ := testEngine(t)
	ctx := context.Background()

	if err := e.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	cfg := e.Configuration(ctx)
	if cfg.AccessToken != "" || cfg.IsConnected {
		t.Errorf("Disconnect() left credentials: %+v", cfg)
	}
	if cfg.AppKey != "app-key" {
		t.Errorf("AppKey = %q, want preserved", cfg.AppKey)
	}
	if cfg.LastSync != nil {
		t.Error("LastSync not reset on disconnect")
	}
}

func TestOnlyOneSyncInFlight(t *testing.T) {
	e, _, _ := testEngine(t)

	e.flight.Lock()
	defer e.flight.Unlock()

	if _, err := e.Sync(context.Background(), StrategyNone); err != ErrSyncInFlight {
		t.Errorf("overlapping Sync() error = %v, want ErrSyncInFlight", err)
	}
}
