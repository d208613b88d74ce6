package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/studorama/studorama/internal/storage"
)

// Engine runs sync passes between the local namespace and a Remote. A pass
// snapshots the full local namespace, compares last-modified timestamps
// against the remote document, and either overwrites the stale side or
// surfaces a Conflict for the user to resolve. Only one pass may be in
// flight; overlapping calls fail fast with ErrSyncInFlight.
type Engine struct {
	kv *storage.KV

	// newRemote builds the backend for a token. Swapped out in tests.
	newRemote func(token string) Remote

	flight sync.Mutex

	autoMu   sync.Mutex
	autoStop chan struct{}
}

// NewEngine creates an Engine backed by the Dropbox content API.
func NewEngine(kv *storage.KV) *Engine {
	return &Engine{
		kv: kv,
		newRemote: func(token string) Remote {
			return NewDropboxClient(token)
		},
	}
}

// Configuration returns the stored sync config.
func (e *Engine) Configuration(ctx context.Context) Config {
	return storage.Get(ctx, e.kv, storage.KeyDropboxConfig, DefaultConfig())
}

// SaveConfiguration persists cfg, e.g. after toggling auto-sync.
func (e *Engine) SaveConfiguration(ctx context.Context, cfg Config) error {
	return e.saveConfig(ctx, cfg)
}

func (e *Engine) saveConfig(ctx context.Context, cfg Config) error {
	if !storage.Set(ctx, e.kv, storage.KeyDropboxConfig, cfg) {
		return fmt.Errorf("persist sync config")
	}
	return nil
}

// Connect stores the access token and marks the engine connected.
func (e *Engine) Connect(ctx context.Context, appKey, token string) error {
	if token == "" {
		return errors.New("access token must not be empty")
	}
	cfg := e.Configuration(ctx)
	if appKey != "" {
		cfg.AppKey = appKey
	}
	cfg.AccessToken = token
	cfg.IsConnected = true
	return e.saveConfig(ctx, cfg)
}

// Disconnect clears the token and resets sync status to defaults. The app
// key survives so reconnecting does not require re-entering it.
func (e *Engine) Disconnect(ctx context.Context) error {
	e.StopAutoSync()
	cfg := DefaultConfig()
	cfg.AppKey = e.Configuration(ctx).AppKey
	return e.saveConfig(ctx, cfg)
}

// Sync runs one pass. With StrategyNone it detects divergence; a returned
// Conflict means nothing was written on either side. StrategyLocal and
// StrategyRemote resolve a previously surfaced conflict.
func (e *Engine) Sync(ctx context.Context, strategy Strategy) (*Result, error) {
	if !e.flight.TryLock() {
		return nil, ErrSyncInFlight
	}
	defer e.flight.Unlock()

	cfg := e.Configuration(ctx)
	if cfg.AccessToken == "" {
		return nil, ErrNotConnected
	}
	remote := e.newRemote(cfg.AccessToken)

	var res *Result
	var err error
	switch strategy {
	case StrategyNone:
		res, err = e.detect(ctx, remote)
	case StrategyLocal:
		err = e.uploadLocal(ctx, remote)
		res = &Result{Success: err == nil}
	case StrategyRemote:
		err = e.adoptRemote(ctx, remote)
		res = &Result{Success: err == nil}
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	if res.Success {
		now := time.Now()
		cfg = e.Configuration(ctx)
		cfg.LastSync = &now
		if err := e.saveConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// detect downloads the remote and decides between upload and conflict.
// Divergence requires both a newer remote timestamp and different payloads;
// a timestamp-only difference is overwritten to keep the remote fresh.
func (e *Engine) detect(ctx context.Context, remote Remote) (*Result, error) {
	local, localModified, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := remote.Download(ctx)
	if errors.Is(err, ErrRemoteMissing) {
		if err := remote.Upload(ctx, &Document{
			Data:         local,
			LastModified: localModified,
			Version:      DocumentVersion,
		}); err != nil {
			return nil, err
		}
		return &Result{Success: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if doc.LastModified.After(localModified) && payloadsDiffer(local, doc.Data) {
		return &Result{Conflict: &Conflict{
			LocalData:          local,
			RemoteData:         doc.Data,
			LocalLastModified:  localModified,
			RemoteLastModified: doc.LastModified,
			ConflictType:       "both-modified",
		}}, nil
	}

	if err := remote.Upload(ctx, &Document{
		Data:         local,
		LastModified: localModified,
		Version:      DocumentVersion,
	}); err != nil {
		return nil, err
	}
	return &Result{Success: true}, nil
}

// uploadLocal clobbers the remote with the local snapshot.
func (e *Engine) uploadLocal(ctx context.Context, remote Remote) error {
	local, localModified, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	return remote.Upload(ctx, &Document{
		Data:         local,
		LastModified: localModified,
		Version:      DocumentVersion,
	})
}

// adoptRemote replaces the whole local namespace with the remote snapshot.
// The swap preserves the live sync config so the connection survives
// adopting a snapshot taken on another device.
func (e *Engine) adoptRemote(ctx context.Context, remote Remote) error {
	doc, err := remote.Download(ctx)
	if err != nil {
		return err
	}

	cfg := e.Configuration(ctx)
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode sync config: %w", err)
	}
	data := make(map[string]json.RawMessage, len(doc.Data)+1)
	for k, v := range doc.Data {
		data[k] = v
	}
	data[storage.KeyDropboxConfig] = raw

	return e.kv.ReplaceAll(ctx, data)
}

func (e *Engine) snapshot(ctx context.Context) (map[string]json.RawMessage, time.Time, error) {
	local, err := e.kv.Export(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	return local, e.kv.LastModified(ctx), nil
}

// payloadsDiffer compares serialized snapshots. Map marshaling sorts keys,
// so equal contents always serialize identically.
func payloadsDiffer(a, b map[string]json.RawMessage) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return true
	}
	return !bytes.Equal(ra, rb)
}

// StartAutoSync runs periodic passes until StopAutoSync or ctx ends.
// Failures and pending conflicts are logged; the ticker keeps going so a
// transient outage heals itself on the next interval.
func (e *Engine) StartAutoSync(ctx context.Context) {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	if e.autoStop != nil {
		return
	}
	stop := make(chan struct{})
	e.autoStop = stop

	interval := e.Configuration(ctx).Interval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := e.Sync(ctx, StrategyNone)
				switch {
				case errors.Is(err, ErrSyncInFlight):
				case err != nil:
					fmt.Fprintf(os.Stderr, "warning: auto-sync: %v\n", err)
				case res.Conflict != nil:
					fmt.Fprintln(os.Stderr, "warning: auto-sync found a conflict; run a manual sync to resolve")
				}
			}
		}
	}()
}

// StopAutoSync stops the periodic passes, if running.
func (e *Engine) StopAutoSync() {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	if e.autoStop != nil {
		close(e.autoStop)
		e.autoStop = nil
	}
}
