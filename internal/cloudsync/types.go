// Package cloudsync synchronizes the whole local key-value namespace
// against a single remote JSON document, with explicit user-mediated
// conflict resolution when both sides changed.
package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DocumentVersion is the wire version stamped into uploaded documents.
const DocumentVersion = "1"

// Config is the stored sync configuration. AccessToken is a secret: it is
// never included in backup exports and never echoed by the CLI.
type Config struct {
	AppKey      string     `json:"appKey,omitempty"`
	AccessToken string     `json:"accessToken,omitempty"`
	IsConnected bool       `json:"isConnected"`
	LastSync    *time.Time `json:"lastSync,omitempty"`
	AutoSync    bool       `json:"autoSync"`

	// SyncIntervalMinutes is how often auto-sync runs while connected.
	SyncIntervalMinutes int `json:"syncInterval"`
}

// DefaultConfig returns a disconnected config with a 5 minute interval.
func DefaultConfig() Config {
	return Config{SyncIntervalMinutes: 5}
}

// Interval returns the auto-sync period, floored at one minute.
func (c Config) Interval() time.Duration {
	if c.SyncIntervalMinutes < 1 {
		return time.Minute
	}
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

// Document is the remote wire format: one JSON blob at a fixed path holding
// the full namespace snapshot.
type Document struct {
	Data         map[string]json.RawMessage `json:"data"`
	LastModified time.Time                  `json:"lastModified"`
	Version      string                     `json:"version"`
}

// Strategy picks a side during conflict resolution.
type Strategy string

const (
	// StrategyNone lets the engine detect conflicts instead of resolving.
	StrategyNone Strategy = ""

	// StrategyLocal uploads the local snapshot, clobbering the remote.
	StrategyLocal Strategy = "local"

	// StrategyRemote replaces the entire local namespace with the remote
	// snapshot. A destructive swap, not a merge.
	StrategyRemote Strategy = "remote"
)

// Conflict is the divergence state surfaced for a user decision. It holds
// both full snapshots; neither side is written anywhere until the user
// resolves it. Transient, never persisted.
type Conflict struct {
	LocalData          map[string]json.RawMessage `json:"localData"`
	RemoteData         map[string]json.RawMessage `json:"remoteData"`
	LocalLastModified  time.Time                  `json:"localLastModified"`
	RemoteLastModified time.Time                  `json:"remoteLastModified"`
	ConflictType       string                     `json:"conflictType"`
}

// Result reports one sync pass. Exactly one of Success or Conflict is set
// when the pass completes without error.
type Result struct {
	Success  bool
	Conflict *Conflict
}

// ErrRemoteMissing reports that no document exists at the remote path yet.
var ErrRemoteMissing = errors.New("remote document not found")

// ErrSyncInFlight reports that another sync pass is already running.
var ErrSyncInFlight = errors.New("sync already in progress")

// ErrNotConnected reports that no access token is configured.
var ErrNotConnected = errors.New("not connected to Dropbox")

// Remote is the storage backend behind the engine. The production
// implementation is DropboxClient.
type Remote interface {
	// Download fetches the document, or ErrRemoteMissing when none exists.
	Download(ctx context.Context) (*Document, error)

	// Upload replaces the remote document.
	Upload(ctx context.Context, doc *Document) error
}
