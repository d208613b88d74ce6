// Package backup exports the user's data to a portable JSON file and
// imports such a file back, replacing the local namespace.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studorama/studorama/internal/cloudsync"
	"github.com/studorama/studorama/internal/prefs"
	"github.com/studorama/studorama/internal/session"
	"github.com/studorama/studorama/internal/storage"
)

// File is the exported document. The Dropbox access token is stripped on
// export: a backup may travel over untrusted channels, credentials may not.
type File struct {
	Sessions         []session.StudySession `json:"sessions"`
	APISettings      prefs.APISettings      `json:"apiSettings"`
	LanguageSettings prefs.LanguageSettings `json:"languageSettings"`
	DropboxConfig    cloudsync.Config       `json:"dropboxConfig"`
	ExportDate       time.Time              `json:"exportDate"`
	Version          string                 `json:"version"`
}

// Export builds the backup document from the store. Version is the running
// app version, so an import into a different version goes through the
// normal migration gate.
func Export(ctx context.Context, kv *storage.KV, version string) (*File, error) {
	dropbox := storage.Get(ctx, kv, storage.KeyDropboxConfig, cloudsync.DefaultConfig())
	dropbox.AccessToken = ""
	dropbox.IsConnected = false

	return &File{
		Sessions:         storage.Get(ctx, kv, storage.KeySessions, []session.StudySession{}),
		APISettings:      storage.Get(ctx, kv, storage.KeyAPISettings, prefs.APISettings{}),
		LanguageSettings: prefs.LoadLanguage(ctx, kv),
		DropboxConfig:    dropbox,
		ExportDate:       time.Now(),
		Version:          version,
	}, nil
}

// Import wholesale-replaces the local namespace with the backup's contents.
// The caller confirms with the user first; this function does not ask.
func Import(ctx context.Context, kv *storage.KV, f *File) error {
	if f.Version == "" {
		return fmt.Errorf("backup file has no version")
	}

	data := make(map[string]json.RawMessage, 5)
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		data[key] = raw
		return nil
	}
	if err := put(storage.KeySessions, f.Sessions); err != nil {
		return err
	}
	if err := put(storage.KeyAPISettings, f.APISettings); err != nil {
		return err
	}
	if err := put(storage.KeyLanguage, f.LanguageSettings); err != nil {
		return err
	}
	if err := put(storage.KeyDropboxConfig, f.DropboxConfig); err != nil {
		return err
	}
	if err := put(storage.KeyVersion, f.Version); err != nil {
		return err
	}

	return kv.ReplaceAll(ctx, data)
}
