package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	contentURL = "https://content.dropboxapi.com/2"

	// remotePath is the fixed location of the sync document inside the
	// app folder.
	remotePath = "/studorama-data.json"
)

// DropboxClient talks to the Dropbox content API over raw HTTP. Only the
// two content endpoints the engine needs are implemented.
type DropboxClient struct {
	token  string
	client *http.Client
}

// NewDropboxClient creates a client for the given access token.
func NewDropboxClient(token string) *DropboxClient {
	return &DropboxClient{
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Download fetches the sync document via files/download. A path/not_found
// error maps to ErrRemoteMissing so a first sync can bootstrap the remote.
func (c *DropboxClient) Download(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, contentURL+"/files/download", nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Dropbox-API-Arg", apiArg(remotePath, ""))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", remotePath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}

	if resp.StatusCode == http.StatusConflict && strings.Contains(string(body), "not_found") {
		return nil, ErrRemoteMissing
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s: %s", resp.StatusCode, remotePath, strings.TrimSpace(string(body)))
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode remote document: %w", err)
	}
	return &doc, nil
}

// Upload replaces the sync document via files/upload in overwrite mode.
func (c *DropboxClient) Upload(ctx context.Context, doc *Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, contentURL+"/files/upload", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", apiArg(remotePath, "overwrite"))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", remotePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d for %s: %s", resp.StatusCode, remotePath, strings.TrimSpace(string(body)))
	}
	return nil
}

// apiArg builds the Dropbox-API-Arg header value.
func apiArg(path, mode string) string {
	arg := map[string]any{"path": path}
	if mode != "" {
		arg["mode"] = mode
		arg["mute"] = true
	}
	raw, _ := json.Marshal(arg)
	return string(raw)
}
