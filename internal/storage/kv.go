package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/studorama/studorama/ent"
	"github.com/studorama/studorama/ent/entry"
)

// DefaultCacheTTL is how long a read stays fresh in the read-through cache.
const DefaultCacheTTL = 5 * time.Second

// KV is the namespaced key-value view over the ent store. Values are whole
// JSON documents; a write always replaces the entire value. Every data write
// also bumps the last-modified meta key inside the same transaction so the
// sync engine never observes a torn snapshot.
type KV struct {
	client *ent.Client
	cache  *readCache
}

// NewKV creates a KV with its own read cache. The cache is owned by this
// instance and invalidated on every write; there is no package-level state.
func NewKV(client *ent.Client, cacheTTL time.Duration) *KV {
	return &KV{
		client: client,
		cache:  newReadCache(cacheTTL),
	}
}

// Get reads the value at key into def's type, returning def when the key is
// absent or unreadable.
func Get[T any](ctx context.Context, kv *KV, key string, def T) T {
	raw, ok, err := kv.GetRaw(ctx, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: read %s: %v\n", key, err)
		return def
	}
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Fprintf(os.Stderr, "warning: decode %s: %v\n", key, err)
		return def
	}
	return v
}

// Set writes value at key, reporting success. On a write failure it clears
// the read cache and retries once; a second failure is logged and dropped,
// leaving the in-memory state authoritative for the current run.
func Set[T any](ctx context.Context, kv *KV, key string, value T) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: encode %s: %v\n", key, err)
		return false
	}
	return kv.SetRaw(ctx, key, raw)
}

// GetRaw returns the raw JSON value at key. The second return is false when
// the key does not exist.
func (kv *KV) GetRaw(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if raw, ok := kv.cache.get(key); ok {
		return raw, true, nil
	}

	e, err := kv.client.Entry.Query().Where(entry.Key(key)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query %s: %w", key, err)
	}

	raw := json.RawMessage(e.Value)
	kv.cache.put(key, raw)
	return raw, true, nil
}

// SetRaw writes a raw JSON value at key, with the clear-and-retry recovery
// described on Set.
func (kv *KV) SetRaw(ctx context.Context, key string, raw json.RawMessage) bool {
	if err := kv.setRaw(ctx, key, raw); err != nil {
		kv.cache.clear()
		if err = kv.setRaw(ctx, key, raw); err != nil {
			fmt.Fprintf(os.Stderr, "warning: write %s dropped: %v\n", key, err)
			return false
		}
	}
	return true
}

func (kv *KV) setRaw(ctx context.Context, key string, raw json.RawMessage) error {
	tx, err := kv.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	now := time.Now()
	if err := upsert(ctx, tx, key, raw, now); err != nil {
		_ = tx.Rollback()
		return err
	}
	if key != KeyLastModified {
		stamp, _ := json.Marshal(now)
		if err := upsert(ctx, tx, KeyLastModified, stamp, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}

	kv.cache.invalidate(key)
	kv.cache.invalidate(KeyLastModified)
	return nil
}

// Remove deletes key, reporting whether the delete succeeded.
func (kv *KV) Remove(ctx context.Context, key string) bool {
	_, err := kv.client.Entry.Delete().Where(entry.Key(key)).Exec(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: remove %s: %v\n", key, err)
		return false
	}
	kv.cache.invalidate(key)
	return true
}

// Keys returns every key under the application namespace.
func (kv *KV) Keys(ctx context.Context) ([]string, error) {
	keys, err := kv.client.Entry.Query().
		Where(entry.KeyHasPrefix(Prefix)).
		Select(entry.FieldKey).
		Strings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Export returns a snapshot of the full namespace, excluding the
// last-modified meta key (the consumer carries its own timestamp).
func (kv *KV) Export(ctx context.Context) (map[string]json.RawMessage, error) {
	entries, err := kv.client.Entry.Query().
		Where(entry.KeyHasPrefix(Prefix)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export namespace: %w", err)
	}

	out := make(map[string]json.RawMessage, len(entries))
	for _, e := range entries {
		if e.Key == KeyLastModified {
			continue
		}
		out[e.Key] = json.RawMessage(e.Value)
	}
	return out, nil
}

// ReplaceAll wipes the namespace and writes data in its place, in a single
// transaction. This is the destructive swap used by "use remote" conflict
// resolution and by backup import; no per-key merge is attempted.
func (kv *KV) ReplaceAll(ctx context.Context, data map[string]json.RawMessage) error {
	tx, err := kv.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if _, err := tx.Entry.Delete().Where(entry.KeyHasPrefix(Prefix)).Exec(ctx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("wipe namespace: %w", err)
	}

	now := time.Now()
	for key, raw := range data {
		if !strings.HasPrefix(key, Prefix) || key == KeyLastModified {
			continue
		}
		if err := upsert(ctx, tx, key, raw, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	stamp, _ := json.Marshal(now)
	if err := upsert(ctx, tx, KeyLastModified, stamp, now); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	kv.cache.clear()
	return nil
}

// LastModified returns when the namespace last changed, or the zero time if
// nothing has been written yet.
func (kv *KV) LastModified(ctx context.Context) time.Time {
	return Get(ctx, kv, KeyLastModified, time.Time{})
}

// upsert writes key within tx, creating the entry when absent.
func upsert(ctx context.Context, tx *ent.Tx, key string, raw json.RawMessage, now time.Time) error {
	n, err := tx.Entry.Update().
		Where(entry.Key(key)).
		SetValue(raw).
		SetUpdatedAt(now).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	if n > 0 {
		return nil
	}
	_, err = tx.Entry.Create().
		SetKey(key).
		SetValue(raw).
		SetUpdatedAt(now).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	return nil
}

// readCache is a TTL read-through cache for raw values. It exists to absorb
// repeated reads of hot keys (the sessions list in particular) between
// writes; every write path invalidates it.
type readCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	raw     json.RawMessage
	expires time.Time
}

func newReadCache(ttl time.Duration) *readCache {
	return &readCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *readCache) get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.raw, true
}

func (c *readCache) put(key string, raw json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{raw: raw, expires: time.Now().Add(c.ttl)}
}

func (c *readCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *readCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
