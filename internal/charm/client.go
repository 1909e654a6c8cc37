// ABOUTME: KV-backed record service implementing recordstore.Client.
// ABOUTME: Runs over Charm Cloud KV (synced) or a local badger database.
package charm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/google/uuid"

	"github.com/harperreed/pump/internal/recordstore"
)

const (
	// DBName is the Charm KV database holding all records.
	DBName           = "pump"
	DefaultCharmHost = "charm.2389.dev"

	RoutinePrefix  = "routine:"
	ExercisePrefix = "exercise:"
	PhotoPrefix    = "photo:"
)

var errReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

// KV is the subset of the Charm KV API the record service needs.
// *kv.KV satisfies it directly; badger databases via OpenBadger.
type KV interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	IsReadOnly() bool
	Close() error
}

type Client struct {
	kv       KV
	autoSync bool
	mu       sync.RWMutex
	// writeMu serializes multi-key mutations such as cascading deletes.
	writeMu sync.Mutex
	newID   func() string
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithIDFunc replaces the ID generator.
func WithIDFunc(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// WithClock replaces the time source used for photo timestamps.
func WithClock(fn func() time.Time) Option {
	return func(c *Client) { c.now = fn }
}

// WithAutoSync syncs to the cloud after every write.
func WithAutoSync(enabled bool) Option {
	return func(c *Client) { c.autoSync = enabled }
}

// New wraps an open KV.
func New(store KV, opts ...Option) *Client {
	c := &Client{
		kv:    store,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenCharm opens the Charm Cloud KV database against host and pulls
// remote data unless another process holds the lock.
func OpenCharm(host string) (*Client, error) {
	if host == "" {
		host = DefaultCharmHost
	}
	if err := os.Setenv("CHARM_HOST", host); err != nil {
		return nil, err
	}
	db, err := kv.OpenWithDefaultsFallback(DBName)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}
	if !db.IsReadOnly() {
		_ = db.Sync()
	}
	return New(db, WithAutoSync(true)), nil
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (c *Client) Sync() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	return c.kv.Sync()
}

// Reset wipes local data and rebuilds it from Charm Cloud. Only the
// Charm backend supports it.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.kv.(interface{ Reset() error })
	if !ok {
		return errors.New("reset is only supported by the charm backend")
	}
	return r.Reset()
}

// CharmID returns the Charm account ID of the current machine.
func CharmID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

func (c *Client) syncIfEnabled() {
	if c.autoSync && !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}
}

func (c *Client) set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	if err := c.kv.Set([]byte(key), data); err != nil {
		return err
	}
	c.syncIfEnabled()
	return nil
}

func (c *Client) deleteKeys(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	for _, key := range keys {
		if err := c.kv.Delete([]byte(key)); err != nil {
			return err
		}
	}
	c.syncIfEnabled()
	return nil
}

// ErrNotFound is returned by KV.Get implementations in this package for
// missing keys.
var ErrNotFound = errors.New("key not found")

// get decodes the value at key into T; found is false for a missing key.
func get[T any](c *Client, key string) (value *T, found bool, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := c.kv.Get([]byte(key))
	if err != nil {
		if errors.Is(err, ErrNotFound) || !c.hasKeyLocked(key) {
			return nil, false, nil
		}
		return nil, false, err
	}
	v, err := unmarshalJSON[T](data)
	if err != nil {
		return nil, false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return v, true, nil
}

// scan returns the keys and decoded values under prefix. Undecodable
// records are skipped.
func scan[T any](c *Client, prefix string) ([]string, []T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, nil, err
	}

	var (
		outKeys []string
		values  []T
	)
	prefixBytes := []byte(prefix)
	for _, key := range keys {
		if !bytes.HasPrefix(key, prefixBytes) {
			continue
		}
		data, err := c.kv.Get(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		v, err := unmarshalJSON[T](data)
		if err != nil {
			continue
		}
		outKeys = append(outKeys, string(key))
		values = append(values, *v)
	}
	return outKeys, values, nil
}

// hasKeyLocked reports whether key exists; the caller holds mu. Charm's
// Get does not expose a stable missing-key error, so existence is checked
// against the key listing.
func (c *Client) hasKeyLocked(key string) bool {
	keys, err := c.kv.Keys()
	if err != nil {
		return true
	}
	for _, k := range keys {
		if string(k) == key {
			return true
		}
	}
	return false
}

// requireUser rejects missing user IDs and IDs that would break key layout.
func requireUser(userID string) error {
	if userID == "" {
		return recordstore.Unauthenticated()
	}
	if strings.ContainsAny(userID, ":/") {
		return recordstore.Errorf(http.StatusBadRequest, "invalid user id %q", userID)
	}
	return nil
}

func unmarshalJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func routineKey(userID, id string) string  { return RoutinePrefix + userID + ":" + id }
func exerciseKey(userID, id string) string { return ExercisePrefix + userID + ":" + id }
func photoKey(path string) string          { return PhotoPrefix + path }
