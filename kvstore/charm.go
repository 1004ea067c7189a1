// ABOUTME: Charm KV backend so reminder markers and sync tokens follow the user across machines
// ABOUTME: The charm host is set through CHARM_HOST before the database is opened
package kvstore

import (
	"fmt"
	"os"

	"github.com/charmbracelet/charm/kv"
)

// CharmDBName names the charm/kv database holding leadgen's keys.
const CharmDBName = "leadgen"

type CharmOptions struct {
	Host     string
	AutoSync bool
}

// OpenCharm opens the charm-backed store and pulls remote changes once. A failed initial
// sync is not fatal: the local copy keeps working offline.
func OpenCharm(opts CharmOptions) (*Store, error) {
	if opts.Host != "" {
		if err := os.Setenv("CHARM_HOST", opts.Host); err != nil {
			return nil, fmt.Errorf("failed to set charm host: %w", err)
		}
	}

	db, err := kv.OpenWithDefaults(CharmDBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	s := &Store{kv: charmKV{db: db}, autoSync: opts.AutoSync}
	if opts.AutoSync {
		_ = db.Sync()
	}
	return s, nil
}

type charmKV struct {
	db *kv.KV
}

func (c charmKV) Get(key []byte) ([]byte, error) { return c.db.Get(key) }
func (c charmKV) Set(key, value []byte) error { return c.db.Set(key, value) }
func (c charmKV) Delete(key []byte) error { return c.db.Delete(key) }
func (c charmKV) Keys() ([][]byte, error) { return c.db.Keys() }
func (c charmKV) Sync() error { return c.db.Sync() }

// Close is a no-op: charm/kv releases its Badger files when the process exits.
func (c charmKV) Close() error { return nil }
