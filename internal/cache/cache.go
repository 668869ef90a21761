// Package cache persists upstream lookup responses keyed by their normalized
// query arguments. Entries never expire and are written at most once per key;
// operators clear the store externally.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// Cache stores opaque JSON values by Key.
type Cache interface {
	// Get returns the stored value and true on a hit. Corrupt or unreadable
	// entries are reported as misses.
	Get(ctx context.Context, key Key) (json.RawMessage, bool, error)

	// Set stores value under key unless an entry already exists.
	Set(ctx context.Context, key Key, value json.RawMessage) error
}

// Key identifies a cache entry. Hash is the fixed-length identifier derived
// from the namespace and normalized arguments.
type Key struct {
	Namespace string
	Hash      string
}

func (k Key) String() string {
	return k.Namespace + ":" + k.Hash
}

// NewKey normalizes every argument (case fold, trim, collapse whitespace) and
// hashes them together with the namespace.
func NewKey(namespace string, args ...string) Key {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, namespace)
	for _, a := range args {
		parts = append(parts, Normalize(a))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return Key{Namespace: namespace, Hash: hex.EncodeToString(sum[:])}
}

// Normalize case-folds s and collapses all whitespace runs to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// Nop is a Cache that never hits and discards writes.
type Nop struct{}

func (Nop) Get(context.Context, Key) (json.RawMessage, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, Key, json.RawMessage) error { return nil }
