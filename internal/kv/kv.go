// Package kv is the key-value store behind the get, set, del and keys
// builtins. Keys are hierarchical paths (e.g. ["var", "leader"]) encoded
// with a separator byte, ':' by default.
//
// Badger is the on-disk implementation; Memory is used in tests and when no
// store directory is configured.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical path represented as a slice of string segments.
type Key []string

// String returns the key joined with ':'. It is for display only.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry is a key-value pair returned by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates lexicographically over all entries under prefix.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Close releases any resources held by the store.
	Close() error
}

// DefaultSeparator is the byte used to encode key segments.
const DefaultSeparator byte = ':'

// Options configures store behavior. A nil *Options uses the defaults.
type Options struct {
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

func (o *Options) encode(k Key) []byte {
	return []byte(strings.Join(k, string(o.sep())))
}

func (o *Options) decode(b []byte) Key {
	return Key(strings.Split(string(b), string(o.sep())))
}

// prefixBytes returns the encoded prefix with a trailing separator so that
// "a:b" does not match "a:bc". An empty prefix matches everything.
func (o *Options) prefixBytes(prefix Key) []byte {
	if len(prefix) == 0 {
		return nil
	}
	return append(o.encode(prefix), o.sep())
}
