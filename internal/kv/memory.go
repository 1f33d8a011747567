package kv

import (
	"bytes"
	"context"
	"iter"
	"sort"
	"sync"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	opts *Options
}

// NewMemory creates an empty in-memory Store. Pass nil for default options.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		data: make(map[string][]byte),
		opts: opts,
	}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.data[string(m.opts.encode(key))]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	k := string(m.opts.encode(key))
	m.mu.Lock()
	m.data[k] = bytes.Clone(value)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.data, string(m.opts.encode(key)))
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	p := m.opts.prefixBytes(prefix)

	// Snapshot matching keys under read lock.
	m.mu.RLock()
	var matches []Entry
	var keys []string
	for k, v := range m.data {
		if bytes.HasPrefix([]byte(k), p) {
			keys = append(keys, k)
			matches = append(matches, Entry{Value: bytes.Clone(v)})
		}
	}
	m.mu.RUnlock()

	for i := range matches {
		matches[i].Key = m.opts.decode([]byte(keys[i]))
	}
	sort.Slice(matches, func(i, j int) bool {
		return string(m.opts.encode(matches[i].Key)) < string(m.opts.encode(matches[j].Key))
	})

	return func(yield func(Entry, error) bool) {
		for _, e := range matches {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (m *Memory) Close() error {
	return nil
}
