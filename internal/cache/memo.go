// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Memo is a namespaced cache for derived values. Values are JSON-encoded so
// every implementation can be shared across processes. Cache failures are
// never fatal: a failing Get is a miss, a failing Set is dropped.
type Memo interface {
	// Namespace returns the prefix isolating this memo's keys.
	Namespace() string
	// Get decodes the cached value for key into dst and reports a hit.
	Get(ctx context.Context, key string, dst any) bool
	// Set stores v under key.
	Set(ctx context.Context, key string, v any)
	// Invalidate removes a single key.
	Invalidate(ctx context.Context, key string)
	// Clear removes every key in the namespace.
	Clear(ctx context.Context)
}

// MemoryMemo is a concurrency-safe in-process Memo.
type MemoryMemo struct {
	namespace string

	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryMemo creates an empty in-process memo.
func NewMemoryMemo(namespace string) *MemoryMemo {
	return &MemoryMemo{
		namespace: namespace,
		entries:   make(map[string][]byte),
	}
}

// Namespace implements Memo.
func (m *MemoryMemo) Namespace() string { return m.namespace }

// Get implements Memo.
func (m *MemoryMemo) Get(_ context.Context, key string, dst any) bool {
	m.mu.RLock()
	raw, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn("memo decode error", "namespace", m.namespace, "key", key, "error", err)
		return false
	}
	return true
}

// Set implements Memo.
func (m *MemoryMemo) Set(_ context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("memo encode error", "namespace", m.namespace, "key", key, "error", err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
}

// Invalidate implements Memo.
func (m *MemoryMemo) Invalidate(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	slog.Debug("memo invalidated", "namespace", m.namespace, "key", key)
}

// Clear implements Memo.
func (m *MemoryMemo) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
}
