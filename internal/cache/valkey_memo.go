// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// valkey_memo.go provides a Valkey-backed Memo so derived values are shared
// by every server process behind the load balancer.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// memoKeyPrefix is the Valkey key prefix for memoized values.
	memoKeyPrefix = "memo:"

	// DefaultMemoTTL bounds how long a memoized value lives without invalidation.
	DefaultMemoTTL = 24 * time.Hour
)

// ValkeyMemo stores memoized values in Valkey under memo:<namespace>:<key>.
type ValkeyMemo struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewValkeyMemo creates a memo backed by the given Valkey client.
func NewValkeyMemo(client *redis.Client, namespace string, ttl time.Duration) *ValkeyMemo {
	if ttl == 0 {
		ttl = DefaultMemoTTL
	}
	return &ValkeyMemo{client: client, namespace: namespace, ttl: ttl}
}

// Namespace implements Memo.
func (m *ValkeyMemo) Namespace() string { return m.namespace }

func (m *ValkeyMemo) key(k string) string {
	return memoKeyPrefix + m.namespace + ":" + k
}

// Get implements Memo.
func (m *ValkeyMemo) Get(ctx context.Context, key string, dst any) bool {
	raw, err := m.client.Get(ctx, m.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("memo get error", "key", m.key(key), "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn("memo decode error", "key", m.key(key), "error", err)
		return false
	}
	slog.Debug("memo hit", "key", m.key(key))
	return true
}

// Set implements Memo.
func (m *ValkeyMemo) Set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("memo encode error", "key", m.key(key), "error", err)
		return
	}
	if err := m.client.Set(ctx, m.key(key), raw, m.ttl).Err(); err != nil {
		slog.Warn("memo set error", "key", m.key(key), "error", err)
	}
}

// Invalidate implements Memo.
func (m *ValkeyMemo) Invalidate(ctx context.Context, key string) {
	if err := m.client.Del(ctx, m.key(key)).Err(); err != nil {
		slog.Warn("memo invalidate error", "key", m.key(key), "error", err)
		return
	}
	slog.Debug("memo invalidated", "key", m.key(key))
}

// Clear removes every key in the namespace by scanning for the prefix.
func (m *ValkeyMemo) Clear(ctx context.Context) {
	var cursor uint64
	var deleted int
	pattern := memoKeyPrefix + m.namespace + ":*"
	for {
		keys, nextCursor, err := m.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("memo scan error", "namespace", m.namespace, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := m.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("memo bulk delete error", "namespace", m.namespace, "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("memo namespace cleared", "namespace", m.namespace, "deleted", deleted)
	}
}
