// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache_log.go records theming cache-buster bumps in the database for
// audit and debugging purposes. Each entry captures which setting changed,
// how (set/revert), and the cache-buster generation it produced.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const cacheLogTable = "theming_cache_log"

// CacheLogStore handles cache invalidation log operations.
type CacheLogStore struct {
	db Querier
}

// NewCacheLogStore creates a new CacheLogStore.
func NewCacheLogStore(db Querier) *CacheLogStore {
	return &CacheLogStore{db: db}
}

// Log records a cache invalidation event. Failures are logged, never returned.
func (s *CacheLogStore) Log(ctx context.Context, setting, action string, cacheBuster int64) {
	query, args, err := psql.Insert(cacheLogTable).
		Columns("setting", "action", "cachebuster").
		Values(setting, action, cacheBuster).
		ToSql()
	if err == nil {
		_, err = s.db.Exec(ctx, query, args...)
	}
	if err != nil {
		// Log but don't fail the caller.
		slog.Warn("failed to log cache invalidation",
			"setting", setting,
			"action", action,
			"cachebuster", cacheBuster,
			"error", err,
		)
		return
	}
	slog.Debug("cache invalidation logged",
		"setting", setting,
		"action", action,
		"cachebuster", cacheBuster,
	)
}

// RecentEntries returns the most recent cache invalidation events for
// debugging. Limited to the specified count.
func (s *CacheLogStore) RecentEntries(ctx context.Context, limit int) ([]CacheLogEntry, error) {
	query, args, err := psql.Select("id", "setting", "action", "cachebuster", "invalidated_at").
		From(cacheLogTable).
		OrderBy("invalidated_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build cache log query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cache log: %w", err)
	}
	defer rows.Close()

	var entries []CacheLogEntry
	for rows.Next() {
		var e CacheLogEntry
		if err := rows.Scan(&e.ID, &e.Setting, &e.Action, &e.CacheBuster, &e.InvalidatedAt); err != nil {
			return nil, fmt.Errorf("scan cache log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CacheLogEntry represents a single cache invalidation event.
type CacheLogEntry struct {
	ID            int64     `json:"id"`
	Setting       string    `json:"setting"`
	Action        string    `json:"action"`
	CacheBuster   int64     `json:"cache_buster"`
	InvalidatedAt time.Time `json:"invalidated_at"`
}
