// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements persistence for app-scoped configuration values
// and the theming cache invalidation log.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"cloudtheme/internal/models"
)

// Querier is the subset of pgxpool.Pool used by the stores. It is also
// satisfied by pgxmock pools in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// psql builds statements with PostgreSQL $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const appConfigTable = "app_config"

// AppConfigStore manages app-scoped key/value configuration in PostgreSQL.
type AppConfigStore struct {
	db  Querier
	now func() time.Time
}

// NewAppConfigStore returns a new AppConfigStore backed by the given pool.
func NewAppConfigStore(db Querier) *AppConfigStore {
	return &AppConfigStore{db: db, now: time.Now}
}

// GetAppValue returns the stored value for app/key. The boolean is false
// when no value is stored.
func (s *AppConfigStore) GetAppValue(ctx context.Context, app, key string) (string, bool, error) {
	query, args, err := psql.Select("configvalue").
		From(appConfigTable).
		Where(sq.Eq{"appid": app, "configkey": key}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build get app value: %w", err)
	}

	var val string
	err = s.db.QueryRow(ctx, query, args...).Scan(&val)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get app value %s/%s: %w", app, key, err)
	}
	return val, true, nil
}

// SetAppValue upserts a single value.
func (s *AppConfigStore) SetAppValue(ctx context.Context, app, key, value string) error {
	query, args, err := psql.Insert(appConfigTable).
		Columns("appid", "configkey", "configvalue", "updated_at").
		Values(app, key, value, s.now()).
		Suffix("ON CONFLICT (appid, configkey) DO UPDATE SET configvalue = EXCLUDED.configvalue, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build set app value: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("set app value %s/%s: %w", app, key, err)
	}
	return nil
}

// DeleteAppValue removes a stored value. Deleting a missing key is not an error.
func (s *AppConfigStore) DeleteAppValue(ctx context.Context, app, key string) error {
	query, args, err := psql.Delete(appConfigTable).
		Where(sq.Eq{"appid": app, "configkey": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete app value: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete app value %s/%s: %w", app, key, err)
	}
	return nil
}

// IncrementAppValue adds one to an integer value in a single statement and
// returns the new value. A missing or non-numeric value counts as zero.
func (s *AppConfigStore) IncrementAppValue(ctx context.Context, app, key string) (int64, error) {
	query, args, err := psql.Insert(appConfigTable).
		Columns("appid", "configkey", "configvalue", "updated_at").
		Values(app, key, "1", s.now()).
		Suffix(`ON CONFLICT (appid, configkey) DO UPDATE SET
			configvalue = (CASE WHEN app_config.configvalue ~ '^[0-9]+$'
				THEN app_config.configvalue::bigint + 1 ELSE 1 END)::text,
			updated_at = EXCLUDED.updated_at
		RETURNING configvalue`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build increment app value: %w", err)
	}

	var raw string
	if err := s.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return 0, fmt.Errorf("increment app value %s/%s: %w", app, key, err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("increment app value %s/%s: parse %q: %w", app, key, raw, err)
	}
	return n, nil
}

// AppValues returns every value stored for app as a convenience map.
func (s *AppConfigStore) AppValues(ctx context.Context, app string) (models.AppSettings, error) {
	query, args, err := psql.Select("configkey", "configvalue").
		From(appConfigTable).
		Where(sq.Eq{"appid": app}).
		OrderBy("configkey").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build app values: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list app values %s: %w", app, err)
	}
	defer rows.Close()

	settings := make(models.AppSettings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan app value: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}
