package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*AppConfigStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	s := NewAppConfigStore(mock)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s, mock
}

func TestAppConfigStore_GetAppValue(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(mock pgxmock.PgxPoolIface)
		wantValue string
		wantFound bool
		wantErr   bool
	}{
		{
			name: "stored value",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT configvalue FROM app_config WHERE appid = \$1 AND configkey = \$2`).
					WithArgs("theming", "color").
					WillReturnRows(pgxmock.NewRows([]string{"configvalue"}).AddRow("#ABC"))
			},
			wantValue: "#ABC",
			wantFound: true,
		},
		{
			name: "stored empty string is still found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT configvalue FROM app_config`).
					WithArgs("theming", "color").
					WillReturnRows(pgxmock.NewRows([]string{"configvalue"}).AddRow(""))
			},
			wantValue: "",
			wantFound: true,
		},
		{
			name: "missing key",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT configvalue FROM app_config`).
					WithArgs("theming", "color").
					WillReturnError(pgx.ErrNoRows)
			},
			wantFound: false,
		},
		{
			name: "database failure propagates",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT configvalue FROM app_config`).
					WithArgs("theming", "color").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.setup(mock)

			got, found, err := s.GetAppValue(context.Background(), "theming", "color")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantValue, got)
		})
	}
}

func TestAppConfigStore_SetAppValue(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO app_config .* ON CONFLICT \(appid, configkey\) DO UPDATE SET configvalue = EXCLUDED.configvalue`).
		WithArgs("theming", "name", "Acme", s.now()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SetAppValue(context.Background(), "theming", "name", "Acme"))
}

func TestAppConfigStore_SetAppValueError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO app_config`).
		WithArgs("theming", "name", "Acme", pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))

	err := s.SetAppValue(context.Background(), "theming", "name", "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theming/name")
}

func TestAppConfigStore_DeleteAppValue(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM app_config WHERE appid = \$1 AND configkey = \$2`).
		WithArgs("theming", "slogan").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteAppValue(context.Background(), "theming", "slogan"))
}

func TestAppConfigStore_IncrementAppValue(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`(?s)INSERT INTO app_config .* RETURNING configvalue`).
		WithArgs("theming", "cachebuster", "1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"configvalue"}).AddRow("7"))

	n, err := s.IncrementAppValue(context.Background(), "theming", "cachebuster")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestAppConfigStore_AppValues(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT configkey, configvalue FROM app_config WHERE appid = \$1 ORDER BY configkey`).
		WithArgs("theming").
		WillReturnRows(pgxmock.NewRows([]string{"configkey", "configvalue"}).
			AddRow("cachebuster", "3").
			AddRow("color", "#112233"))

	got, err := s.AppValues(context.Background(), "theming")
	require.NoError(t, err)
	assert.Equal(t, "3", got["cachebuster"])
	assert.Equal(t, "#112233", got.Get("color", "#000"))
	assert.Equal(t, "fallback", got.Get("name", "fallback"))
}

func TestMemoryAppConfig(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAppConfig()

	_, found, err := m.GetAppValue(ctx, "theming", "name")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.SetAppValue(ctx, "theming", "name", "Acme"))
	v, found, _ := m.GetAppValue(ctx, "theming", "name")
	assert.True(t, found)
	assert.Equal(t, "Acme", v)

	// Other apps are isolated.
	_, found, _ = m.GetAppValue(ctx, "files", "name")
	assert.False(t, found)

	require.NoError(t, m.DeleteAppValue(ctx, "theming", "name"))
	_, found, _ = m.GetAppValue(ctx, "theming", "name")
	assert.False(t, found)

	for want := int64(1); want <= 3; want++ {
		n, err := m.IncrementAppValue(ctx, "theming", "cachebuster")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	require.NoError(t, m.SetAppValue(ctx, "theming", "broken", "abc"))
	n, _ := m.IncrementAppValue(ctx, "theming", "broken")
	assert.Equal(t, int64(1), n, "non-numeric values restart at one")

	all, err := m.AppValues(ctx, "theming")
	require.NoError(t, err)
	assert.Equal(t, "3", all["cachebuster"])
	all["cachebuster"] = "mutated"
	v, _, _ = m.GetAppValue(ctx, "theming", "cachebuster")
	assert.Equal(t, "3", v, "AppValues must return a copy")
}
