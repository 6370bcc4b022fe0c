package store

import (
	"context"
	"strconv"
	"sync"

	"cloudtheme/internal/models"
)

// MemoryAppConfig is a process-local AppConfigStore replacement. It backs
// tests and single-node development runs without PostgreSQL.
type MemoryAppConfig struct {
	mu     sync.RWMutex
	values map[string]models.AppSettings
}

// NewMemoryAppConfig creates an empty in-memory config store.
func NewMemoryAppConfig() *MemoryAppConfig {
	return &MemoryAppConfig{values: make(map[string]models.AppSettings)}
}

// GetAppValue returns the stored value for app/key.
func (m *MemoryAppConfig) GetAppValue(_ context.Context, app, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[app][key]
	return v, ok, nil
}

// SetAppValue stores a value, replacing any previous one.
func (m *MemoryAppConfig) SetAppValue(_ context.Context, app, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucket(app)[key] = value
	return nil
}

// DeleteAppValue removes a value if present.
func (m *MemoryAppConfig) DeleteAppValue(_ context.Context, app, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values[app], key)
	return nil
}

// IncrementAppValue adds one to an integer value under the write lock.
func (m *MemoryAppConfig) IncrementAppValue(_ context.Context, app, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bucket(app)
	n, err := strconv.ParseInt(b[key], 10, 64)
	if err != nil || n < 0 {
		n = 0
	}
	n++
	b[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// AppValues returns a copy of every value stored for app.
func (m *MemoryAppConfig) AppValues(_ context.Context, app string) (models.AppSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(models.AppSettings, len(m.values[app]))
	for k, v := range m.values[app] {
		out[k] = v
	}
	return out, nil
}

// bucket returns the map for app, creating it. Callers hold the write lock.
func (m *MemoryAppConfig) bucket(app string) models.AppSettings {
	b, ok := m.values[app]
	if !ok {
		b = make(models.AppSettings)
		m.values[app] = b
	}
	return b
}
