// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores blobs as files below a root directory.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed and returns a Local store.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

func (l *Local) path(folder, name string) (string, error) {
	key, err := ObjectKey(folder, name)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

// Get reads a blob from disk.
func (l *Local) Get(_ context.Context, folder, name string) ([]byte, error) {
	p, err := l.path(folder, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", folder, name, err)
	}
	return data, nil
}

// Put writes the blob through a temporary file and renames it into place so
// readers never observe a partial write.
func (l *Local) Put(_ context.Context, folder, name string, data []byte) error {
	p, err := l.path(folder, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", folder, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s/%s: %w", folder, name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s/%s: %w", folder, name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s/%s: %w", folder, name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename %s/%s: %w", folder, name, err)
	}
	return nil
}

// Exists reports whether the blob file is present.
func (l *Local) Exists(_ context.Context, folder, name string) (bool, error) {
	p, err := l.path(folder, name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s/%s: %w", folder, name, err)
	}
	return true, nil
}
