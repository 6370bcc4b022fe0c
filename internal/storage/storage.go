// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides the app-data blob storage used for uploaded
// theming images and compiled stylesheets. Blobs are addressed by a folder
// and a name; backends exist for the local filesystem, S3-compatible object
// storage (AWS SDK), MinIO and memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the blob does not exist.
var ErrNotFound = errors.New("storage: blob not found")

// Store is a flat folder/name blob store. Put overwrites in place; blobs
// are never deleted through it.
type Store interface {
	Get(ctx context.Context, folder, name string) ([]byte, error)
	Put(ctx context.Context, folder, name string, data []byte) error
	Exists(ctx context.Context, folder, name string) (bool, error)
}

// ObjectKey joins folder and name into a slash-separated key after
// rejecting empty or traversing segments.
func ObjectKey(folder, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: empty blob name")
	}
	parts := strings.Split(folder, "/")
	parts = append(parts, name)
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsRune(p, '\\') {
			return "", fmt.Errorf("storage: invalid path %q/%q", folder, name)
		}
	}
	return strings.Join(parts, "/"), nil
}
