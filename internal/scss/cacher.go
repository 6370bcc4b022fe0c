// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scss

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"cloudtheme/internal/storage"
)

// Cacher compiles one stylesheet source into <folder>/<partition>/<file>.
// An artifact that already exists for a partition is never rebuilt, so a
// new partition key is the only way to force recompilation.
type Cacher struct {
	blobs  storage.Store
	source string
	folder string
	file   string
}

// NewCacher creates a cacher writing compiled CSS for source to blobs.
func NewCacher(blobs storage.Store, source, folder, file string) *Cacher {
	return &Cacher{blobs: blobs, source: source, folder: folder, file: file}
}

func (c *Cacher) partitionFolder(partition string) string {
	return path.Join(c.folder, partition)
}

// Process compiles the source with vars unless the partition's artifact
// already exists.
func (c *Cacher) Process(ctx context.Context, partition string, vars map[string]string) error {
	folder := c.partitionFolder(partition)
	exists, err := c.blobs.Exists(ctx, folder, c.file)
	if err != nil {
		return fmt.Errorf("check compiled stylesheet: %w", err)
	}
	if exists {
		return nil
	}

	css, err := Compile(c.source, vars)
	if err != nil {
		return err
	}
	if err := c.blobs.Put(ctx, folder, c.file, []byte(css)); err != nil {
		return fmt.Errorf("store compiled stylesheet: %w", err)
	}
	slog.Info("stylesheet compiled", "folder", folder, "file", c.file, "bytes", len(css))
	return nil
}

// Artifact returns the compiled CSS of a partition, or storage.ErrNotFound.
func (c *Cacher) Artifact(ctx context.Context, partition string) ([]byte, error) {
	return c.blobs.Get(ctx, c.partitionFolder(partition), c.file)
}
