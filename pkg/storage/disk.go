// Package storage is the filesystem abstraction behind the import archive.
//
// Two drivers are available:
//   - "local" local filesystem (default)
//   - "s3"    S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Boot once:
//
//	disk, err := storage.Open(ctx, config.StorageDefault())
//	_ = disk.Put(ctx, "imports/2024-01-01T000000Z-stock.xlsx", data)
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shashiranjanraj/medstore/config"
)

// ErrNotExist is returned by Get when path is absent.
var ErrNotExist = errors.New("storage: file does not exist")

// File describes a stored object.
type File struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url,omitempty"`
}

// Disk is the filesystem driver interface. Paths are slash separated and
// relative to the disk root.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte) error

	// PutStream writes from r to path.
	PutStream(ctx context.Context, path string, r io.Reader) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// Files lists the files directly inside directory, newest first.
	Files(ctx context.Context, directory string) ([]File, error)

	// URL returns the public URL for path.
	URL(path string) string
}

// Open builds the named disk from configuration.
func Open(ctx context.Context, name string) (Disk, error) {
	switch name {
	case "", "local":
		return NewLocal(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unknown disk %q (supported: local, s3)", name)
	}
}
