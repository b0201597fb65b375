// Package blobstore defines where exported inventory artefacts are written.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("blob not found")

type Store interface {
	// Put writes r under key, replacing any existing object.
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}
