package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbonduro/propinv/internal/blobstore"
)

// Store writes objects as files under a base directory. Keys may contain
// slashes, which become subdirectories.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial object.
	f, err := os.CreateTemp(filepath.Dir(filePath), ".put-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(tmp); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(tmp); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%s: %w", key, blobstore.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, extToContentType(filePath), nil
}

// safeJoin resolves key relative to basePath and rejects directory traversal.
func (s *Store) safeJoin(key string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}

func extToContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
