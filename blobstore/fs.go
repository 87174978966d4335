package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	privateMode fs.FileMode = 0o600
	publicMode  fs.FileMode = 0o644
)

// FS keeps blobs under a directory. World-readable files are public.
type FS struct {
	root    string
	baseURL string
}

func NewFS(root, baseURL string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FS{root: root, baseURL: baseURL}, nil
}

func (s *FS) resolve(p string) (string, string, error) {
	clean, err := Clean(p)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *FS) Upload(ctx context.Context, p string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(full, data, privateMode); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(full, privateMode)
}

func (s *FS) MakePublic(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Chmod(full, publicMode); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("make blob public: %w", err)
	}
	return nil
}

func (s *FS) PublicURL(p string) string {
	clean, err := Clean(p)
	if err != nil {
		return ""
	}
	return publicURL(s.baseURL, clean)
}

func (s *FS) Open(ctx context.Context, p string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	clean, full, err := s.resolve(p)
	if err != nil {
		return Object{}, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("stat blob: %w", err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return Object{}, fmt.Errorf("read blob: %w", err)
	}
	return Object{
		Path:        clean,
		ContentType: contentTypeFor(clean, ""),
		Data:        data,
		Public:      info.Mode().Perm()&0o004 != 0,
	}, nil
}
