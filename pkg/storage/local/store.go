package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilmehra/campustrade-backend/pkg/config"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

// Store persists uploaded images (payment screenshots, avatars, listing
// photos) on local disk and hands back URL paths. All payment happens
// off-platform, so a screenshot path string is the only artifact the core
// ever consumes.
type Store struct {
	dir      string
	maxBytes int64
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New prepares the uploads directory and returns a disk-backed store.
func New(cfg config.UploadsConfig, logg *logger.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("uploads dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	maxBytes := int64(cfg.MaxUploadMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &Store{dir: cfg.Dir, maxBytes: maxBytes}, nil
}

// MaxBytes returns the configured upload size cap.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save writes the uploaded bytes under a random name and returns the URL path
// clients use to fetch it back.
func (s *Store) Save(ctx context.Context, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("upload is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("upload exceeds %d bytes", s.maxBytes)
	}

	name, err := randomName()
	if err != nil {
		return "", err
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext != "" {
		name = name + "." + ext
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return "/uploads/" + name, nil
}

// Open returns the on-disk path for a previously saved upload URL path.
func (s *Store) Open(urlPath string) (string, error) {
	name := strings.TrimPrefix(urlPath, "/uploads/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", errors.New("invalid upload path")
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat upload: %w", err)
	}
	return path, nil
}

// Ping verifies the uploads directory is still writable.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("uploads path %q is not a directory", s.dir)
	}
	return nil
}

func randomName() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating upload name: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
