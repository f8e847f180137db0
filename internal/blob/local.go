package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

// LocalStore keeps objects on the local filesystem under a base
// directory and serves them from a static file route.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	clean, err := s.safePath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", models.NewUploadError(err)
	}
	if err := os.WriteFile(clean, data, 0o644); err != nil {
		return "", models.NewUploadError(err)
	}
	return s.PublicURL(key), nil
}

func (s *LocalStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// safePath resolves a key inside the base directory, rejecting keys
// that would escape it.
func (s *LocalStore) safePath(key string) (string, error) {
	clean := filepath.Join(s.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(clean, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return "", models.NewValidationError("invalid object key")
	}
	return clean, nil
}

// Dir exposes the base directory so the server can mount a static
// route over it.
func (s *LocalStore) Dir() string {
	return s.dir
}
