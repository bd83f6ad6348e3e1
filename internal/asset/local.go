package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes assets below a directory and serves them from baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("asset: create dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory, for mounting a file server.
func (s *LocalStore) Dir() string { return s.dir }

// Missing reports whether contentURL is served by this store but has no file
// behind it. URLs outside the store's prefix are never missing.
func (s *LocalStore) Missing(contentURL string) bool {
	p := contentURL
	if u, err := url.Parse(contentURL); err == nil {
		p = u.Path
	}
	prefix := RoutePrefix(s.baseURL)
	rel, ok := strings.CutPrefix(p, strings.TrimRight(prefix, "/")+"/")
	if !ok {
		return false
	}
	clean, err := cleanPath(rel)
	if err != nil {
		return true
	}
	_, err = os.Stat(filepath.Join(s.dir, clean))
	return err != nil
}

func cleanPath(objectPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(objectPath))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("asset: invalid path %q", objectPath)
	}
	return clean, nil
}

// Put writes body to dir/objectPath. The path must stay inside dir.
func (s *LocalStore) Put(ctx context.Context, objectPath string, body io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("asset: create dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("asset: create file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("asset: write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("asset: close file: %w", err)
	}
	return s.baseURL + "/" + filepath.ToSlash(clean), nil
}

// Delete removes dir/objectPath.
func (s *LocalStore) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("asset: remove file: %w", err)
	}
	return nil
}
