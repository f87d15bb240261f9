// Package localfs stores blobs as files under a directory and serves them
// back over HTTP.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrBlobExists = errors.New("blob already exists")

type Blobs struct {
	dir     string
	baseURL string
}

// New stores files under dir and returns references of the form
// baseURL/media/<key>.
func New(dir, baseURL string) (*Blobs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Blobs{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (b *Blobs) PutBlob(ctx context.Context, key, contentType string, data []byte) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	full := filepath.Join(b.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", key, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%s: %w", key, ErrBlobExists)
	}
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	return b.baseURL + "/media" + clean, nil
}

// Handler serves stored blobs. Mount it under /media/.
func (b *Blobs) Handler() http.Handler {
	return http.StripPrefix("/media/", http.FileServer(http.Dir(b.dir)))
}
