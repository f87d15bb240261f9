package memory

import (
	"context"
	"fmt"
	"sync"
)

// Blob is a stored object.
type Blob struct {
	ContentType string
	Data        []byte
}

// Blobs implements store.BlobRepo in memory. References have the form
// mem://<key>.
type Blobs struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewBlobs() *Blobs {
	return &Blobs{blobs: make(map[string]Blob)}
}

func (b *Blobs) PutBlob(ctx context.Context, key, contentType string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.blobs[key]; exists {
		return "", fmt.Errorf("blob %s already exists", key)
	}
	b.blobs[key] = Blob{ContentType: contentType, Data: append([]byte(nil), data...)}
	return "mem://" + key, nil
}

// Get returns the blob stored under key.
func (b *Blobs) Get(key string) (Blob, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	blob, ok := b.blobs[key]
	return blob, ok
}

// Len returns the number of stored blobs.
func (b *Blobs) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
