package firestore

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Blobs stores audio in a Firebase Storage bucket.
type Blobs struct {
	bucket *storage.BucketHandle
	name   string
}

func NewBlobs(bucket *storage.BucketHandle) *Blobs {
	return &Blobs{bucket: bucket, name: bucket.BucketName()}
}

// PutBlob writes a new object and returns its tokenized download URL.
// Existing objects are never overwritten.
func (b *Blobs) PutBlob(ctx context.Context, key, contentType string, data []byte) (string, error) {
	token := uuid.NewString()

	obj := b.bucket.Object(key).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", key, err)
	}
	return downloadURL(b.name, key, token), nil
}

func downloadURL(bucket, key, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(key), token)
}
