package review

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"firebase.google.com/go/v4/storage"
)

// FirebaseImageStore writes review images to a Firebase Storage bucket.
type FirebaseImageStore struct {
	client *storage.Client
	bucket string
}

var _ ImageStore = (*FirebaseImageStore)(nil)

func NewFirebaseImageStore(client *storage.Client, bucket string) *FirebaseImageStore {
	return &FirebaseImageStore{client: client, bucket: bucket}
}

func (s *FirebaseImageStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	b, err := s.client.Bucket(s.bucket)
	if err != nil {
		return "", fmt.Errorf("review.FirebaseImageStore.Put bucket: %w", err)
	}
	w := b.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("review.FirebaseImageStore.Put write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("review.FirebaseImageStore.Put close: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, (&url.URL{Path: key}).EscapedPath()), nil
}
