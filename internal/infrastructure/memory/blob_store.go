package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// BlobStore はプロフィール写真用のインメモリ保存先
type BlobStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

// NewBlobStore はBlobStoreを作成する
func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{baseURL: baseURL, objects: make(map[string][]byte)}
}

// Upload はオブジェクトを保存し公開URLを返す
func (s *BlobStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = buf.Bytes()
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

// Object は保存済みオブジェクトを返す
func (s *BlobStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return b, ok
}
