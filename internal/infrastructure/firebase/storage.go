package firebase

import (
	"context"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

// BlobStore はFirebase Storage（Cloud Storage）にオブジェクトを保存する
type BlobStore struct {
	bucket *gcs.BucketHandle
	name   string
}

// NewBlobStore はデフォルトバケットを使うBlobStoreを作成する
func NewBlobStore(ctx context.Context, app *firebase.App) (*BlobStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("Storageクライアントの作成に失敗しました: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("デフォルトバケットの取得に失敗しました: %w", err)
	}
	return &BlobStore{bucket: bucket, name: bucket.BucketName()}, nil
}

// Upload はオブジェクトを書き込み、ダウンロードURLを返す
func (s *BlobStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		// キャンセルすると書き込み途中のオブジェクトは破棄される
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("アップロードに失敗しました: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("アップロードの完了に失敗しました: %w", err)
	}
	return downloadURL(s.name, key), nil
}

func downloadURL(bucket, key string) string {
	return "https://firebasestorage.googleapis.com/v0/b/" + bucket + "/o/" + url.PathEscape(key) + "?alt=media"
}
