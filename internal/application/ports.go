package application

import (
	"context"
	"io"

	"github.com/sanosuguru/sportup/internal/domain/event"
)

// EventLocker はイベント単位の参加・離脱をインスタンス間で直列化する
type EventLocker interface {
	LockEvent(ctx context.Context, eventID string) (release func(context.Context) error, err error)
}

// ListingCache はイベント一覧のスナップショットを世代番号付きでキャッシュする
// 書き込み後に Invalidate で世代を進める
type ListingCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation int64, key string) ([]*event.Event, bool, error)
	Set(ctx context.Context, generation int64, key string, events []*event.Event) error
	Invalidate(ctx context.Context) error
}

// BlobStore はプロフィール写真の保存先
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (publicURL string, err error)
}

// ContentGenerator は生成AIにプロンプトを送りJSONの応答を得る
type ContentGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, out any) error
}
