package event

import (
	"context"
	"time"
)

// Query はストアに委譲する絞り込み条件
type Query struct {
	SportCategory string
	City          string
	CreatedByUID  string
}

// MutateFunc は最新のイベントに変更を適用する
// changed=false の場合ストアは書き込みを行わない
type MutateFunc func(e *Event) (changed bool, err error)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成し、ID とタイムスタンプを設定する
	Create(ctx context.Context, e *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// List は条件に一致するイベントを開催日時の昇順で取得する
	List(ctx context.Context, q Query) ([]*Event, error)

	// Mutate は読み取り・変更・書き込みを1つのアトミックな操作として実行する
	Mutate(ctx context.Context, id string, fn MutateFunc) (*Event, error)

	// Delete はイベントを削除する
	Delete(ctx context.Context, id string) error

	// CountUpcoming は指定時刻以降に開催されるイベント数を取得する
	CountUpcoming(ctx context.Context, from time.Time) (int, error)
}
