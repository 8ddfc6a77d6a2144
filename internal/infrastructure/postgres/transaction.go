package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// withTx は関数をトランザクション内で実行する
// fn がエラーを返した場合やパニックした場合はロールバックする
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr("トランザクション開始に失敗しました", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("コミットに失敗しました", err)
	}
	return nil
}
