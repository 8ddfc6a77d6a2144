// Package store はストア実装に共通するエラーを定義する
package store

import "errors"

// ErrUnavailable はストアへの一時的な接続障害を表す
// 上限付きリトライの対象となる唯一のエラー
var ErrUnavailable = errors.New("ストアに接続できません")
