package profile

import "errors"

// Profile ドメインのエラー定義
var (
	ErrProfileNotFound = errors.New("プロフィールが見つかりません")
	ErrNotOwner        = errors.New("他のユーザーのプロフィールは変更できません")
	ErrValidation      = errors.New("プロフィールの入力内容が不正です")
)

// 入力検証の理由
var (
	ErrUIDRequired          = errors.New("UIDは必須です")
	ErrUIDTooLong           = errors.New("UIDは128文字以下である必要があります")
	ErrEmailTooLong         = errors.New("メールアドレスは320文字以下である必要があります")
	ErrInvalidSkillLevel    = errors.New("スキルレベルが不正です")
	ErrInvalidRole          = errors.New("ロールが不正です")
	ErrDisplayNameTooLong   = errors.New("表示名は100文字以下である必要があります")
	ErrTooManyFavoriteSport = errors.New("お気に入り競技は20件以下である必要があります")
	ErrUnsupportedPhoto     = errors.New("画像ファイルのみアップロードできます")
	ErrPhotoTooLarge        = errors.New("画像ファイルは5MB以下である必要があります")
)

// ValidationError はフィールド単位の入力検証エラー
type ValidationError struct {
	Field string
	Err   error
}

// NewValidationError は ValidationError を作成する
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
