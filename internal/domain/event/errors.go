package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound = errors.New("イベントが見つかりません")
	ErrNotAuthorized = errors.New("このイベントを変更する権限がありません")
	ErrEventFull     = errors.New("イベントの参加者数が上限に達しています")

	// ErrValidation は全ての入力検証エラーが満たすエラー
	ErrValidation = errors.New("入力内容が不正です")
)

// 入力検証の理由
var (
	ErrInvalidName               = errors.New("イベント名は3文字以上100文字以下である必要があります")
	ErrSportCategoryRequired     = errors.New("競技カテゴリは必須です")
	ErrUnknownSportCategory      = errors.New("競技カテゴリが不正です")
	ErrCityRequired              = errors.New("都市は必須です")
	ErrInvalidCity               = errors.New("都市は200文字以下である必要があります")
	ErrInvalidArea               = errors.New("エリアは2文字以上100文字以下である必要があります")
	ErrDateTimeRequired          = errors.New("開催日時は必須です")
	ErrInvalidDescription        = errors.New("説明は10文字以上1000文字以下である必要があります")
	ErrInvalidMaxParticipants    = errors.New("最大参加者数は1以上である必要があります")
	ErrCapacityBelowParticipants = errors.New("最大参加者数を現在の参加者数より小さくできません")
	ErrCreatorRequired           = errors.New("作成者は必須です")
	ErrCreatorTooLong            = errors.New("作成者IDは128文字以下である必要があります")
	ErrParticipantRequired       = errors.New("参加者IDは必須です")
)

// ValidationError はフィールド単位の入力検証エラー
type ValidationError struct {
	Field string
	Err   error
}

func newValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

// Unwrap は ErrValidation と理由の両方で errors.Is を満たす
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
