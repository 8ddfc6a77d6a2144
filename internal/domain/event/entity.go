package event

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sanosuguru/sportup/internal/domain/sport"
)

// 上限は events テーブルの列幅と一致させる
const (
	nameMinLen        = 3
	nameMaxLen        = 100
	cityMaxLen        = 200
	areaMinLen        = 2
	areaMaxLen        = 100
	descriptionMinLen = 10
	descriptionMaxLen = 1000
	creatorUIDMaxLen  = 128
	creatorNameMaxLen = 200
)

// Event はスポーツイベントエンティティを表す
type Event struct {
	ID              string
	Name            string
	SportCategory   string
	City            string
	Area            string
	DateTime        time.Time
	Description     string
	MaxParticipants *int // nil は上限なし
	ParticipantIDs  []string
	CreatedByUID    string
	CreatorName     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

// Details は作成・更新で変更可能なフィールド
type Details struct {
	Name            string
	SportCategory   string
	City            string
	Area            string
	DateTime        time.Time
	Description     string
	MaxParticipants *int
}

// NewEvent は新しいイベントを作成する
// ID とタイムスタンプはストアへの書き込み時に設定される
// 作成者名は表示用のスナップショットのため、上限を超える分は切り詰める
func NewEvent(creatorUID, creatorName string, d Details) *Event {
	e := &Event{
		ParticipantIDs: []string{},
		CreatedByUID:   creatorUID,
		CreatorName:    truncateRunes(creatorName, creatorNameMaxLen),
	}
	e.setDetails(d)
	return e
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.CreatedByUID == "" {
		return newValidationError("createdByUid", ErrCreatorRequired)
	}
	if utf8.RuneCountInString(e.CreatedByUID) > creatorUIDMaxLen {
		return newValidationError("createdByUid", ErrCreatorTooLong)
	}
	if err := e.Details().Validate(); err != nil {
		return err
	}
	if e.MaxParticipants != nil && len(e.ParticipantIDs) > *e.MaxParticipants {
		return newValidationError("maxParticipants", ErrCapacityBelowParticipants)
	}
	return nil
}

// Validate は変更可能フィールドの検証を行う
func (d Details) Validate() error {
	if n := utf8.RuneCountInString(d.Name); n < nameMinLen || n > nameMaxLen || strings.TrimSpace(d.Name) == "" {
		return newValidationError("name", ErrInvalidName)
	}
	if d.SportCategory == "" {
		return newValidationError("sportCategory", ErrSportCategoryRequired)
	}
	if !sport.IsValid(d.SportCategory) {
		return newValidationError("sportCategory", ErrUnknownSportCategory)
	}
	if strings.TrimSpace(d.City) == "" {
		return newValidationError("city", ErrCityRequired)
	}
	if utf8.RuneCountInString(d.City) > cityMaxLen {
		return newValidationError("city", ErrInvalidCity)
	}
	if n := utf8.RuneCountInString(d.Area); n < areaMinLen || n > areaMaxLen {
		return newValidationError("area", ErrInvalidArea)
	}
	if d.DateTime.IsZero() {
		return newValidationError("dateTime", ErrDateTimeRequired)
	}
	if n := utf8.RuneCountInString(d.Description); n < descriptionMinLen || n > descriptionMaxLen {
		return newValidationError("description", ErrInvalidDescription)
	}
	if d.MaxParticipants != nil && *d.MaxParticipants <= 0 {
		return newValidationError("maxParticipants", ErrInvalidMaxParticipants)
	}
	return nil
}

// Details は現在の変更可能フィールドを返す
func (e *Event) Details() Details {
	return Details{
		Name:            e.Name,
		SportCategory:   e.SportCategory,
		City:            e.City,
		Area:            e.Area,
		DateTime:        e.DateTime,
		Description:     e.Description,
		MaxParticipants: copyInt(e.MaxParticipants),
	}
}

// ApplyDetails は変更可能フィールドを検証した上で上書きする
// 作成者・参加者・作成日時は変更しない
func (e *Event) ApplyDetails(d Details) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.MaxParticipants != nil && len(e.ParticipantIDs) > *d.MaxParticipants {
		return newValidationError("maxParticipants", ErrCapacityBelowParticipants)
	}
	e.setDetails(d)
	return nil
}

func (e *Event) setDetails(d Details) {
	e.Name = d.Name
	e.SportCategory = d.SportCategory
	e.City = d.City
	e.Area = d.Area
	e.DateTime = d.DateTime
	e.Description = d.Description
	e.MaxParticipants = copyInt(d.MaxParticipants)
}

// HasParticipant は参加済みかを返す
func (e *Event) HasParticipant(uid string) bool {
	return slices.Contains(e.ParticipantIDs, uid)
}

// ParticipantCount は参加者数を返す
func (e *Event) ParticipantCount() int {
	return len(e.ParticipantIDs)
}

// IsFull は定員に達しているかを返す
func (e *Event) IsFull() bool {
	return e.MaxParticipants != nil && len(e.ParticipantIDs) >= *e.MaxParticipants
}

// RemainingSpots は残り枠を返す（上限なしの場合 ok=false）
func (e *Event) RemainingSpots() (remaining int, ok bool) {
	if e.MaxParticipants == nil {
		return 0, false
	}
	remaining = *e.MaxParticipants - len(e.ParticipantIDs)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Join は参加者を追加する
// 既に参加済みの場合は変更なし（changed=false）で成功する
func (e *Event) Join(uid string) (changed bool, err error) {
	if uid == "" {
		return false, newValidationError("userId", ErrParticipantRequired)
	}
	if e.HasParticipant(uid) {
		return false, nil
	}
	if e.IsFull() {
		return false, ErrEventFull
	}
	e.ParticipantIDs = append(e.ParticipantIDs, uid)
	return true, nil
}

// Leave は参加者を削除する
// 参加していない場合は変更なし（changed=false）
func (e *Event) Leave(uid string) (changed bool) {
	idx := slices.Index(e.ParticipantIDs, uid)
	if idx < 0 {
		return false
	}
	e.ParticipantIDs = slices.Delete(e.ParticipantIDs, idx, idx+1)
	return true
}

// Clone はイベントのディープコピーを返す
func (e *Event) Clone() *Event {
	c := *e
	c.MaxParticipants = copyInt(e.MaxParticipants)
	c.ParticipantIDs = slices.Clone(e.ParticipantIDs)
	if c.ParticipantIDs == nil {
		c.ParticipantIDs = []string{}
	}
	return &c
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
