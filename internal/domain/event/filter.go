package event

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"time"
)

// Filter は一覧表示の絞り込み条件
// ゼロ値のフィールドは条件として扱わない
type Filter struct {
	// Date は開催日（Date のロケーションでの暦日）で絞り込む
	Date           time.Time
	SportCategory  string
	City           string
	Text           string
	ParticipantUID string
	CreatorUID     string
}

// Query はストアに委譲できる条件を返す
func (f Filter) Query() Query {
	return Query{
		SportCategory: f.SportCategory,
		City:          f.City,
		CreatedByUID:  f.CreatorUID,
	}
}

// Matches はイベントが条件に一致するかを返す
func (f Filter) Matches(e *Event) bool {
	if !f.Date.IsZero() && !sameDay(e.DateTime, f.Date) {
		return false
	}
	if f.SportCategory != "" && e.SportCategory != f.SportCategory {
		return false
	}
	if f.City != "" && e.City != f.City {
		return false
	}
	if f.CreatorUID != "" && e.CreatedByUID != f.CreatorUID {
		return false
	}
	if f.ParticipantUID != "" && !e.HasParticipant(f.ParticipantUID) {
		return false
	}
	if f.Text != "" {
		term := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(e.Name), term) &&
			!strings.Contains(strings.ToLower(e.Area), term) &&
			!strings.Contains(strings.ToLower(e.Description), term) {
			return false
		}
	}
	return true
}

// FilterEvents は条件に一致するイベントを順に返すシーケンスを作る
// 入力スライスのスナップショットに対する純粋関数で、何度でも再走査できる
func FilterEvents(events []*Event, f Filter) iter.Seq[*Event] {
	return func(yield func(*Event) bool) {
		for _, e := range events {
			if !f.Matches(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// SortByDateTime は開催日時の昇順（同時刻はID順）に並べ替える
func SortByDateTime(events []*Event) {
	slices.SortStableFunc(events, func(a, b *Event) int {
		if c := a.DateTime.Compare(b.DateTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func sameDay(t, day time.Time) bool {
	y1, m1, d1 := t.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
