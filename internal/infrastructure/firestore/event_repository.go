package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/sanosuguru/sportup/internal/domain/event"
)

const eventsCollection = "events"

// eventDoc は events コレクションのドキュメント
type eventDoc struct {
	Name             string    `firestore:"name"`
	SportCategory    string    `firestore:"sportCategory"`
	City             string    `firestore:"city"`
	Area             string    `firestore:"area"`
	DateTime         time.Time `firestore:"dateTime"`
	Description      string    `firestore:"description"`
	MaxParticipants  *int64    `firestore:"maxParticipants"`
	ParticipantsUIDs []string  `firestore:"participantsUids"`
	CreatedByUID     string    `firestore:"createdByUid"`
	CreatorName      string    `firestore:"creatorName"`
	CreatedAt        time.Time `firestore:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
	Version          int64     `firestore:"version"`
}

func toEventDoc(e *event.Event) *eventDoc {
	var capacity *int64
	if e.MaxParticipants != nil {
		v := int64(*e.MaxParticipants)
		capacity = &v
	}
	participants := e.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}
	return &eventDoc{
		Name:             e.Name,
		SportCategory:    e.SportCategory,
		City:             e.City,
		Area:             e.Area,
		DateTime:         storedTime(e.DateTime),
		Description:      e.Description,
		MaxParticipants:  capacity,
		ParticipantsUIDs: participants,
		CreatedByUID:     e.CreatedByUID,
		CreatorName:      e.CreatorName,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
		Version:          int64(e.Version),
	}
}

func (d *eventDoc) toEntity(id string) *event.Event {
	var capacity *int
	if d.MaxParticipants != nil {
		v := int(*d.MaxParticipants)
		capacity = &v
	}
	participants := d.ParticipantsUIDs
	if participants == nil {
		participants = []string{}
	}
	return &event.Event{
		ID:              id,
		Name:            d.Name,
		SportCategory:   d.SportCategory,
		City:            d.City,
		Area:            d.Area,
		DateTime:        d.DateTime,
		Description:     d.Description,
		MaxParticipants: capacity,
		ParticipantIDs:  participants,
		CreatedByUID:    d.CreatedByUID,
		CreatorName:     d.CreatorName,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		Version:         int(d.Version),
	}
}

func decodeEvent(snap *firestore.DocumentSnapshot) (*event.Event, error) {
	var doc eventDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, wrapErr("イベントのデコードに失敗しました", err)
	}
	return doc.toEntity(snap.Ref.ID), nil
}

// EventRepository はイベントリポジトリのFirestore実装
type EventRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(client *firestore.Client) *EventRepository {
	return &EventRepository{client: client, now: func() time.Time { return storedTime(time.Now()) }}
}

// storedTime は Firestore のタイムスタンプ精度（マイクロ秒）に丸める
func storedTime(t time.Time) time.Time { return t.Truncate(time.Microsecond) }

func (r *EventRepository) events() *firestore.CollectionRef {
	return r.client.Collection(eventsCollection)
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	ref := r.events().NewDoc()
	now := r.now()

	doc := toEventDoc(e)
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.Version = 1
	if _, err := ref.Create(ctx, doc); err != nil {
		return wrapErr("イベント作成に失敗しました", err)
	}

	e.ID = ref.ID
	e.DateTime = doc.DateTime
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Version = 1
	e.ParticipantIDs = doc.ParticipantsUIDs
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	if id == "" {
		return nil, event.ErrEventNotFound
	}
	snap, err := r.events().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, event.ErrEventNotFound
		}
		return nil, wrapErr("イベント取得に失敗しました", err)
	}
	return decodeEvent(snap)
}

// List は条件に一致するイベントを開催日時の昇順で取得する
// 複合インデックスを不要にするため並べ替えはクライアント側で行う
func (r *EventRepository) List(ctx context.Context, q event.Query) ([]*event.Event, error) {
	query := r.events().Query
	if q.SportCategory != "" {
		query = query.Where("sportCategory", "==", q.SportCategory)
	}
	if q.City != "" {
		query = query.Where("city", "==", q.City)
	}
	if q.CreatedByUID != "" {
		query = query.Where("createdByUid", "==", q.CreatedByUID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var events []*event.Event
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapErr("イベント一覧取得に失敗しました", err)
		}
		e, err := decodeEvent(snap)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	event.SortByDateTime(events)
	return events, nil
}

// Mutate はトランザクション内で読み取り・変更・書き込みを行う
// 競合した場合はSDKがトランザクション全体を再実行する
func (r *EventRepository) Mutate(ctx context.Context, id string, fn event.MutateFunc) (*event.Event, error) {
	if id == "" {
		return nil, event.ErrEventNotFound
	}
	ref := r.events().Doc(id)

	var result *event.Event
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return event.ErrEventNotFound
			}
			return err
		}
		current, err := decodeEvent(snap)
		if err != nil {
			return err
		}

		working := current.Clone()
		changed, err := fn(working)
		if err != nil {
			return err
		}
		if !changed {
			result = current
			return nil
		}

		// 不変フィールドは保存済みの値を維持する
		working.ID = current.ID
		working.CreatedByUID = current.CreatedByUID
		working.CreatedAt = current.CreatedAt
		working.UpdatedAt = r.now()
		working.Version = current.Version + 1
		working.DateTime = storedTime(working.DateTime)

		if err := tx.Set(ref, toEventDoc(working)); err != nil {
			return err
		}
		result = working
		return nil
	})
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) || errors.Is(err, event.ErrEventFull) ||
			errors.Is(err, event.ErrNotAuthorized) || errors.Is(err, event.ErrValidation) {
			return nil, err
		}
		return nil, wrapErr("イベント更新に失敗しました", err)
	}
	return result, nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return event.ErrEventNotFound
	}
	if _, err := r.events().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if isNotFound(err) {
			return event.ErrEventNotFound
		}
		return wrapErr("イベント削除に失敗しました", err)
	}
	return nil
}

// CountUpcoming は指定時刻以降に開催されるイベント数を取得する
func (r *EventRepository) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	iter := r.events().Where("dateTime", ">=", from).Select().Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return count, nil
		}
		if err != nil {
			return 0, wrapErr("開催予定イベント数の取得に失敗しました", err)
		}
		count++
	}
}

var _ event.Repository = (*EventRepository)(nil)
