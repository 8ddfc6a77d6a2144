package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanosuguru/sportup/internal/domain/event"
)

// EventRepository はイベントリポジトリのインメモリ実装
// ローカル起動とテストで使用する
// Mutate はイベントごとのロックで直列化し、別イベントへの変更は互いにブロックしない
type EventRepository struct {
	mu     sync.RWMutex
	events map[string]*event.Event
	locks  map[string]*sync.Mutex
	now    func() time.Time
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository() *EventRepository {
	return &EventRepository{
		events: make(map[string]*event.Event),
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

// eventLock はイベントのロックを返す（存在しないイベントは nil）
func (r *EventRepository) eventLock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return nil
	}
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Version = 1
	if e.ParticipantIDs == nil {
		e.ParticipantIDs = []string{}
	}
	r.events[e.ID] = e.Clone()
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	return e.Clone(), nil
}

// List は条件に一致するイベントを開催日時の昇順で取得する
func (r *EventRepository) List(ctx context.Context, q event.Query) ([]*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	result := make([]*event.Event, 0, len(r.events))
	for _, e := range r.events {
		if q.SportCategory != "" && e.SportCategory != q.SportCategory {
			continue
		}
		if q.City != "" && e.City != q.City {
			continue
		}
		if q.CreatedByUID != "" && e.CreatedByUID != q.CreatedByUID {
			continue
		}
		result = append(result, e.Clone())
	}
	r.mu.RUnlock()

	event.SortByDateTime(result)
	return result, nil
}

// Mutate はイベント単位の排他ロック下で読み取り・変更・書き込みを行う
func (r *EventRepository) Mutate(ctx context.Context, id string, fn event.MutateFunc) (*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lock := r.eventLock(id)
	if lock == nil {
		return nil, event.ErrEventNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	current, ok := r.events[id]
	r.mu.RUnlock()
	if !ok {
		return nil, event.ErrEventNotFound
	}

	working := current.Clone()
	changed, err := fn(working)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current.Clone(), nil
	}

	// 不変フィールドは保存済みの値を維持する
	working.ID = current.ID
	working.CreatedByUID = current.CreatedByUID
	working.CreatedAt = current.CreatedAt
	working.UpdatedAt = r.now()
	working.Version = current.Version + 1

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return nil, event.ErrEventNotFound
	}
	r.events[id] = working
	return working.Clone(), nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return event.ErrEventNotFound
	}
	delete(r.events, id)
	delete(r.locks, id)
	return nil
}

// CountUpcoming は指定時刻以降に開催されるイベント数を取得する
func (r *EventRepository) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.events {
		if !e.DateTime.Before(from) {
			count++
		}
	}
	return count, nil
}

var _ event.Repository = (*EventRepository)(nil)
