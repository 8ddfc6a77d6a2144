package application

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/domain/event"
	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
	"github.com/sanosuguru/sportup/internal/pkg/metrics"
)

// 表示名がないユーザーが作成したイベントの作成者名
const defaultCreatorName = "SportUp User"

type EventService struct {
	eventRepo event.Repository
	locker    EventLocker
	cache     ListingCache
	retry     RetryPolicy
	now       func() time.Time
}

// NewEventService はEventServiceを作成する
// locker と cache は nil の場合使用しない
func NewEventService(eventRepo event.Repository, locker EventLocker, cache ListingCache, retry RetryPolicy) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		locker:    locker,
		cache:     cache,
		retry:     retry,
		now:       time.Now,
	}
}

type CreateEventInput struct {
	Name            string
	SportCategory   string
	City            string
	Area            string
	DateTime        time.Time
	Description     string
	MaxParticipants *int
}

func (in CreateEventInput) details() event.Details {
	return event.Details{
		Name:            in.Name,
		SportCategory:   in.SportCategory,
		City:            in.City,
		Area:            in.Area,
		DateTime:        in.DateTime,
		Description:     in.Description,
		MaxParticipants: in.MaxParticipants,
	}
}

// CreateEvent は操作主体を作成者としてイベントを作成する
// ストア障害時の自動リトライは重複作成を避けるため行わない
func (s *EventService) CreateEvent(ctx context.Context, actor identity.Identity, input CreateEventInput) (*event.Event, error) {
	creatorName := actor.DisplayName
	if creatorName == "" {
		creatorName = defaultCreatorName
	}
	e := event.NewEvent(actor.UID, creatorName, input.details())
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}

	s.invalidateListing(ctx)
	logger.Info("イベントを作成しました",
		zap.String("event_id", e.ID),
		zap.String("created_by", e.CreatedByUID),
	)
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return retryOnUnavailable(ctx, s.retry, "get", func() (*event.Event, error) {
		return s.eventRepo.GetByID(ctx, id)
	})
}

type UpdateEventInput struct {
	ID string
	CreateEventInput
}

// UpdateEvent は変更可能フィールドを上書きする
// 存在確認、権限確認、入力検証の順に判定する
func (s *EventService) UpdateEvent(ctx context.Context, actor identity.Identity, input UpdateEventInput) (*event.Event, error) {
	updated, err := retryOnUnavailable(ctx, s.retry, "update", func() (*event.Event, error) {
		return s.eventRepo.Mutate(ctx, input.ID, func(e *event.Event) (bool, error) {
			if !event.CanMutate(actor, e) {
				return false, event.ErrNotAuthorized
			}
			if err := e.ApplyDetails(input.details()); err != nil {
				return false, err
			}
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)
	logger.Info("イベントを更新しました", zap.String("event_id", updated.ID), zap.String("actor", actor.UID))
	return updated, nil
}

// DeleteEvent はイベントを削除する
// 削除自体は再実行すると NotFound になり得るためリトライしない
func (s *EventService) DeleteEvent(ctx context.Context, actor identity.Identity, id string) error {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !event.CanMutate(actor, e) {
		return event.ErrNotAuthorized
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateListing(ctx)
	logger.Info("イベントを削除しました", zap.String("event_id", id), zap.String("actor", actor.UID))
	return nil
}

// JoinEvent はイベントに参加する
// 参加済みの場合は変更せずに現在のイベントを返す
func (s *EventService) JoinEvent(ctx context.Context, userID, eventID string) (*event.Event, error) {
	var changed bool
	updated, err := s.mutateParticipants(ctx, "join", eventID, func(e *event.Event) (bool, error) {
		c, err := e.Join(userID)
		changed = c
		return c, err
	})
	metrics.Get().ObserveParticipation("join", joinResult(changed, err))
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidateListing(ctx)
		logger.Info("イベントに参加しました", zap.String("event_id", eventID), zap.String("user_id", userID))
	}
	return updated, nil
}

// LeaveEvent はイベントから離脱する
// 参加していない場合は変更せずに現在のイベントを返す
func (s *EventService) LeaveEvent(ctx context.Context, userID, eventID string) (*event.Event, error) {
	var changed bool
	updated, err := s.mutateParticipants(ctx, "leave", eventID, func(e *event.Event) (bool, error) {
		changed = e.Leave(userID)
		return changed, nil
	})
	metrics.Get().ObserveParticipation("leave", leaveResult(changed, err))
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidateListing(ctx)
		logger.Info("イベントから離脱しました", zap.String("event_id", eventID), zap.String("user_id", userID))
	}
	return updated, nil
}

// ListEvents は条件に一致するイベントを開催日時の昇順で返す
// 返すシーケンスは取得時点のスナップショットに対するもので、何度でも走査できる
func (s *EventService) ListEvents(ctx context.Context, f event.Filter) (iter.Seq[*event.Event], error) {
	snapshot, err := s.snapshot(ctx, f.Query())
	if err != nil {
		return nil, err
	}
	return event.FilterEvents(snapshot, f), nil
}

// ListEventsByParticipant は参加中のイベントを返す
func (s *EventService) ListEventsByParticipant(ctx context.Context, uid string) (iter.Seq[*event.Event], error) {
	return s.ListEvents(ctx, event.Filter{ParticipantUID: uid})
}

// ListEventsByCreator は作成したイベントを返す
func (s *EventService) ListEventsByCreator(ctx context.Context, uid string) (iter.Seq[*event.Event], error) {
	return s.ListEvents(ctx, event.Filter{CreatorUID: uid})
}

// CountUpcomingEvents は現在以降に開催されるイベント数を返す
func (s *EventService) CountUpcomingEvents(ctx context.Context) (int, error) {
	return retryOnUnavailable(ctx, s.retry, "count_upcoming", func() (int, error) {
		return s.eventRepo.CountUpcoming(ctx, s.now())
	})
}

// snapshot はストアから一覧を取得する
// キャッシュは一覧表示にのみ使い、定員判定には使わない
func (s *EventService) snapshot(ctx context.Context, q event.Query) ([]*event.Event, error) {
	key := listingKey(q)
	generation, cacheOK := int64(0), false
	if s.cache != nil {
		gen, err := s.cache.Generation(ctx)
		if err != nil {
			metrics.Get().ObserveListingCache("error")
			logger.Warn("キャッシュ世代の取得エラー", zap.Error(err))
		} else {
			generation, cacheOK = gen, true
			events, hit, err := s.cache.Get(ctx, gen, key)
			switch {
			case err != nil:
				metrics.Get().ObserveListingCache("error")
				logger.Warn("キャッシュ取得エラー", zap.Error(err))
			case hit:
				metrics.Get().ObserveListingCache("hit")
				return events, nil
			default:
				metrics.Get().ObserveListingCache("miss")
			}
		}
	}

	events, err := retryOnUnavailable(ctx, s.retry, "list", func() ([]*event.Event, error) {
		return s.eventRepo.List(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	event.SortByDateTime(events)

	if cacheOK {
		if err := s.cache.Set(ctx, generation, key, events); err != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(err))
		}
	}
	return events, nil
}

func (s *EventService) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.Error(err))
	}
}

// mutateParticipants は試行ごとにイベントロックを取得してから参加者リストを変更する
// ロック競合もストア障害と同じく再試行の対象になる
func (s *EventService) mutateParticipants(ctx context.Context, operation, eventID string, fn event.MutateFunc) (*event.Event, error) {
	return retryOnUnavailable(ctx, s.retry, operation, func() (*event.Event, error) {
		release, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		defer release()
		return s.eventRepo.Mutate(ctx, eventID, fn)
	})
}

func (s *EventService) lockEvent(ctx context.Context, eventID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.LockEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("ロック解放エラー", zap.String("event_id", eventID), zap.Error(err))
		}
	}, nil
}

func listingKey(q event.Query) string {
	v := url.Values{}
	v.Set("sport", q.SportCategory)
	v.Set("city", q.City)
	v.Set("creator", q.CreatedByUID)
	return v.Encode()
}

func joinResult(changed bool, err error) string {
	switch {
	case err == nil && changed:
		return "joined"
	case err == nil:
		return "already_joined"
	case errors.Is(err, event.ErrEventFull):
		return "full"
	case errors.Is(err, event.ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func leaveResult(changed bool, err error) string {
	switch {
	case err == nil && changed:
		return "left"
	case err == nil:
		return "not_joined"
	case errors.Is(err, event.ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}
