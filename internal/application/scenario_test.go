package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/sportup/internal/domain/event"
	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/infrastructure/memory"
)

func setupMemoryEnv(t *testing.T) (*EventService, *ProfileService) {
	t.Helper()
	eventService := NewEventService(memory.NewEventRepository(), nil, nil, fastRetry())
	profileService := NewProfileService(memory.NewProfileRepository(), memory.NewBlobStore("http://localhost/blobs"), fastRetry())
	return eventService, profileService
}

// TestScenario_EventLifecycle はイベントの作成から削除までのフローをテストします
// サインアップ → 作成 → 参加 → 一覧 → 更新 → 離脱 → 削除
func TestScenario_EventLifecycle(t *testing.T) {
	eventService, profileService := setupMemoryEnv(t)
	ctx := context.Background()

	t.Run("完全なイベントフロー", func(t *testing.T) {
		// 1. サインアップ
		organizer, err := profileService.Signup(ctx, identity.Identity{UID: "organizer", DisplayName: "Taro"})
		require.NoError(t, err)
		actor, err := profileService.ResolveIdentity(ctx, identity.Identity{UID: organizer.UID})
		require.NoError(t, err)
		assert.Equal(t, "Taro", actor.DisplayName)

		// 2. イベント作成
		input := validEventInput()
		input.MaxParticipants = intPtr(2)
		created, err := eventService.CreateEvent(ctx, actor, input)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Taro", created.CreatorName)

		// 3. 参加（2人目で満員）
		_, err = eventService.JoinEvent(ctx, "player-1", created.ID)
		require.NoError(t, err)
		_, err = eventService.JoinEvent(ctx, "player-2", created.ID)
		require.NoError(t, err)
		_, err = eventService.JoinEvent(ctx, "player-3", created.ID)
		assert.ErrorIs(t, err, event.ErrEventFull)

		// 4. 参加中・作成済みの一覧
		joined, err := eventService.ListEventsByParticipant(ctx, "player-1")
		require.NoError(t, err)
		assert.Len(t, slices.Collect(joined), 1)
		mine, err := eventService.ListEventsByCreator(ctx, "organizer")
		require.NoError(t, err)
		assert.Len(t, slices.Collect(mine), 1)

		// 5. 定員を参加者数未満には変更できない
		update := UpdateEventInput{ID: created.ID, CreateEventInput: input}
		update.MaxParticipants = intPtr(1)
		_, err = eventService.UpdateEvent(ctx, actor, update)
		assert.ErrorIs(t, err, event.ErrCapacityBelowParticipants)

		// 6. 離脱すると空きができる
		_, err = eventService.LeaveEvent(ctx, "player-2", created.ID)
		require.NoError(t, err)
		got, err := eventService.JoinEvent(ctx, "player-3", created.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"player-1", "player-3"}, got.ParticipantIDs)

		// 7. 削除
		require.NoError(t, eventService.DeleteEvent(ctx, actor, created.ID))
		_, err = eventService.GetEvent(ctx, created.ID)
		assert.ErrorIs(t, err, event.ErrEventNotFound)
	})
}

// TestScenario_ConcurrentJoins は定員を超える同時参加のシナリオ
func TestScenario_ConcurrentJoins(t *testing.T) {
	eventService, _ := setupMemoryEnv(t)
	ctx := context.Background()

	t.Run("50人が同時に定員10のイベントに参加", func(t *testing.T) {
		input := validEventInput()
		input.MaxParticipants = intPtr(10)
		created, err := eventService.CreateEvent(ctx, identity.Identity{UID: "organizer"}, input)
		require.NoError(t, err)

		const numUsers = 50
		var successCount, fullCount, otherErrorCount int32
		var wg sync.WaitGroup
		for i := 0; i < numUsers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := eventService.JoinEvent(ctx, fmt.Sprintf("user-%02d", n), created.ID)
				switch {
				case err == nil:
					atomic.AddInt32(&successCount, 1)
				case errors.Is(err, event.ErrEventFull):
					atomic.AddInt32(&fullCount, 1)
				default:
					atomic.AddInt32(&otherErrorCount, 1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(10), successCount)
		assert.Equal(t, int32(40), fullCount)
		assert.Equal(t, int32(0), otherErrorCount)

		final, err := eventService.GetEvent(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, final.ParticipantIDs, 10)
	})

	t.Run("同じユーザーの同時参加は1回だけ記録される", func(t *testing.T) {
		created, err := eventService.CreateEvent(ctx, identity.Identity{UID: "organizer"}, validEventInput())
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := eventService.JoinEvent(ctx, "same-user", created.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		final, err := eventService.GetEvent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"same-user"}, final.ParticipantIDs)
	})

	t.Run("参加と離脱が交互に起きても重複しない", func(t *testing.T) {
		input := validEventInput()
		input.MaxParticipants = intPtr(5)
		created, err := eventService.CreateEvent(ctx, identity.Identity{UID: "organizer"}, input)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				uid := fmt.Sprintf("user-%d", n%8)
				if n%2 == 0 {
					_, _ = eventService.JoinEvent(ctx, uid, created.ID)
				} else {
					_, _ = eventService.LeaveEvent(ctx, uid, created.ID)
				}
			}(i)
		}
		wg.Wait()

		final, err := eventService.GetEvent(ctx, created.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(final.ParticipantIDs), 5)
		seen := map[string]bool{}
		for _, uid := range final.ParticipantIDs {
			assert.False(t, seen[uid], "重複した参加者: %s", uid)
			seen[uid] = true
		}
	})
}

// TestScenario_ListingIsSorted は一覧が常に開催日時順であることを確認する
func TestScenario_ListingIsSorted(t *testing.T) {
	eventService, _ := setupMemoryEnv(t)
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	for _, offset := range []int{5, 1, 3, 2, 4} {
		input := validEventInput()
		input.DateTime = base.Add(time.Duration(offset) * time.Hour)
		_, err := eventService.CreateEvent(ctx, identity.Identity{UID: "organizer"}, input)
		require.NoError(t, err)
	}

	seq, err := eventService.ListEvents(ctx, event.Filter{Text: "フットサル"})
	require.NoError(t, err)
	events := slices.Collect(seq)
	require.Len(t, events, 5)
	assert.True(t, slices.IsSortedFunc(events, func(a, b *event.Event) int {
		return a.DateTime.Compare(b.DateTime)
	}))

	count, err := eventService.CountUpcomingEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

// TestScenario_RoundTrip は作成・更新した内容が再取得で欠けずに返ることを確認する
func TestScenario_RoundTrip(t *testing.T) {
	eventService, _ := setupMemoryEnv(t)
	ctx := context.Background()
	owner := identity.Identity{UID: "organizer", DisplayName: "Taro"}

	input := CreateEventInput{
		Name:            "朝練ランニング",
		SportCategory:   "Running",
		City:            "Osaka",
		Area:            "Umeda",
		DateTime:        time.Now().Add(72 * time.Hour).Truncate(time.Second),
		Description:     "川沿いを10km走ります",
		MaxParticipants: intPtr(8),
	}
	created, err := eventService.CreateEvent(ctx, owner, input)
	require.NoError(t, err)
	_, err = eventService.JoinEvent(ctx, "runner-1", created.ID)
	require.NoError(t, err)

	t.Run("作成した全フィールドを再取得できる", func(t *testing.T) {
		got, err := eventService.GetEvent(ctx, created.ID)
		require.NoError(t, err)

		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, input.Name, got.Name)
		assert.Equal(t, input.SportCategory, got.SportCategory)
		assert.Equal(t, input.City, got.City)
		assert.Equal(t, input.Area, got.Area)
		assert.True(t, input.DateTime.Equal(got.DateTime))
		assert.Equal(t, input.Description, got.Description)
		assert.Equal(t, input.MaxParticipants, got.MaxParticipants)
		assert.Equal(t, "organizer", got.CreatedByUID)
		assert.Equal(t, "Taro", got.CreatorName)
		assert.Equal(t, []string{"runner-1"}, got.ParticipantIDs)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
		assert.False(t, got.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("更新した全フィールドを再取得できる", func(t *testing.T) {
		before, err := eventService.GetEvent(ctx, created.ID)
		require.NoError(t, err)

		changed := UpdateEventInput{ID: created.ID, CreateEventInput: CreateEventInput{
			Name:            "夜練ランニング",
			SportCategory:   "Trail Running",
			City:            "Kobe",
			Area:            "Rokko",
			DateTime:        input.DateTime.Add(36 * time.Hour),
			Description:     "山道を15km走ります",
			MaxParticipants: nil,
		}}
		_, err = eventService.UpdateEvent(ctx, owner, changed)
		require.NoError(t, err)

		got, err := eventService.GetEvent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, changed.Name, got.Name)
		assert.Equal(t, changed.SportCategory, got.SportCategory)
		assert.Equal(t, changed.City, got.City)
		assert.Equal(t, changed.Area, got.Area)
		assert.True(t, changed.DateTime.Equal(got.DateTime))
		assert.Equal(t, changed.Description, got.Description)
		assert.Nil(t, got.MaxParticipants)

		// 不変フィールドと参加者は維持される
		assert.Equal(t, before.ID, got.ID)
		assert.Equal(t, before.CreatedByUID, got.CreatedByUID)
		assert.Equal(t, before.CreatorName, got.CreatorName)
		assert.Equal(t, before.ParticipantIDs, got.ParticipantIDs)
		assert.True(t, before.CreatedAt.Equal(got.CreatedAt))
		assert.False(t, got.UpdatedAt.Before(before.UpdatedAt))
		assert.Equal(t, before.Version+1, got.Version)
	})
}

// TestScenario_ForbiddenChangesLeaveEventIntact は作成者以外の更新・削除が記録を変えないことを確認する
func TestScenario_ForbiddenChangesLeaveEventIntact(t *testing.T) {
	eventService, _ := setupMemoryEnv(t)
	ctx := context.Background()
	owner := identity.Identity{UID: "organizer", DisplayName: "Taro"}
	intruder := identity.Identity{UID: "intruder", DisplayName: "Jiro"}

	input := validEventInput()
	input.MaxParticipants = intPtr(4)
	created, err := eventService.CreateEvent(ctx, owner, input)
	require.NoError(t, err)
	_, err = eventService.JoinEvent(ctx, "player-1", created.ID)
	require.NoError(t, err)

	original, err := eventService.GetEvent(ctx, created.ID)
	require.NoError(t, err)

	t.Run("作成者以外の更新は拒否され記録は変わらない", func(t *testing.T) {
		update := UpdateEventInput{ID: created.ID, CreateEventInput: input}
		update.Name = "乗っ取られたイベント"
		update.MaxParticipants = intPtr(1)

		_, err := eventService.UpdateEvent(ctx, intruder, update)
		assert.ErrorIs(t, err, event.ErrNotAuthorized)

		got, err := eventService.GetEvent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, original, got)
	})

	t.Run("作成者以外の削除は拒否され記録は残る", func(t *testing.T) {
		err := eventService.DeleteEvent(ctx, intruder, created.ID)
		assert.ErrorIs(t, err, event.ErrNotAuthorized)

		got, err := eventService.GetEvent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, original, got)

		mine, err := eventService.ListEventsByCreator(ctx, "organizer")
		require.NoError(t, err)
		assert.Len(t, slices.Collect(mine), 1)
	})
}
