package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/sportup/internal/domain/event"
)

const listingGenerationKey = "events:listing:generation"

// ListingCache はイベント一覧のスナップショットをキャッシュする
// キーに世代番号を含め、書き込み後に世代を進めることで古いスナップショットを参照しない
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache はListingCacheを作成する
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, ttl: ttl}
}

type cachedEvent struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SportCategory   string    `json:"sportCategory"`
	City            string    `json:"city"`
	Area            string    `json:"area"`
	DateTime        time.Time `json:"dateTime"`
	Description     string    `json:"description"`
	MaxParticipants *int      `json:"maxParticipants,omitempty"`
	ParticipantIDs  []string  `json:"participantIds"`
	CreatedByUID    string    `json:"createdByUid"`
	CreatorName     string    `json:"creatorName"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Version         int       `json:"version"`
}

// Generation は現在の世代番号を返す
func (c *ListingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, listingGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
	}
	return gen, nil
}

// Get は指定世代のスナップショットを取得する
func (c *ListingCache) Get(ctx context.Context, generation int64, key string) ([]*event.Event, bool, error) {
	raw, err := c.client.Get(ctx, c.entryKey(generation, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var cached []cachedEvent
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("キャッシュのデコードに失敗: %w", err)
	}
	events := make([]*event.Event, len(cached))
	for i := range cached {
		events[i] = cached[i].toEntity()
	}
	return events, true, nil
}

// Set は指定世代のスナップショットを保存する
func (c *ListingCache) Set(ctx context.Context, generation int64, key string, events []*event.Event) error {
	cached := make([]cachedEvent, len(events))
	for i, e := range events {
		cached[i] = fromEntity(e)
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.entryKey(generation, key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は世代を進めて既存のスナップショットを無効化する
func (c *ListingCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, listingGenerationKey).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *ListingCache) entryKey(generation int64, key string) string {
	return "events:listing:" + strconv.FormatInt(generation, 10) + ":" + key
}

func fromEntity(e *event.Event) cachedEvent {
	return cachedEvent{
		ID:              e.ID,
		Name:            e.Name,
		SportCategory:   e.SportCategory,
		City:            e.City,
		Area:            e.Area,
		DateTime:        e.DateTime,
		Description:     e.Description,
		MaxParticipants: e.MaxParticipants,
		ParticipantIDs:  e.ParticipantIDs,
		CreatedByUID:    e.CreatedByUID,
		CreatorName:     e.CreatorName,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Version:         e.Version,
	}
}

func (c *cachedEvent) toEntity() *event.Event {
	participants := c.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}
	return &event.Event{
		ID:              c.ID,
		Name:            c.Name,
		SportCategory:   c.SportCategory,
		City:            c.City,
		Area:            c.Area,
		DateTime:        c.DateTime,
		Description:     c.Description,
		MaxParticipants: c.MaxParticipants,
		ParticipantIDs:  participants,
		CreatedByUID:    c.CreatedByUID,
		CreatorName:     c.CreatorName,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Version:         c.Version,
	}
}
