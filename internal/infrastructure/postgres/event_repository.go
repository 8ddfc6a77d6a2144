package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/sportup/internal/domain/event"
)

const eventColumns = `id, name, sport_category, city, area, date_time, description, max_participants,
	participant_ids, created_by_uid, creator_name, created_at, updated_at, version`

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	SportCategory   string         `db:"sport_category"`
	City            string         `db:"city"`
	Area            string         `db:"area"`
	DateTime        time.Time      `db:"date_time"`
	Description     string         `db:"description"`
	MaxParticipants *int           `db:"max_participants"`
	ParticipantIDs  pq.StringArray `db:"participant_ids"`
	CreatedByUID    string         `db:"created_by_uid"`
	CreatorName     string         `db:"creator_name"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	Version         int            `db:"version"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	participants := []string(r.ParticipantIDs)
	if participants == nil {
		participants = []string{}
	}
	return &event.Event{
		ID:              r.ID,
		Name:            r.Name,
		SportCategory:   r.SportCategory,
		City:            r.City,
		Area:            r.Area,
		DateTime:        r.DateTime,
		Description:     r.Description,
		MaxParticipants: r.MaxParticipants,
		ParticipantIDs:  participants,
		CreatedByUID:    r.CreatedByUID,
		CreatorName:     r.CreatorName,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Version:         r.Version,
	}
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (name, sport_category, city, area, date_time, description, max_participants,
			participant_ids, created_by_uid, creator_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at, version
	`
	participants := e.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}
	e.DateTime = columnTime(e.DateTime)

	err := r.db.QueryRowContext(ctx, query,
		e.Name, e.SportCategory, e.City, e.Area, e.DateTime, e.Description, e.MaxParticipants,
		pq.Array(participants), e.CreatedByUID, e.CreatorName,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt, &e.Version)
	if err != nil {
		return wrapErr("イベント作成に失敗しました", err)
	}
	e.ParticipantIDs = participants
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	if !isUUID(id) {
		return nil, event.ErrEventNotFound
	}

	var row eventRow
	err := r.db.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, wrapErr("イベント取得に失敗しました", err)
	}
	return row.toEntity(), nil
}

// List は条件に一致するイベントを開催日時の昇順で取得する
func (r *EventRepository) List(ctx context.Context, q event.Query) ([]*event.Event, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("sport_category", q.SportCategory)
	add("city", q.City)
	add("created_by_uid", q.CreatedByUID)

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date_time ASC, id ASC`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr("イベント一覧取得に失敗しました", err)
	}

	events := make([]*event.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].toEntity()
	}
	return events, nil
}

// Mutate は行ロック（SELECT ... FOR UPDATE）を取得した上で変更を適用する
// 同じイベントへの同時変更は直列化され、別イベントへの変更はブロックしない
func (r *EventRepository) Mutate(ctx context.Context, id string, fn event.MutateFunc) (*event.Event, error) {
	if !isUUID(id) {
		return nil, event.ErrEventNotFound
	}

	var result *event.Event
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var row eventRow
		err := tx.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return event.ErrEventNotFound
			}
			return wrapErr("イベント取得に失敗しました", err)
		}

		current := row.toEntity()
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
		working.DateTime = columnTime(working.DateTime)

		query := `
			UPDATE events
			SET name = $1, sport_category = $2, city = $3, area = $4, date_time = $5, description = $6,
			    max_participants = $7, participant_ids = $8, updated_at = NOW(), version = version + 1
			WHERE id = $9
			RETURNING updated_at, version
		`
		err = tx.QueryRowContext(ctx, query,
			working.Name, working.SportCategory, working.City, working.Area, working.DateTime,
			working.Description, working.MaxParticipants, pq.Array(working.ParticipantIDs), id,
		).Scan(&working.UpdatedAt, &working.Version)
		if err != nil {
			return wrapErr("イベント更新に失敗しました", err)
		}
		result = working
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return event.ErrEventNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return wrapErr("イベント削除に失敗しました", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapErr("削除結果の確認に失敗しました", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// CountUpcoming は指定時刻以降に開催されるイベント数を取得する
func (r *EventRepository) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM events WHERE date_time >= $1`, from); err != nil {
		return 0, wrapErr("開催予定イベント数の取得に失敗しました", err)
	}
	return count, nil
}

// columnTime は TIMESTAMPTZ の精度（マイクロ秒）に丸める
// 書き込み直後の値と再取得した値が一致する
func columnTime(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

// id 列は UUID 型のため、それ以外の文字列は問い合わせるまでもなく存在しない
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
