package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sanosuguru/sportup/internal/config"
)

// NewConnection はPostgreSQLへの接続を作成する
func NewConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, wrapErr("データベース接続に失敗しました", err)
	}

	// 接続プール設定
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// Pinger はヘルスチェック用にDB接続を確認する
type Pinger struct {
	db *sqlx.DB
}

// NewPinger はPingerを作成する
func NewPinger(db *sqlx.DB) *Pinger {
	return &Pinger{db: db}
}

// Ping はデータベース接続を確認する
func (p *Pinger) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return wrapErr(fmt.Sprintf("postgres ping 失敗(%s)", p.db.DriverName()), err)
	}
	return nil
}
