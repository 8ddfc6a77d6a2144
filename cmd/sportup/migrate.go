package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/config"
	"github.com/sanosuguru/sportup/internal/infrastructure/postgres"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
)

var errNotPostgres = errors.New("マイグレーションは STORE_BACKEND=postgres の場合のみ使用できます")

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "PostgreSQLスキーマのマイグレーション",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "未適用のマイグレーションを全て適用する",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(c.cfg, func(run migrationRunner) error {
				if err := postgres.RunMigrations(run.db, run.path); err != nil {
					return err
				}
				logger.Info("マイグレーションを適用しました")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "マイグレーションを指定数だけ戻す（既定 1）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps は1以上の整数である必要があります: %s", args[0])
				}
				steps = n
			}
			return withDatabase(c.cfg, func(run migrationRunner) error {
				if err := postgres.RollbackMigrations(run.db, run.path, steps); err != nil {
					return err
				}
				logger.Info("マイグレーションを戻しました", zap.Int("steps", steps))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "現在のマイグレーションバージョンを表示する",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(c.cfg, func(run migrationRunner) error {
				v, dirty, err := postgres.MigrationVersion(run.db, run.path)
				if err != nil {
					return err
				}
				cmd.Printf("version=%d dirty=%t\n", v, dirty)
				return nil
			})
		},
	})

	return cmd
}

type migrationRunner struct {
	db   *sql.DB
	path string
}

func withDatabase(cfg *config.Config, fn func(migrationRunner) error) error {
	if cfg.Store.Backend != config.StorePostgres {
		return errNotPostgres
	}
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(migrationRunner{db: db.DB, path: cfg.Database.MigrationsPath})
}
