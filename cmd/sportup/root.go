package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/config"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
)

// cli はサブコマンド間で共有する状態
type cli struct {
	envFile  string
	cfg      *config.Config
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "sportup",
		Short:         "SportUp イベント管理サーバー",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
			if c.closeLog != nil {
				_ = c.closeLog()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "読み込む .env ファイル（存在しない場合は無視）")

	root.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newAdminCmd(c),
		newTokenCmd(c),
	)
	return root
}

// init は .env と環境変数から設定を読み込み、ロガーを初期化する
func (c *cli) init() error {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return err
	}
	c.cfg = config.Load()

	base := logger.NewLogger(c.cfg.Env)
	log, closeLog := logger.WithFile(base, logger.FileOptions{
		Path:       c.cfg.Log.File,
		MaxSizeMB:  c.cfg.Log.MaxSizeMB,
		MaxBackups: c.cfg.Log.MaxBackups,
		MaxAgeDays: c.cfg.Log.MaxAgeDays,
	})
	logger.Set(log)
	c.closeLog = closeLog

	logger.Debug("設定を読み込みました",
		zap.String("env", c.cfg.Env),
		zap.String("store", c.cfg.Store.Backend),
		zap.String("auth", c.cfg.Auth.Mode),
	)
	return nil
}
