package main

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/api/handler"
	"github.com/sanosuguru/sportup/internal/application"
	"github.com/sanosuguru/sportup/internal/config"
	"github.com/sanosuguru/sportup/internal/domain/event"
	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
	firebaseinfra "github.com/sanosuguru/sportup/internal/infrastructure/firebase"
	firestoreinfra "github.com/sanosuguru/sportup/internal/infrastructure/firestore"
	"github.com/sanosuguru/sportup/internal/infrastructure/genai"
	"github.com/sanosuguru/sportup/internal/infrastructure/jwtauth"
	"github.com/sanosuguru/sportup/internal/infrastructure/memory"
	"github.com/sanosuguru/sportup/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/sportup/internal/infrastructure/redis"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
)

// app は起動時に組み立てる依存関係一式
type app struct {
	cfg *config.Config

	events   event.Repository
	profiles profile.Repository
	verifier identity.Verifier
	pingers  map[string]handler.Pinger

	locker    application.EventLocker
	cache     application.ListingCache
	blobs     application.BlobStore
	generator application.ContentGenerator
	closers   []func() error
	firebase  *firebase.App
	db        *sqlx.DB
	redis     *goredis.Client
}

// stores だけが必要なコマンド（admin など）は withAuth=false で組み立てる
func buildApp(ctx context.Context, cfg *config.Config, withAuth bool) (*app, error) {
	a := &app{cfg: cfg, pingers: map[string]handler.Pinger{}}
	if err := a.build(ctx, withAuth); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context, withAuth bool) error {
	cfg := a.cfg

	if cfg.UsesFirebase() {
		fb, err := firebaseinfra.NewApp(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
		a.firebase = fb
	}

	if err := a.buildStores(ctx); err != nil {
		return err
	}
	a.buildRedis()

	if cfg.Firebase.StorageBucket != "" {
		blobs, err := firebaseinfra.NewBlobStore(ctx, a.firebase)
		if err != nil {
			return err
		}
		a.blobs = blobs
	}

	if cfg.Suggestion.Enabled() {
		generator, err := genai.NewClient(ctx, &cfg.Suggestion)
		if err != nil {
			return err
		}
		a.generator = generator
	}

	if withAuth {
		return a.buildAuth(ctx)
	}
	return nil
}

func (a *app) buildStores(ctx context.Context) error {
	switch a.cfg.Store.Backend {
	case config.StorePostgres:
		db, err := postgres.NewConnection(&a.cfg.Database)
		if err != nil {
			return err
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		a.events = postgres.NewEventRepository(db)
		a.profiles = postgres.NewProfileRepository(db)
		a.pingers["store"] = postgres.NewPinger(db)

	case config.StoreFirestore:
		client, err := a.firebase.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("Firestoreクライアントの初期化に失敗しました: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.events = firestoreinfra.NewEventRepository(client)
		a.profiles = firestoreinfra.NewProfileRepository(client)

	case config.StoreMemory:
		logger.Warn("インメモリストアを使用します（再起動でデータは失われます）")
		a.events = memory.NewEventRepository()
		a.profiles = memory.NewProfileRepository()

	default:
		return fmt.Errorf("不明なSTORE_BACKENDです: %s", a.cfg.Store.Backend)
	}
	return nil
}

// buildRedis はロックとキャッシュを組み立てる
// 接続できない場合はロック・キャッシュなしで起動する
func (a *app) buildRedis() {
	if !a.cfg.Redis.Enabled {
		return
	}
	client, err := redisinfra.NewClient(&a.cfg.Redis)
	if err != nil {
		logger.Warn("Redisに接続できないため、ロックとキャッシュを無効にして起動します", zap.Error(err))
		return
	}
	a.redis = client
	a.closers = append(a.closers, client.Close)
	a.locker = redisinfra.NewEventLocker(redisinfra.NewLockManager(client), a.cfg.Redis.LockTTL)
	a.cache = redisinfra.NewListingCache(client, a.cfg.Cache.ListingTTL)
	a.pingers["redis"] = redisinfra.NewPinger(client)
}

func (a *app) buildAuth(ctx context.Context) error {
	switch a.cfg.Auth.Mode {
	case config.AuthFirebase:
		v, err := firebaseinfra.NewTokenVerifier(ctx, a.firebase)
		if err != nil {
			return err
		}
		a.verifier = v
	case config.AuthJWT:
		auth, err := jwtauth.New(a.cfg.Auth.JWTSecret, a.cfg.Auth.JWTIssuer, a.cfg.Auth.JWTTTL)
		if err != nil {
			return err
		}
		a.verifier = auth
	default:
		return fmt.Errorf("不明なAUTH_MODEです: %s", a.cfg.Auth.Mode)
	}
	return nil
}

func (a *app) retryPolicy() application.RetryPolicy {
	return application.RetryPolicy{
		MaxAttempts:     a.cfg.Retry.MaxAttempts,
		InitialInterval: a.cfg.Retry.InitialInterval,
		MaxInterval:     a.cfg.Retry.MaxInterval,
	}
}

func (a *app) eventService() *application.EventService {
	return application.NewEventService(a.events, a.locker, a.cache, a.retryPolicy())
}

func (a *app) profileService() *application.ProfileService {
	return application.NewProfileService(a.profiles, a.blobs, a.retryPolicy())
}

func (a *app) suggestionService() *application.SuggestionService {
	return application.NewSuggestionService(a.generator)
}

// Close は開いた接続を逆順に閉じる
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
