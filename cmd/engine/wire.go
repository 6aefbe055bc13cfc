package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/config"
	"github.com/hamed0406/checkwatch/internal/lock"
	"github.com/hamed0406/checkwatch/internal/notify"
	"github.com/hamed0406/checkwatch/internal/repo"
	"github.com/hamed0406/checkwatch/internal/repo/filestore"
	pg "github.com/hamed0406/checkwatch/internal/repo/postgres"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore picks Postgres when DATABASE_URL is set, else the file store.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repo.CheckStore, io.Closer, error) {
	if cfg.DatabaseURL == "" {
		dir := filepath.Clean(cfg.DataDir)
		log.Info("store_file", zap.String("dir", dir))
		return filestore.New(dir, repo.ChecksCollection), closerFunc(func() error { return nil }), nil
	}
	s, err := pg.New(ctx, cfg.DatabaseURL, repo.ChecksCollection, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, nil, err
	}
	log.Info("store_postgres")
	return s, closerFunc(func() error { s.Close(); return nil }), nil
}

// newLocker uses Redis when REDIS_ADDR is set so several engines can share
// one store.
func newLocker(ctx context.Context, cfg config.Config, log *zap.Logger) (lock.Locker, io.Closer, error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocal(), closerFunc(func() error { return nil }), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("locker_redis", zap.String("addr", cfg.RedisAddr))
	return lock.NewRedis(client, "checkwatch:lock:", cfg.LockTTL, log), client, nil
}

// newNotifier fans out to every configured channel. With none configured
// alerts only go to the log.
func newNotifier(cfg config.Config, log *zap.Logger) notify.Notifier {
	var m notify.Multi
	if cfg.SMSEnabled() {
		m = append(m, notify.NewSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone))
	}
	if s := notify.NewSlack(cfg.SlackWebhookURL); s != nil {
		m = append(m, s)
	}
	if len(m) == 0 {
		log.Warn("no_notifier_configured")
		return notify.Log{Logger: log}
	}
	return m
}
