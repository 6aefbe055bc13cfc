package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/config"
	"github.com/hamed0406/checkwatch/internal/lock"
	"github.com/hamed0406/checkwatch/internal/notify"
	"github.com/hamed0406/checkwatch/internal/repo/filestore"
)

func TestNewNotifier(t *testing.T) {
	log := zap.NewNop()

	_, isLog := newNotifier(config.Config{}, log).(notify.Log)
	assert.True(t, isLog, "no channels configured falls back to the log notifier")

	m, ok := newNotifier(config.Config{
		TwilioAccountSID: "AC1",
		TwilioAuthToken:  "tok",
		TwilioFromPhone:  "+15005550006",
		SlackWebhookURL:  "https://hooks.example.com/x",
	}, log).(notify.Multi)
	require.True(t, ok)
	assert.Len(t, m, 2)
}

func TestOpenStore_FileWhenNoDatabase(t *testing.T) {
	store, closer, err := openStore(context.Background(), config.Config{DataDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	defer closer.Close()
	_, ok := store.(*filestore.Store)
	assert.True(t, ok)
}

func TestNewLocker_LocalWhenNoRedis(t *testing.T) {
	l, closer, err := newLocker(context.Background(), config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer closer.Close()
	_, ok := l.(*lock.Local)
	assert.True(t, ok)
}
