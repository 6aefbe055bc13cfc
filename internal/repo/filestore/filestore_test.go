package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/repo"
)

func record(id string) domain.CheckRecord {
	return domain.CheckRecord{
		CheckDescriptor: domain.CheckDescriptor{
			ID:             id,
			OwnerContact:   "+15555550123",
			Protocol:       domain.ProtocolHTTP,
			URL:            "example.com",
			Method:         domain.MethodGet,
			SuccessCodes:   []int{200, 204},
			TimeoutSeconds: 2,
		},
		State: domain.StateUnknown,
	}
}

func TestStore_EmptyDirListsNothing(t *testing.T) {
	s := New(t.TempDir(), repo.ChecksCollection)
	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_CreateWritesFile(t *testing.T) {
	base := t.TempDir()
	s := New(base, repo.ChecksCollection)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, record("c1")))
	_, err := os.Stat(filepath.Join(base, "checks", "c1.json"))
	require.NoError(t, err)

	err = s.Create(ctx, record("c1"))
	assert.True(t, errors.Is(err, repo.ErrExists), "got %v", err)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)
}

func TestStore_UpdateRoundTrip(t *testing.T) {
	s := New(t.TempDir(), repo.ChecksCollection)
	ctx := context.Background()
	rec := record("c1")
	require.NoError(t, s.Create(ctx, rec))

	rec.State = domain.StateUp
	rec.LastChecked = time.UnixMilli(1_700_000_000_456).UTC()
	require.NoError(t, s.Update(ctx, "c1", rec))

	raw, err := s.Read(ctx, "c1")
	require.NoError(t, err)
	got, err := domain.ValidateRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUp, got.State)
	assert.True(t, got.LastChecked.Equal(rec.LastChecked))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids, "temp files must not leak into the listing")
}

func TestStore_MissingRecord(t *testing.T) {
	s := New(t.TempDir(), repo.ChecksCollection)
	ctx := context.Background()

	_, err := s.Read(ctx, "nope")
	assert.True(t, errors.Is(err, repo.ErrNotFound))
	assert.True(t, errors.Is(s.Update(ctx, "nope", record("nope")), repo.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "nope"), repo.ErrNotFound))
}

func TestStore_RejectsPathIDs(t *testing.T) {
	s := New(t.TempDir(), repo.ChecksCollection)
	_, err := s.Read(context.Background(), "../etc/passwd")
	assert.True(t, errors.Is(err, ErrBadID))
}
