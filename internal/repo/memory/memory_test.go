package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/repo"
)

func sampleRecord(id string) domain.CheckRecord {
	return domain.CheckRecord{
		CheckDescriptor: domain.CheckDescriptor{
			ID:             id,
			OwnerContact:   "+15555550123",
			Protocol:       domain.ProtocolHTTPS,
			URL:            "example.com/health",
			Method:         domain.MethodGet,
			SuccessCodes:   []int{200},
			TimeoutSeconds: 3,
		},
		State: domain.StateUnknown,
	}
}

func TestMemoryStore_CreateListRead(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Create(ctx, sampleRecord("b")); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	if err := s.Create(ctx, sampleRecord("a")); err != nil {
		t.Fatalf("Create a: %v", err)
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	raw, err := s.Read(ctx, "a")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	rec, err := domain.ValidateRecord(raw)
	if err != nil {
		t.Fatalf("stored document invalid: %v", err)
	}
	if rec.URL != "example.com/health" || rec.State != domain.StateUnknown {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestMemoryStore_CreateTwiceFails(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Create(ctx, sampleRecord("a")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, sampleRecord("a")); !errors.Is(err, repo.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestMemoryStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := sampleRecord("a")
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec.State = domain.StateDown
	rec.LastChecked = time.UnixMilli(1_700_000_000_123).UTC()
	if err := s.Update(ctx, "a", rec); err != nil {
		t.Fatalf("Update: %v", err)
	}
	raw, _ := s.Read(ctx, "a")
	got, err := domain.ValidateRecord(raw)
	if err != nil {
		t.Fatalf("ValidateRecord: %v", err)
	}
	if got.State != domain.StateDown || !got.LastChecked.Equal(rec.LastChecked) {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read(ctx, "a"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Update(ctx, "a", rec); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("update of deleted record should fail with ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_PutRawIsReturnedVerbatim(t *testing.T) {
	s := New()
	s.PutRaw("x", []byte(`{"id":42}`))
	raw, err := s.Read(context.Background(), "x")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(raw) != `{"id":42}` {
		t.Fatalf("unexpected raw: %s", raw)
	}
}
