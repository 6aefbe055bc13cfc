package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/checkwatch/internal/domain"
)

// ChecksCollection is the collection check records live in.
const ChecksCollection = "checks"

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
)

// CheckStore persists check records keyed by id.
//
// Read returns the stored document as-is so callers can validate it; a
// document written by hand may not be a valid record.
type CheckStore interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, id string) ([]byte, error)
	Create(ctx context.Context, rec domain.CheckRecord) error
	Update(ctx context.Context, id string, rec domain.CheckRecord) error
	Delete(ctx context.Context, id string) error
}
