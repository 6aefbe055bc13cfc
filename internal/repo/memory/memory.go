package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/repo"
)

// Store keeps documents in memory. It is used in tests and local runs.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// PutRaw stores b under id without validation.
func (m *Store) PutRaw(id string, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = append([]byte(nil), b...)
}

func (m *Store) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.docs))
	for id := range m.docs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Store) Read(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", id, repo.ErrNotFound)
	}
	return append([]byte(nil), b...), nil
}

func (m *Store) Create(ctx context.Context, rec domain.CheckRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[rec.ID]; ok {
		return fmt.Errorf("create %s: %w", rec.ID, repo.ErrExists)
	}
	m.docs[rec.ID] = b
	return nil
}

func (m *Store) Update(ctx context.Context, id string, rec domain.CheckRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("update %s: %w", id, repo.ErrNotFound)
	}
	m.docs[id] = b
	return nil
}

func (m *Store) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, repo.ErrNotFound)
	}
	delete(m.docs, id)
	return nil
}
