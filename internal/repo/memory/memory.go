package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Store keeps the latest outcome for every domain it has seen.
type Store struct {
	mu     sync.RWMutex
	latest map[string]domain.CheckOutcome
}

func New() *Store {
	return &Store{latest: make(map[string]domain.CheckOutcome)}
}

func (m *Store) Append(ctx context.Context, o domain.CheckOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.latest[o.Domain]
	if !ok || !o.CheckedAt.Before(cur.CheckedAt) {
		m.latest[o.Domain] = o
	}
	return nil
}

// Latest returns one outcome per domain, sorted by domain.
func (m *Store) Latest(ctx context.Context) ([]domain.CheckOutcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CheckOutcome, 0, len(m.latest))
	for _, o := range m.latest {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}
