package checkpoint

import (
	"context"
	"sort"
	"sync"

	"github.com/pdiddy/report-engine/pkg/types"
)

// MemoryStore keeps checkpoints for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	sums map[string]Summary
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}, sums: map[string]Summary{}}
}

// Save stores a copy of st.
func (m *MemoryStore) Save(_ context.Context, st *types.ReportState) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[st.WorkflowID] = data
	m.sums[st.WorkflowID] = summarize(st)
	return nil
}

// Load returns a fresh copy of the stored state.
func (m *MemoryStore) Load(_ context.Context, id string) (*types.ReportState, error) {
	m.mu.RLock()
	data, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return decode(id, data)
}

// Delete removes a checkpoint. Deleting an unknown ID is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	delete(m.sums, id)
	return nil
}

// List returns stored workflows, most recently updated first.
func (m *MemoryStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.sums))
	for _, s := range m.sums {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sortSummaries(out)
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].ID < s[j].ID
	})
}
