// Package repositorytest provides an in-memory checklist store for tests.
package repositorytest

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/planmeet/internal/domain"
	"github.com/spec-kit/planmeet/internal/repository"
)

type key struct{ id, team string }

// MemoryChecklistRepository keeps items in insertion order and counts writes.
type MemoryChecklistRepository struct {
	mu       sync.Mutex
	order    []key
	items    map[key]domain.ChecklistItem
	writes   int
	failures map[string]error
	listErr  error
}

var _ repository.ChecklistRepository = (*MemoryChecklistRepository)(nil)

// NewMemoryChecklistRepository returns an empty store.
func NewMemoryChecklistRepository() *MemoryChecklistRepository {
	return &MemoryChecklistRepository{
		items:    make(map[key]domain.ChecklistItem),
		failures: make(map[string]error),
	}
}

// FailMarkSubmitted makes MarkSubmitted on id return err.
func (m *MemoryChecklistRepository) FailMarkSubmitted(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = err
}

// FailList makes every List call return err.
func (m *MemoryChecklistRepository) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// Writes reports how many mutating calls changed the store.
func (m *MemoryChecklistRepository) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Snapshot returns every stored item in insertion order.
func (m *MemoryChecklistRepository) Snapshot() []domain.ChecklistItem {
	items, _ := m.List(context.Background(), repository.ChecklistFilter{})
	return items
}

func (m *MemoryChecklistRepository) Create(_ context.Context, item *domain.ChecklistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{item.ID, item.AssignedTeam}
	if _, ok := m.items[k]; !ok {
		m.order = append(m.order, k)
	}
	m.items[k] = *item
	m.writes++
	return nil
}

func (m *MemoryChecklistRepository) Get(_ context.Context, id, team string) (*domain.ChecklistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key{id, team}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (m *MemoryChecklistRepository) List(_ context.Context, filter repository.ChecklistFilter) ([]domain.ChecklistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := []domain.ChecklistItem{}
	for _, k := range m.order {
		item, ok := m.items[k]
		if ok && filter.Matches(&item) {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *MemoryChecklistRepository) UpdateStatus(_ context.Context, id, team string, status domain.ChecklistStatus, at time.Time) (*domain.ChecklistItem, error) {
	return m.update(id, team, func(item *domain.ChecklistItem) error {
		item.Status = status
		item.UpdatedAt = at
		return nil
	})
}

func (m *MemoryChecklistRepository) UpdateContent(_ context.Context, id, team, title, description string, at time.Time) (*domain.ChecklistItem, error) {
	return m.update(id, team, func(item *domain.ChecklistItem) error {
		item.Title = title
		item.Description = description
		item.UpdatedAt = at
		return nil
	})
}

func (m *MemoryChecklistRepository) Delete(_ context.Context, id, team string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{id, team}
	if _, ok := m.items[k]; !ok {
		return nil
	}
	delete(m.items, k)
	for i, existing := range m.order {
		if existing == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.writes++
	return nil
}

func (m *MemoryChecklistRepository) MarkSubmitted(_ context.Context, id, team string, at time.Time) (*domain.ChecklistItem, error) {
	m.mu.Lock()
	err := m.failures[id]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.update(id, team, func(item *domain.ChecklistItem) error {
		if item.Submitted {
			return repository.ErrAlreadySubmitted
		}
		item.Submitted = true
		item.SubmittedAt = &at
		return nil
	})
}

func (m *MemoryChecklistRepository) Ping(context.Context) error {
	return nil
}

func (m *MemoryChecklistRepository) update(id, team string, apply func(*domain.ChecklistItem) error) (*domain.ChecklistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{id, team}
	item, ok := m.items[k]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := apply(&item); err != nil {
		return nil, err
	}
	m.items[k] = item
	m.writes++
	return &item, nil
}
