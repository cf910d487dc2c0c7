// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"

	"infra-etl/internal/domain"
)

// MockRunRepo implements domain.RunRepository for testing.
type MockRunRepo struct {
	InsertFn func(ctx context.Context, run *domain.EtlRun) error
	FinishFn func(ctx context.Context, id string, completion domain.RunCompletion) error
	ListFn   func(ctx context.Context, limit int) ([]domain.EtlRun, error)
	GetFn    func(ctx context.Context, id string) (*domain.EtlRun, error)

	Inserted    []*domain.EtlRun                // collected inserts for assertions
	Completions map[string]domain.RunCompletion // collected finishes keyed by run id
}

var _ domain.RunRepository = (*MockRunRepo)(nil)

// Insert implements the interface method for testing.
func (m *MockRunRepo) Insert(ctx context.Context, run *domain.EtlRun) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, run); err != nil {
			return err
		}
	}
	m.Inserted = append(m.Inserted, run)
	return nil
}

// Finish implements the interface method for testing.
func (m *MockRunRepo) Finish(ctx context.Context, id string, completion domain.RunCompletion) error {
	if m.FinishFn != nil {
		if err := m.FinishFn(ctx, id, completion); err != nil {
			return err
		}
	}
	if m.Completions == nil {
		m.Completions = make(map[string]domain.RunCompletion)
	}
	m.Completions[id] = completion
	return nil
}

// List implements the interface method for testing.
func (m *MockRunRepo) List(ctx context.Context, limit int) ([]domain.EtlRun, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit)
	}
	panic("unexpected call to MockRunRepo.List")
}

// Get implements the interface method for testing.
func (m *MockRunRepo) Get(ctx context.Context, id string) (*domain.EtlRun, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockRunRepo.Get")
}

// LastInserted returns the last collected run, or nil if none.
func (m *MockRunRepo) LastInserted() *domain.EtlRun {
	if len(m.Inserted) == 0 {
		return nil
	}
	return m.Inserted[len(m.Inserted)-1]
}

// CompletionFor returns the recorded completion for a run id.
func (m *MockRunRepo) CompletionFor(id string) (domain.RunCompletion, bool) {
	c, ok := m.Completions[id]
	return c, ok
}
