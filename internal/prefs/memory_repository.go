package prefs

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development. Production
// should use PostgresRepository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	plans map[string]*SurveyPlan
}

// NewInMemoryRepository creates a new in-memory survey plan repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		plans: make(map[string]*SurveyPlan),
	}
}

// Get retrieves a plan by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*SurveyPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}

	cpy := *p
	return &cpy, nil
}

// List retrieves plans with pagination, newest first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	plans := r.snapshot()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	result := &ListResult{Items: plans}
	if len(plans) > limit {
		result.Items = plans[:limit]
		result.NextCursor = plans[limit-1].ID
	}
	return result, nil
}

// ListAll retrieves every plan.
func (r *InMemoryRepository) ListAll(_ context.Context) ([]*SurveyPlan, error) {
	return r.snapshot(), nil
}

// Create creates a new plan.
func (r *InMemoryRepository) Create(_ context.Context, p *SurveyPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *p
	r.plans[p.ID] = &cpy
	return nil
}

// Update updates an existing plan.
func (r *InMemoryRepository) Update(_ context.Context, p *SurveyPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[p.ID]; !ok {
		return ErrPlanNotFound
	}

	cpy := *p
	r.plans[p.ID] = &cpy
	return nil
}

// Delete deletes a plan by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.plans, id)
	return nil
}

func (r *InMemoryRepository) snapshot() []*SurveyPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plans := make([]*SurveyPlan, 0, len(r.plans))
	for _, p := range r.plans {
		cpy := *p
		plans = append(plans, &cpy)
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
