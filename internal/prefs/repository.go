package prefs

import "context"

// ListOptions contains options for listing survey plans.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing survey plans.
type ListResult struct {
	Items      []*SurveyPlan
	NextCursor string
}

// Repository defines the interface for survey plan persistence.
type Repository interface {
	// Get retrieves a plan by ID. Returns ErrPlanNotFound if the plan
	// doesn't exist.
	Get(ctx context.Context, id string) (*SurveyPlan, error)

	// List retrieves plans with pagination, newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// ListAll retrieves every plan, for the prefetch worker.
	ListAll(ctx context.Context) ([]*SurveyPlan, error)

	// Create creates a new plan.
	Create(ctx context.Context, plan *SurveyPlan) error

	// Update updates an existing plan.
	Update(ctx context.Context, plan *SurveyPlan) error

	// Delete deletes a plan by ID.
	Delete(ctx context.Context, id string) error
}
