package prefs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Sites are stored as a JSONB column; plans are small and always read
// whole.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL survey plan repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const planColumns = `
	id, name, sites,
	strategy, daily_driving_hours, site_visit_minutes,
	start_time_local, notes,
	created_at, updated_at
`

// Get retrieves a plan by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*SurveyPlan, error) {
	query := `SELECT ` + planColumns + ` FROM survey_plans WHERE id = $1`

	plan, err := scanPlan(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// List retrieves plans with pagination, newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `SELECT ` + planColumns + ` FROM survey_plans ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans, err := collectPlans(rows)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Items: plans}
	if len(plans) > limit {
		result.Items = plans[:limit]
		result.NextCursor = plans[limit-1].ID
	}
	return result, nil
}

// ListAll retrieves every plan.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*SurveyPlan, error) {
	query := `SELECT ` + planColumns + ` FROM survey_plans ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPlans(rows)
}

// Create creates a new plan.
func (r *PostgresRepository) Create(ctx context.Context, plan *SurveyPlan) error {
	sites, err := json.Marshal(plan.Sites)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO survey_plans (
			id, name, sites,
			strategy, daily_driving_hours, site_visit_minutes,
			start_time_local, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		plan.ID,
		plan.Name,
		sites,
		plan.Strategy,
		plan.DailyDrivingHours,
		plan.SiteVisitMinutes,
		plan.StartTimeLocal,
		plan.Notes,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	return err
}

// Update updates an existing plan.
func (r *PostgresRepository) Update(ctx context.Context, plan *SurveyPlan) error {
	sites, err := json.Marshal(plan.Sites)
	if err != nil {
		return err
	}

	query := `
		UPDATE survey_plans SET
			name = $2,
			sites = $3,
			strategy = $4,
			daily_driving_hours = $5,
			site_visit_minutes = $6,
			start_time_local = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		plan.ID,
		plan.Name,
		sites,
		plan.Strategy,
		plan.DailyDrivingHours,
		plan.SiteVisitMinutes,
		plan.StartTimeLocal,
		plan.Notes,
		plan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Delete deletes a plan by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM survey_plans WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func scanPlan(row pgx.Row) (*SurveyPlan, error) {
	var plan SurveyPlan
	var sites []byte

	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&sites,
		&plan.Strategy,
		&plan.DailyDrivingHours,
		&plan.SiteVisitMinutes,
		&plan.StartTimeLocal,
		&plan.Notes,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sites, &plan.Sites); err != nil {
		return nil, err
	}
	return &plan, nil
}

func collectPlans(rows pgx.Rows) ([]*SurveyPlan, error) {
	var plans []*SurveyPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
