package prefs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/surveyroute/surveyroute/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength  = 80
	MaxNotesLength = 500
	MaxSites       = 50

	MaxDailyDrivingHours = 16
	MinSiteVisitMinutes  = 5
	MaxSiteVisitMinutes  = 480
)

// timeHHMMRegex validates HH:mm format.
var timeHHMMRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Service provides survey plan operations.
type Service struct {
	repo Repository
}

// NewService creates a new survey plan service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves survey plans.
func (s *Service) List(ctx context.Context, limit int) (*models.PagedSurveyPlans, error) {
	result, err := s.repo.List(ctx, ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	items := make([]models.SurveyPlan, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, s.toAPIPlan(p))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedSurveyPlans{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a survey plan by ID.
func (s *Service) Get(ctx context.Context, planID string) (*models.SurveyPlan, error) {
	plan, err := s.repo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	result := s.toAPIPlan(plan)
	return &result, nil
}

// Create creates a new survey plan.
func (s *Service) Create(ctx context.Context, input *models.SurveyPlanCreateRequest) (*models.SurveyPlan, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	plan := &SurveyPlan{
		ID:                "pln_" + uuid.New().String()[:22],
		Name:              input.Name,
		Sites:             toDomainSites(input.Sites),
		Strategy:          strategyOrDefault(input.Strategy),
		DailyDrivingHours: input.DailyDrivingHours,
		SiteVisitMinutes:  input.SiteVisitMinutes,
		StartTimeLocal:    input.StartTimeLocal,
		Notes:             input.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, err
	}

	result := s.toAPIPlan(plan)
	return &result, nil
}

// Update updates an existing survey plan.
func (s *Service) Update(ctx context.Context, planID string, input *models.SurveyPlanUpdateRequest) (*models.SurveyPlan, error) {
	plan, err := s.repo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	if fieldErrors := s.validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		plan.Name = *input.Name
	}
	if input.Sites != nil {
		plan.Sites = toDomainSites(input.Sites)
	}
	if input.Strategy != nil {
		plan.Strategy = string(*input.Strategy)
	}
	if input.DailyDrivingHours != nil {
		plan.DailyDrivingHours = *input.DailyDrivingHours
	}
	if input.SiteVisitMinutes != nil {
		plan.SiteVisitMinutes = *input.SiteVisitMinutes
	}
	if input.StartTimeLocal != nil {
		plan.StartTimeLocal = *input.StartTimeLocal
	}
	if input.Notes != nil {
		plan.Notes = input.Notes
	}
	plan.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, err
	}

	result := s.toAPIPlan(plan)
	return &result, nil
}

// Delete deletes a survey plan.
func (s *Service) Delete(ctx context.Context, planID string) error {
	if _, err := s.repo.Get(ctx, planID); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	return s.repo.Delete(ctx, planID)
}

// validateCreateInput validates a create request.
func (s *Service) validateCreateInput(input *models.SurveyPlanCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 80 characters"})
	}

	errs = append(errs, s.validateSites(input.Sites, true)...)

	if input.Strategy != "" && input.Strategy != models.StrategyDistance && input.Strategy != models.StrategyWeather {
		errs = append(errs, models.FieldError{Field: "strategy", Message: "must be distance or weather"})
	}

	if input.DailyDrivingHours < 0 || input.DailyDrivingHours > MaxDailyDrivingHours {
		errs = append(errs, models.FieldError{Field: "dailyDrivingHours", Message: "must be between 0 and 16"})
	}

	if input.SiteVisitMinutes != 0 && (input.SiteVisitMinutes < MinSiteVisitMinutes || input.SiteVisitMinutes > MaxSiteVisitMinutes) {
		errs = append(errs, models.FieldError{Field: "siteVisitMinutes", Message: "must be between 5 and 480"})
	}

	if input.StartTimeLocal != "" && !timeHHMMRegex.MatchString(input.StartTimeLocal) {
		errs = append(errs, models.FieldError{Field: "startTimeLocal", Message: "must be in HH:mm format"})
	}

	if input.Notes != nil && len(*input.Notes) > MaxNotesLength {
		errs = append(errs, models.FieldError{Field: "notes", Message: "must be at most 500 characters"})
	}

	return errs
}

// validateUpdateInput validates an update request.
func (s *Service) validateUpdateInput(input *models.SurveyPlanUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name != nil {
		if *input.Name == "" {
			errs = append(errs, models.FieldError{Field: "name", Message: "cannot be empty"})
		} else if len(*input.Name) > MaxNameLength {
			errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 80 characters"})
		}
	}

	if input.Sites != nil {
		errs = append(errs, s.validateSites(input.Sites, false)...)
	}

	if input.Strategy != nil && *input.Strategy != models.StrategyDistance && *input.Strategy != models.StrategyWeather {
		errs = append(errs, models.FieldError{Field: "strategy", Message: "must be distance or weather"})
	}

	if input.DailyDrivingHours != nil && (*input.DailyDrivingHours <= 0 || *input.DailyDrivingHours > MaxDailyDrivingHours) {
		errs = append(errs, models.FieldError{Field: "dailyDrivingHours", Message: "must be between 0 and 16"})
	}

	if input.SiteVisitMinutes != nil && (*input.SiteVisitMinutes < MinSiteVisitMinutes || *input.SiteVisitMinutes > MaxSiteVisitMinutes) {
		errs = append(errs, models.FieldError{Field: "siteVisitMinutes", Message: "must be between 5 and 480"})
	}

	if input.StartTimeLocal != nil && !timeHHMMRegex.MatchString(*input.StartTimeLocal) {
		errs = append(errs, models.FieldError{Field: "startTimeLocal", Message: "must be in HH:mm format"})
	}

	if input.Notes != nil && len(*input.Notes) > MaxNotesLength {
		errs = append(errs, models.FieldError{Field: "notes", Message: "must be at most 500 characters"})
	}

	return errs
}

// validateSites validates a site list.
func (s *Service) validateSites(sites []models.SurveySite, required bool) []models.FieldError {
	if len(sites) == 0 {
		if required {
			return []models.FieldError{{Field: "sites", Message: "is required"}}
		}
		return []models.FieldError{{Field: "sites", Message: "cannot be empty"}}
	}
	if len(sites) > MaxSites {
		return []models.FieldError{{Field: "sites", Message: "must contain at most 50 sites"}}
	}

	var errs []models.FieldError
	for i, site := range sites {
		if site.Point.Lat < -90 || site.Point.Lat > 90 {
			errs = append(errs, models.FieldError{
				Field:   fmt.Sprintf("sites[%d].point.lat", i),
				Message: "must be between -90 and 90",
			})
		}
		if site.Point.Lon < -180 || site.Point.Lon > 180 {
			errs = append(errs, models.FieldError{
				Field:   fmt.Sprintf("sites[%d].point.lon", i),
				Message: "must be between -180 and 180",
			})
		}
	}
	return errs
}

// toAPIPlan converts a domain plan to an API plan.
func (s *Service) toAPIPlan(p *SurveyPlan) models.SurveyPlan {
	sites := make([]models.SurveySite, 0, len(p.Sites))
	for _, site := range p.Sites {
		sites = append(sites, models.SurveySite{
			ID:      site.ID,
			Address: site.Address,
			Point:   models.Point{Lat: site.Lat, Lon: site.Lon},
		})
	}

	return models.SurveyPlan{
		ID:                p.ID,
		Name:              p.Name,
		Sites:             sites,
		Strategy:          models.Strategy(p.Strategy),
		DailyDrivingHours: p.DailyDrivingHours,
		SiteVisitMinutes:  p.SiteVisitMinutes,
		StartTimeLocal:    p.StartTimeLocal,
		Notes:             p.Notes,
		CreatedAt:         models.Timestamp(p.CreatedAt),
		UpdatedAt:         models.Timestamp(p.UpdatedAt),
	}
}

func toDomainSites(sites []models.SurveySite) []Site {
	out := make([]Site, 0, len(sites))
	for _, site := range sites {
		out = append(out, Site{
			ID:      site.ID,
			Address: site.Address,
			Lat:     site.Point.Lat,
			Lon:     site.Point.Lon,
		})
	}
	return out
}

func strategyOrDefault(s models.Strategy) string {
	if s == "" {
		return string(models.StrategyDistance)
	}
	return string(s)
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
