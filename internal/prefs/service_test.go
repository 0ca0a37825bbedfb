package prefs_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/surveyroute/surveyroute/internal/api/models"
	"github.com/surveyroute/surveyroute/internal/prefs"
)

func validCreateRequest() *models.SurveyPlanCreateRequest {
	return &models.SurveyPlanCreateRequest{
		Name: "North Field Survey",
		Sites: []models.SurveySite{
			{ID: "s1", Address: "12 Polder Rd", Point: models.Point{Lat: 52.370216, Lon: 4.895168}},
			{ID: "s2", Address: "34 Dike Ln", Point: models.Point{Lat: 52.308056, Lon: 4.763889}},
		},
		Strategy:          models.StrategyWeather,
		DailyDrivingHours: 8,
		SiteVisitMinutes:  45,
		StartTimeLocal:    "07:30",
	}
}

func TestService_Create(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())
	ctx := context.Background()

	result, err := service.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	if result.ID == "" {
		t.Error("expected plan ID to be set")
	}
	if !strings.HasPrefix(result.ID, "pln_") {
		t.Errorf("expected plan ID to start with 'pln_', got %q", result.ID)
	}
	if result.Name != "North Field Survey" {
		t.Errorf("unexpected name %q", result.Name)
	}
	if len(result.Sites) != 2 {
		t.Errorf("expected 2 sites, got %d", len(result.Sites))
	}
	if result.Strategy != models.StrategyWeather {
		t.Errorf("unexpected strategy %q", result.Strategy)
	}
}

func TestService_Create_DefaultsStrategy(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())

	input := validCreateRequest()
	input.Strategy = ""

	result, err := service.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}
	if result.Strategy != models.StrategyDistance {
		t.Errorf("expected default strategy distance, got %q", result.Strategy)
	}
}

func TestService_Create_ValidationErrors(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())
	ctx := context.Background()

	longNotes := strings.Repeat("n", 501)

	tests := []struct {
		name      string
		mutate    func(*models.SurveyPlanCreateRequest)
		wantField string
	}{
		{
			name:      "empty name",
			mutate:    func(r *models.SurveyPlanCreateRequest) { r.Name = "" },
			wantField: "name",
		},
		{
			name:      "name too long",
			mutate:    func(r *models.SurveyPlanCreateRequest) { r.Name = strings.Repeat("a", 81) },
			wantField: "name",
		},
		{
			name:      "no sites",
			mutate:    func(r *models.SurveyPlanCreateRequest) { r.Sites = nil },
			wantField: "sites",
		},
		{
			name: "invalid latitude",
			mutate: func(r *models.SurveyPlanCreateRequest) {
				r.Sites[0].Point.Lat = 91
			},
			wantField: "sites[0].point.lat",
		},
		{
			name:      "unknown strategy",
			mutate:    func(r *models.SurveyPlanCreateRequest) { r.Strategy = "fastest" },
			wantField: "strategy",
		},
		{
			name:      "driving hours too high",
			mutate:    func(r *models.SurveyPlanCreateRequest) { r.DailyDrivingHours = 20 },
			wantField: "dailyDrivingHours",
		},
		{
			name:      "visit minutes too low",
			mutate:    func(r *models.SurveyPlanCreateRequest) { r.SiteVisitMinutes = 2 },
			wantField: "siteVisitMinutes",
		},
		{
			name:      "bad start time",
			mutate:    func(r *models.SurveyPlanCreateRequest) { r.StartTimeLocal = "25:99" },
			wantField: "startTimeLocal",
		},
		{
			name:      "notes too long",
			mutate:    func(r *models.SurveyPlanCreateRequest) { r.Notes = &longNotes },
			wantField: "notes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateRequest()
			tt.mutate(input)

			_, err := service.Create(ctx, input)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var vErr *prefs.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, fe := range vErr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field error on %q, got %+v", tt.wantField, vErr.Errors)
			}
		})
	}
}

func TestService_Get(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())
	ctx := context.Background()

	created, err := service.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	got, err := service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("failed to get plan: %v", err)
	}
	if got.Name != created.Name {
		t.Errorf("expected name %q, got %q", created.Name, got.Name)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())

	_, err := service.Get(context.Background(), "pln_missing")
	if !errors.Is(err, prefs.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())
	ctx := context.Background()

	created, err := service.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	newName := "South Field Survey"
	newHours := 6.0
	updated, err := service.Update(ctx, created.ID, &models.SurveyPlanUpdateRequest{
		Name:              &newName,
		DailyDrivingHours: &newHours,
	})
	if err != nil {
		t.Fatalf("failed to update plan: %v", err)
	}

	if updated.Name != newName {
		t.Errorf("expected name %q, got %q", newName, updated.Name)
	}
	if updated.DailyDrivingHours != newHours {
		t.Errorf("expected hours %v, got %v", newHours, updated.DailyDrivingHours)
	}
	if len(updated.Sites) != 2 {
		t.Errorf("sites should be unchanged, got %d", len(updated.Sites))
	}
}

func TestService_Update_Validation(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())
	ctx := context.Background()

	created, err := service.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	empty := ""
	_, err = service.Update(ctx, created.ID, &models.SurveyPlanUpdateRequest{Name: &empty})

	var vErr *prefs.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())
	ctx := context.Background()

	created, err := service.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	if err := service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("failed to delete plan: %v", err)
	}

	_, err = service.Get(ctx, created.ID)
	if !errors.Is(err, prefs.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound after delete, got %v", err)
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())

	err := service.Delete(context.Background(), "pln_missing")
	if !errors.Is(err, prefs.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestService_List(t *testing.T) {
	service := prefs.NewService(prefs.NewInMemoryRepository())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		input := validCreateRequest()
		input.Name = input.Name + strings.Repeat("!", i)
		if _, err := service.Create(ctx, input); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}
	}

	result, err := service.List(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list plans: %v", err)
	}
	if len(result.Items) != 3 {
		t.Errorf("expected 3 plans, got %d", len(result.Items))
	}
}
