// Package prefs provides persistence for saved survey plans: named
// site lists plus the planning preferences to run them with.
package prefs

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrPlanNotFound = errors.New("survey plan not found")
)

// SurveyPlan is a saved survey plan.
type SurveyPlan struct {
	ID                string
	Name              string
	Sites             []Site
	Strategy          string
	DailyDrivingHours float64
	SiteVisitMinutes  int
	StartTimeLocal    string
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Site is one survey site within a saved plan.
type Site struct {
	ID      string  `json:"id"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}
