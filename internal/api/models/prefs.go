package models

// SurveyPlan is a saved survey plan: a named site list plus the
// planning preferences to run it with.
type SurveyPlan struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Sites             []SurveySite `json:"sites"`
	Strategy          Strategy     `json:"strategy"`
	DailyDrivingHours float64      `json:"dailyDrivingHours"`
	SiteVisitMinutes  int          `json:"siteVisitMinutes"`
	StartTimeLocal    string       `json:"startTimeLocal"`
	Notes             *string      `json:"notes,omitempty"`
	CreatedAt         Timestamp    `json:"createdAt"`
	UpdatedAt         Timestamp    `json:"updatedAt"`
}

// SurveySite is one site within a saved plan.
type SurveySite struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Point   Point  `json:"point"`
}

// PagedSurveyPlans is a paginated list of survey plans.
type PagedSurveyPlans struct {
	Items []SurveyPlan      `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// SurveyPlanCreateRequest is the request body for creating a plan.
type SurveyPlanCreateRequest struct {
	Name              string       `json:"name" validate:"required,max=80"`
	Sites             []SurveySite `json:"sites" validate:"required,min=1,max=50"`
	Strategy          Strategy     `json:"strategy,omitempty"`
	DailyDrivingHours float64      `json:"dailyDrivingHours,omitempty" validate:"omitempty,gt=0,lte=16"`
	SiteVisitMinutes  int          `json:"siteVisitMinutes,omitempty" validate:"omitempty,gte=5,lte=480"`
	StartTimeLocal    string       `json:"startTimeLocal,omitempty"`
	Notes             *string      `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// SurveyPlanUpdateRequest is the request body for updating a plan.
// All fields are optional; only provided fields are changed.
type SurveyPlanUpdateRequest struct {
	Name              *string      `json:"name,omitempty"`
	Sites             []SurveySite `json:"sites,omitempty"`
	Strategy          *Strategy    `json:"strategy,omitempty"`
	DailyDrivingHours *float64     `json:"dailyDrivingHours,omitempty"`
	SiteVisitMinutes  *int         `json:"siteVisitMinutes,omitempty"`
	StartTimeLocal    *string      `json:"startTimeLocal,omitempty"`
	Notes             *string      `json:"notes,omitempty"`
}
