package models

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestProblem_Write(t *testing.T) {
	p := NewBadRequest("req-123", "bad input", []FieldError{
		{Field: "locations", Message: "is required"},
	})

	rec := httptest.NewRecorder()
	p.Write(rec)

	if rec.Code != 400 {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %s", ct)
	}
	if rid := rec.Header().Get("X-Request-Id"); rid != "req-123" {
		t.Errorf("expected X-Request-Id req-123, got %s", rid)
	}

	var decoded Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if decoded.Type != ProblemTypeValidation {
		t.Errorf("expected type %s, got %s", ProblemTypeValidation, decoded.Type)
	}
	if decoded.Detail != "bad input" {
		t.Errorf("expected detail 'bad input', got %s", decoded.Detail)
	}
	if len(decoded.Errors) != 1 || decoded.Errors[0].Field != "locations" {
		t.Errorf("expected one field error on 'locations', got %+v", decoded.Errors)
	}
}

func TestProblem_Builders(t *testing.T) {
	tests := []struct {
		name    string
		problem *Problem
		status  int
		ptype   string
	}{
		{"not found", NewNotFound("t", "gone"), 404, ProblemTypeNotFound},
		{"conflict", NewConflict("t", "dup"), 409, ProblemTypeConflict},
		{"too many requests", NewTooManyRequests("t", "slow down"), 429, ProblemTypeTooManyRequests},
		{"internal", NewInternalError("t", "boom"), 500, ProblemTypeInternal},
		{"unavailable", NewServiceUnavailable("t", "down"), 503, ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.problem.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.problem.Status)
			}
			if tt.problem.Type != tt.ptype {
				t.Errorf("expected type %s, got %s", tt.ptype, tt.problem.Type)
			}
		})
	}
}

func TestProblem_WithChain(t *testing.T) {
	p := NewProblem(ProblemTypeInternal, "Internal server error", 500, "trace-1").
		WithDetail("detail").
		WithInstance("/v1/routes:optimize").
		WithErrors([]FieldError{{Field: "start", Message: "missing"}})

	if p.Detail != "detail" {
		t.Errorf("unexpected detail %s", p.Detail)
	}
	if p.Instance != "/v1/routes:optimize" {
		t.Errorf("unexpected instance %s", p.Instance)
	}
	if len(p.Errors) != 1 {
		t.Errorf("expected one field error, got %d", len(p.Errors))
	}
}
