package planner

import (
	"fmt"
	"time"
)

// AuditReport is the structured consistency report for an itinerary.
// An empty Issues list is the success case.
type AuditReport struct {
	Issues []string     `json:"issues"`
	Stops  []StopReport `json:"stops"`
}

// OK reports whether the audit found no issues.
func (r *AuditReport) OK() bool {
	return len(r.Issues) == 0
}

// StopReport summarizes one scheduled stop for the audit report.
type StopReport struct {
	Address        string  `json:"address"`
	ArrivalTime    string  `json:"arrival_time"`
	DistanceToNext float64 `json:"distance_to_next_m"`
	DurationToNext float64 `json:"duration_to_next_s"`
	HasWeather     bool    `json:"has_weather"`
	IsWaypoint     bool    `json:"is_waypoint"`
}

// Auditor validates scheduling invariants on a computed itinerary. It
// is read-only: findings are reported, never fixed, and the itinerary
// is never mutated.
type Auditor struct {
	cfg Config
}

// NewAuditor creates an auditor with the given configuration.
func NewAuditor(cfg Config) *Auditor {
	return &Auditor{cfg: cfg.withDefaults()}
}

// Audit checks monotonic arrival times, weather presence, and the
// late-start rollover rule, producing a structured report.
func (a *Auditor) Audit(it *Itinerary) *AuditReport {
	report := &AuditReport{Issues: []string{}}

	stops := it.Stops()
	report.Stops = make([]StopReport, 0, len(stops))

	var prevArrival time.Time
	for i, stop := range stops {
		report.Stops = append(report.Stops, StopReport{
			Address:        stop.Address,
			ArrivalTime:    formatArrival(stop.ArrivalTime),
			DistanceToNext: stop.DistanceToNext,
			DurationToNext: stop.DurationToNext,
			HasWeather:     stop.HasWeather(),
			IsWaypoint:     stop.IsWaypoint,
		})

		if stop.ArrivalTime.IsZero() {
			report.Issues = append(report.Issues,
				fmt.Sprintf("stop %q has no arrival time", stop.Address))
		}

		if !stop.IsWaypoint && !stop.HasWeather() {
			report.Issues = append(report.Issues,
				fmt.Sprintf("stop %q has no weather data", stop.Address))
		}

		if i > 0 && !stop.ArrivalTime.After(prevArrival) {
			report.Issues = append(report.Issues,
				fmt.Sprintf("arrival time at %q (%s) is not after the previous stop (%s)",
					stop.Address, formatArrival(stop.ArrivalTime), formatArrival(prevArrival)))
		}
		prevArrival = stop.ArrivalTime
	}

	a.auditLateStart(it, stops, report)

	return report
}

// auditLateStart flags a first driving arrival scheduled on the same
// calendar day as a start at or past the late-start cutoff.
func (a *Auditor) auditLateStart(it *Itinerary, stops []Stop, report *AuditReport) {
	if len(stops) < 2 || len(it.Segments) == 0 {
		return
	}

	start := stops[0].ArrivalTime
	if start.IsZero() || start.Before(atHour(start, a.cfg.LateStartHour)) {
		return
	}

	firstDriven := stops[1].ArrivalTime
	sy, sm, sd := start.Date()
	fy, fm, fd := firstDriven.Date()
	if sy == fy && sm == fm && sd == fd {
		report.Issues = append(report.Issues,
			fmt.Sprintf("start at %s is past the %02d:00 cutoff but the first driving arrival (%s) is on the same day",
				formatArrival(start), a.cfg.LateStartHour, formatArrival(firstDriven)))
	}
}

func formatArrival(t time.Time) string {
	if t.IsZero() {
		return "unscheduled"
	}
	return t.Format("Mon Jan 2 15:04")
}
