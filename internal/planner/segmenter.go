package planner

import (
	"time"

	"github.com/rs/zerolog"
)

// DayStartFunc returns the start-of-work time for the given calendar
// day at the given stop. The default uses the configured fixed hour;
// the service substitutes sunrise data when available.
type DayStartFunc func(day time.Time, loc Location) time.Time

// Segmenter partitions an ordered, leg-annotated sequence into
// calendar-day segments bounded by the daily driving budget and the
// working-day window.
type Segmenter struct {
	cfg      Config
	dayStart DayStartFunc
	logger   zerolog.Logger
}

// NewSegmenter creates a segmenter. dayStart may be nil, in which case
// the configured fixed start hour is used for every day.
func NewSegmenter(cfg Config, dayStart DayStartFunc, logger zerolog.Logger) *Segmenter {
	cfg = cfg.withDefaults()
	s := &Segmenter{cfg: cfg, dayStart: dayStart, logger: logger}
	if s.dayStart == nil {
		s.dayStart = func(day time.Time, _ Location) time.Time {
			return atHour(day, cfg.WorkDayStartHour)
		}
	}
	return s
}

// Split walks the ordered sequence and produces the day-segmented
// itinerary. legs must have exactly len(ordered)-1 entries, legs[i]
// describing the drive from ordered[i] to ordered[i+1].
func (s *Segmenter) Split(ordered []Location, legs []Leg, startTime time.Time) (*Itinerary, error) {
	if len(ordered) < 2 {
		return nil, ErrInsufficientLocations
	}

	visitDur := s.cfg.visitDuration()
	budget := s.cfg.drivingBudget()

	segments := make([]DaySegment, 0, 4)

	// The start point seeds day 1 at the requested departure time with
	// zero drive time.
	first := newStop(ordered[0], startTime, startTime.Add(visitDur))
	seg := DaySegment{
		DayNumber: 1,
		Stops:     []Stop{first},
		StartTime: startTime,
	}
	currentTime := first.DepartureTime
	var segDriving time.Duration

	for i := 1; i < len(ordered); i++ {
		loc := ordered[i]
		leg := legs[i-1]
		travel := secondsToDuration(leg.DurationSeconds)

		visit := visitDur
		if loc.IsWaypoint {
			visit = 0
		}

		arrival := currentTime.Add(travel)
		departure := arrival.Add(visit)
		dayEnd := atHour(currentTime, s.cfg.WorkDayEndHour)

		lateStart := i == 1 && !startTime.Before(atHour(startTime, s.cfg.LateStartHour))
		rollover := lateStart ||
			departure.After(dayEnd) ||
			segDriving+travel+visit > budget

		if rollover {
			// Close the current day and place the pending location as
			// the first stop of the next one. The overnight leg is
			// driven outside the working day, so it stays off the
			// closed day's stops and totals; only the itinerary-wide
			// totals account for it.
			last := &seg.Stops[len(seg.Stops)-1]
			seg.EndTime = last.DepartureTime
			seg.DrivingDurationSeconds = segDriving.Seconds()
			segments = append(segments, seg)

			if len(segments) >= s.cfg.MaxSegments {
				return nil, ErrTooManySegments
			}

			dayStart := s.dayStart(currentTime.AddDate(0, 0, 1), loc)

			arrival = dayStart
			departure = arrival.Add(visit)
			seg = DaySegment{
				DayNumber: segments[len(segments)-1].DayNumber + 1,
				Stops:     []Stop{newStop(loc, arrival, departure)},
				StartTime: dayStart,
			}
			segDriving = 0
			currentTime = departure
			continue
		}

		last := &seg.Stops[len(seg.Stops)-1]
		last.DistanceToNext = leg.DistanceMeters
		last.DurationToNext = leg.DurationSeconds
		seg.DrivingDistanceMeters += leg.DistanceMeters

		seg.Stops = append(seg.Stops, newStop(loc, arrival, departure))
		segDriving += travel
		currentTime = departure
	}

	seg.EndTime = currentTime
	seg.DrivingDurationSeconds = segDriving.Seconds()
	segments = append(segments, seg)

	itinerary := &Itinerary{
		Segments:     segments,
		NumberOfDays: len(segments),
		GeneratedAt:  time.Now(),
	}
	for _, leg := range legs {
		itinerary.TotalDistanceMeters += leg.DistanceMeters
		itinerary.TotalDurationSeconds += leg.DurationSeconds
	}

	s.logger.Debug().
		Int("days", itinerary.NumberOfDays).
		Float64("total_distance_m", itinerary.TotalDistanceMeters).
		Msg("segmented route into days")

	return itinerary, nil
}

func newStop(loc Location, arrival, departure time.Time) Stop {
	return Stop{
		Location:      loc,
		ArrivalTime:   arrival,
		DepartureTime: departure,
	}
}

// atHour returns the given day's wall clock at the given hour.
func atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
