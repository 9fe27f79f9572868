package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the requested schedule entity does not exist.
	ErrNotFound = errors.New("schedule: not found")
	// ErrBreakOutsideWork indicates a break that leaves its work interval's bounds.
	ErrBreakOutsideWork = errors.New("schedule: break outside working hours")
	// ErrBreakOverlap indicates a break colliding with an existing one.
	ErrBreakOverlap = errors.New("schedule: break overlaps an existing break")
)

// WorkInterval is the local start/end time-of-day an employee works on a
// given weekday, plus the IANA zone those clock values are expressed in.
type WorkInterval struct {
	ID          uuid.UUID
	EmployeeID  uuid.UUID
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Timezone    string
}

// NewWorkInterval validates bounds and the timezone before constructing.
func NewWorkInterval(employeeID uuid.UUID, weekday time.Weekday, startMinute, endMinute int, timezone string) (*WorkInterval, error) {
	if startMinute < 0 || endMinute > 24*60 || startMinute >= endMinute {
		return nil, fmt.Errorf("schedule: work interval %s-%s is not a valid range",
			FormatClock(startMinute), FormatClock(endMinute))
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("schedule: unknown timezone %q: %w", timezone, err)
	}
	return &WorkInterval{
		ID:          uuid.New(),
		EmployeeID:  employeeID,
		Weekday:     weekday,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Timezone:    timezone,
	}, nil
}

// Location resolves the interval's IANA zone. Validated at construction,
// so a load failure here means the row was written by something else.
func (w *WorkInterval) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule: unknown timezone %q: %w", w.Timezone, err)
	}
	return loc, nil
}

// BreakInterval is a sub-interval of a WorkInterval during which no slot
// may be offered.
type BreakInterval struct {
	ID             uuid.UUID
	WorkIntervalID uuid.UUID
	StartMinute    int
	EndMinute      int
}

// NewBreakInterval constructs a break, enforcing containment within the
// owning work interval and non-overlap with the breaks already present.
func NewBreakInterval(work *WorkInterval, existing []BreakInterval, startMinute, endMinute int) (*BreakInterval, error) {
	if startMinute >= endMinute {
		return nil, fmt.Errorf("schedule: break %s-%s is not a valid range",
			FormatClock(startMinute), FormatClock(endMinute))
	}
	if startMinute < work.StartMinute || endMinute > work.EndMinute {
		return nil, ErrBreakOutsideWork
	}
	for _, b := range existing {
		if Overlaps(startMinute, endMinute, b.StartMinute, b.EndMinute) {
			return nil, ErrBreakOverlap
		}
	}
	return &BreakInterval{
		ID:             uuid.New(),
		WorkIntervalID: work.ID,
		StartMinute:    startMinute,
		EndMinute:      endMinute,
	}, nil
}

// WeeklySchedule maps a weekday to at most one work interval.
type WeeklySchedule map[time.Weekday]*WorkInterval
