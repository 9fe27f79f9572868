package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/bookline/booking-platform/internal/availability"
	"github.com/bookline/booking-platform/internal/schedule"
)

// ErrOutOfRange rejects months outside the bookable window. It is a
// user-facing signal, not a failure of the builder itself.
var ErrOutOfRange = errors.New("calendar: month outside the bookable window")

// DayClass classifies one day of the rendered month.
type DayClass int

const (
	// DayPast is a date before today.
	DayPast DayClass = iota
	// DayNotWorking has no work interval for its weekday.
	DayNotWorking
	// DayFullyBooked has a work interval but no offerable slot left.
	DayFullyBooked
	// DayAvailable carries the affordance to proceed to time selection.
	DayAvailable
)

// DayCell is the classification of a single day in the month view.
type DayCell struct {
	Day   int
	Class DayClass
	Today bool
}

// MonthView is the day-by-day availability classification of one month,
// plus whether month navigation may leave in either direction.
type MonthView struct {
	Year    int
	Month   time.Month
	Days    []DayCell
	CanPrev bool
	CanNext bool
}

// Input bundles everything BuildMonth needs. The builder is a pure function
// of this input: identical inputs yield identical classifications.
type Input struct {
	Schedule        schedule.WeeklySchedule
	Breaks          map[time.Weekday][]schedule.BreakInterval
	Bookings        []availability.Booking
	Year            int
	Month           time.Month
	ServiceDuration time.Duration
	Granularity     time.Duration
	NowUTC          time.Time
	// WindowMonths is how many months past the current one stay bookable.
	WindowMonths int
}

// BuildMonth classifies every day of the requested month. Months outside
// the bookable window (current month through WindowMonths ahead) return
// ErrOutOfRange.
func BuildMonth(in Input) (*MonthView, error) {
	if in.WindowMonths < 0 {
		in.WindowMonths = 0
	}

	nowYear, nowMonth, nowDay := in.NowUTC.Date()
	offset := monthOffset(nowYear, nowMonth, in.Year, in.Month)
	if offset < 0 || offset > in.WindowMonths {
		return nil, ErrOutOfRange
	}

	view := &MonthView{
		Year:    in.Year,
		Month:   in.Month,
		CanPrev: offset > 0,
		CanNext: offset < in.WindowMonths,
	}

	first := time.Date(in.Year, in.Month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	today := time.Date(nowYear, nowMonth, nowDay, 0, 0, 0, 0, time.UTC)

	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(in.Year, in.Month, day, 0, 0, 0, 0, time.UTC)
		cell := DayCell{
			Day:   day,
			Today: date.Equal(today),
		}
		class, err := classify(in, date, today)
		if err != nil {
			return nil, err
		}
		cell.Class = class
		view.Days = append(view.Days, cell)
	}
	return view, nil
}

func classify(in Input, date, today time.Time) (DayClass, error) {
	if date.Before(today) {
		return DayPast, nil
	}
	work, ok := in.Schedule[date.Weekday()]
	if !ok || work == nil {
		return DayNotWorking, nil
	}
	hasSlot, err := availability.HasAnySlot(
		work,
		in.Breaks[date.Weekday()],
		in.Bookings,
		date.Year(), date.Month(), date.Day(),
		in.ServiceDuration, in.Granularity, in.NowUTC,
	)
	if err != nil {
		// A slot check can only fail on bad stored data, such as a
		// timezone written past the factory. That is a fault to surface,
		// not a fully booked day.
		return 0, fmt.Errorf("calendar: classify %s: %w", date.Format("2006-01-02"), err)
	}
	if !hasSlot {
		return DayFullyBooked, nil
	}
	return DayAvailable, nil
}

// monthOffset counts calendar months from (fromYear, fromMonth) to
// (toYear, toMonth); negative when the target lies in the past.
func monthOffset(fromYear int, fromMonth time.Month, toYear int, toMonth time.Month) int {
	return (toYear-fromYear)*12 + int(toMonth) - int(fromMonth)
}
