package availability

import (
	"fmt"
	"time"

	"github.com/bookline/booking-platform/internal/schedule"
)

// Booking is an existing appointment projected into the overlap check:
// an absolute UTC start plus the booked service's duration.
type Booking struct {
	StartUTC time.Time
	Duration time.Duration
}

// Slot is a candidate appointment start satisfying every availability
// constraint, carried both as local minutes since midnight (what the
// conversation renders on buttons) and as the UTC instant it books to.
type Slot struct {
	StartMinute int
	StartUTC    time.Time
}

// ComputeSlots walks the work interval for one calendar day and returns the
// offerable start times for a service, strictly increasing.
//
// The cursor advances by granularity, not by the service duration: at fine
// granularity long services produce overlapping candidate starts, which is
// intended — it offers more start-time options.
func ComputeSlots(
	work *schedule.WorkInterval,
	breaks []schedule.BreakInterval,
	bookings []Booking,
	year int, month time.Month, day int,
	serviceDuration, granularity time.Duration,
	nowUTC time.Time,
) ([]Slot, error) {
	emit := func(Slot) bool { return true }
	return iterateSlots(work, breaks, bookings, year, month, day, serviceDuration, granularity, nowUTC, emit)
}

// HasAnySlot answers only "is there at least one offerable slot this day".
// It applies the same rejection rules and the same granularity stepping as
// ComputeSlots, stopping at the first hit.
func HasAnySlot(
	work *schedule.WorkInterval,
	breaks []schedule.BreakInterval,
	bookings []Booking,
	year int, month time.Month, day int,
	serviceDuration, granularity time.Duration,
	nowUTC time.Time,
) (bool, error) {
	found := false
	stop := func(Slot) bool {
		found = true
		return false
	}
	if _, err := iterateSlots(work, breaks, bookings, year, month, day, serviceDuration, granularity, nowUTC, stop); err != nil {
		return false, err
	}
	return found, nil
}

// iterateSlots is the single stepping policy shared by listing and existence
// checks. The visit callback returns false to stop early; collected slots are
// returned for the listing path.
func iterateSlots(
	work *schedule.WorkInterval,
	breaks []schedule.BreakInterval,
	bookings []Booking,
	year int, month time.Month, day int,
	serviceDuration, granularity time.Duration,
	nowUTC time.Time,
	visit func(Slot) bool,
) ([]Slot, error) {
	if work == nil {
		return nil, fmt.Errorf("availability: work interval required")
	}
	loc, err := work.Location()
	if err != nil {
		return nil, err
	}

	durMinutes := int(serviceDuration / time.Minute)
	if durMinutes <= 0 {
		return nil, fmt.Errorf("availability: service duration %v must be positive", serviceDuration)
	}
	step := int(granularity / time.Minute)
	if step <= 0 {
		step = durMinutes
	}

	var slots []Slot
	for cursor := work.StartMinute; cursor+durMinutes <= work.EndMinute; cursor += step {
		slotEnd := cursor + durMinutes

		if intersectsBreak(cursor, slotEnd, breaks) {
			continue
		}

		startLocal := time.Date(year, month, day, cursor/60, cursor%60, 0, 0, loc)
		startUTC := startLocal.UTC()
		endUTC := startUTC.Add(serviceDuration)

		if intersectsBooking(startUTC, endUTC, bookings) {
			continue
		}
		if !startUTC.After(nowUTC) {
			continue
		}

		slot := Slot{StartMinute: cursor, StartUTC: startUTC}
		slots = append(slots, slot)
		if !visit(slot) {
			break
		}
	}
	return slots, nil
}

func intersectsBreak(slotStart, slotEnd int, breaks []schedule.BreakInterval) bool {
	for _, b := range breaks {
		if schedule.Overlaps(slotStart, slotEnd, b.StartMinute, b.EndMinute) {
			return true
		}
	}
	return false
}

func intersectsBooking(startUTC, endUTC time.Time, bookings []Booking) bool {
	for _, k := range bookings {
		if schedule.OverlapsTime(startUTC, endUTC, k.StartUTC, k.StartUTC.Add(k.Duration)) {
			return true
		}
	}
	return false
}
