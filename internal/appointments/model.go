package appointments

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	// StatusCancelled is modeled but not reachable by any current transition.
	StatusCancelled Status = "cancelled"
)

var (
	// ErrNotFound indicates the appointment does not exist.
	ErrNotFound = errors.New("appointments: not found")
	// ErrSlotTaken indicates another appointment already occupies the slot.
	ErrSlotTaken = errors.New("appointments: slot already booked")
	// ErrInvalidTransition rejects confirm/reject on a non-pending appointment.
	ErrInvalidTransition = errors.New("appointments: appointment is not pending")
)

// Appointment is a booked slot. Created by the booking conversation with
// status pending; mutated only through the Lifecycle afterwards, never
// deleted.
type Appointment struct {
	ID         uuid.UUID
	ServiceID  uuid.UUID
	EmployeeID uuid.UUID
	ClientID   uuid.UUID
	// BookingAt is the absolute UTC instant the appointment starts.
	BookingAt time.Time
	Status    Status
	CreatedAt time.Time
}

// BookedSlot projects an existing appointment into the availability check.
type BookedSlot struct {
	StartUTC        time.Time
	DurationMinutes int
}
