package booking

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrConflict means the (doctor, date, time slot) is already held by a live
	// appointment.
	ErrConflict = errors.New("time slot already booked")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid booking request")
)

// Appointment is a committed booking. ID is assigned by the store and is
// strictly increasing.
type Appointment struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Disease    string    `json:"disease"`
	Department string    `json:"department"`
	Doctor     string    `json:"doctor"`
	Date       string    `json:"date"`
	TimeSlot   string    `json:"time_slot"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key returns the slot the appointment occupies.
func (a *Appointment) Key() SlotKey {
	return SlotKey{Doctor: a.Doctor, Date: a.Date, TimeSlot: a.TimeSlot}
}

// SlotKey identifies a bookable unit. At most one live appointment exists per
// key.
type SlotKey struct {
	Doctor   string
	Date     string
	TimeSlot string
}

func (k SlotKey) String() string {
	return k.Doctor + "|" + k.Date + "|" + k.TimeSlot
}

// BookingRequest carries the client-supplied fields of a new appointment.
type BookingRequest struct {
	Disease    string `json:"disease"`
	Department string `json:"department"`
	Doctor     string `json:"doctor"`
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
}

// Normalize trims surrounding whitespace from every field.
func (r BookingRequest) Normalize() BookingRequest {
	return BookingRequest{
		Disease:    strings.TrimSpace(r.Disease),
		Department: strings.TrimSpace(r.Department),
		Doctor:     strings.TrimSpace(r.Doctor),
		Date:       strings.TrimSpace(r.Date),
		TimeSlot:   strings.TrimSpace(r.TimeSlot),
	}
}

// Validate reports every missing field at once.
func (r BookingRequest) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"disease", r.Disease},
		{"department", r.Department},
		{"doctor", r.Doctor},
		{"date", r.Date},
		{"time_slot", r.TimeSlot},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func (r BookingRequest) Key() SlotKey {
	return SlotKey{Doctor: r.Doctor, Date: r.Date, TimeSlot: r.TimeSlot}
}

// ValidationError lists the booking fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
