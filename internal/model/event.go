package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventAcademic  = "academic"
	EventSports    = "sports"
	EventCultural  = "cultural"
	EventHackathon = "hackathon"
	EventOther     = "other"
)

const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

// Event is a school event with paid registration. RegisteredCount mirrors
// the number of participant rows and never exceeds Capacity.
type Event struct {
	ID                   int64           `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Date                 time.Time       `json:"date"`
	RegistrationDeadline time.Time       `json:"registration_deadline"`
	Capacity             int             `json:"capacity"`
	RegisteredCount      int             `json:"registered_count"`
	Fee                  decimal.Decimal `json:"fee"`
	Type                 string          `json:"type"`
	Status               string          `json:"status"`
	OrganizerID          int64           `json:"organizer_id"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Participant is one user's registration record within an event.
type Participant struct {
	ID               int64     `json:"id"`
	EventID          int64     `json:"event_id"`
	UserID           int64     `json:"user_id"`
	RegistrationDate time.Time `json:"registration_date"`
	PaymentStatus    string    `json:"payment_status"`
}

// ValidEventType reports whether s is one of the known event types.
func ValidEventType(s string) bool {
	switch s {
	case EventAcademic, EventSports, EventCultural, EventHackathon, EventOther:
		return true
	}
	return false
}
