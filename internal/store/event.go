package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ewhitmore/campuspay/internal/model"
)

// cancelCutoff is how close to the event date a registration may still be
// cancelled for a refund.
const cancelCutoff = 24 * time.Hour

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventCols = `id, title, description, date, registration_deadline, capacity, registered_count, fee, type, status, organizer_id, created_at, updated_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var fee string

	err := scanner.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.RegistrationDeadline, &e.Capacity,
		&e.RegisteredCount, &fee, &e.Type, &e.Status, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if e.Fee, err = parseDecimal(fee); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanParticipant(scanner interface{ Scan(...any) error }) (*model.Participant, error) {
	var p model.Participant
	err := scanner.Scan(&p.ID, &p.EventID, &p.UserID, &p.RegistrationDate, &p.PaymentStatus)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *EventStore) Create(title, description string, date, deadline time.Time, capacity int, fee decimal.Decimal, eventType string, organizerID int64, now time.Time) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO events (title, description, date, registration_deadline, capacity, fee, type, organizer_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title, description, date, deadline, capacity, fee.String(), eventType, organizerID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// List returns all non-cancelled events ordered by date.
func (s *EventStore) List() ([]model.Event, error) {
	rows, err := s.db.Query(`SELECT ` + eventCols + ` FROM events WHERE status != 'cancelled' ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListByParticipant returns events the user is registered for, by date.
func (s *EventStore) ListByParticipant(userID int64) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT e.`+participantEventCols+` FROM events e
		 JOIN event_participants p ON p.event_id = e.id
		 WHERE p.user_id = ? ORDER BY e.date ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list events by participant: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

const participantEventCols = `id, title, description, date, registration_deadline, capacity, registered_count, fee, type, e.status, organizer_id, e.created_at, updated_at`

func collectEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Participants returns the registration records for an event.
func (s *EventStore) Participants(eventID int64) ([]model.Participant, error) {
	rows, err := s.db.Query(
		`SELECT id, event_id, user_id, registration_date, payment_status
		 FROM event_participants WHERE event_id = ? ORDER BY registration_date ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// Register signs a user up for an event. The deadline, capacity,
// duplicate, and balance guards plus the fee debit, participant append,
// and counter bump all run in one transaction.
func (s *EventStore) Register(eventID, userID int64, now time.Time) (*model.Participant, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	e, err := scanEvent(tx.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, eventID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %d not found", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	if now.After(e.RegistrationDeadline) {
		return nil, ErrRegistrationClosed
	}
	if e.RegisteredCount >= e.Capacity {
		return nil, ErrEventFull
	}

	var count int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM event_participants WHERE event_id = ? AND user_id = ?`,
		eventID, userID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	if count > 0 {
		return nil, ErrAlreadyRegistered
	}

	if e.Fee.IsPositive() {
		wallet, err := getWallet(tx, `SELECT `+walletCols+` FROM wallets WHERE user_id = ?`, userID)
		if err != nil {
			return nil, err
		}
		if wallet == nil {
			return nil, fmt.Errorf("wallet for user %d not found", userID)
		}
		description := fmt.Sprintf("Registration fee for %s", e.Title)
		reference := "EVT-" + uuid.NewString()
		if _, err := debitWallet(tx, wallet.ID, e.Fee, description, reference, now); err != nil {
			return nil, err
		}
	}

	result, err := tx.Exec(
		`INSERT INTO event_participants (event_id, user_id, registration_date, payment_status)
		 VALUES (?, ?, ?, 'completed')`,
		eventID, userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert participant: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE events SET registered_count = registered_count + 1, updated_at = ? WHERE id = ?`,
		now, eventID,
	); err != nil {
		return nil, fmt.Errorf("update registered count: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	p, err := scanParticipant(tx.QueryRow(
		`SELECT id, event_id, user_id, registration_date, payment_status FROM event_participants WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// CancelRegistration withdraws a user from an event with a full refund.
// Disallowed within 24 hours of the event date.
func (s *EventStore) CancelRegistration(eventID, userID int64, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	e, err := scanEvent(tx.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, eventID))
	if err == sql.ErrNoRows {
		return fmt.Errorf("event %d not found", eventID)
	}
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}

	var count int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM event_participants WHERE event_id = ? AND user_id = ?`,
		eventID, userID,
	).Scan(&count); err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if count == 0 {
		return ErrNotRegistered
	}

	if e.Date.Sub(now) < cancelCutoff {
		return ErrTooLateToCancel
	}

	if e.Fee.IsPositive() {
		wallet, err := getWallet(tx, `SELECT `+walletCols+` FROM wallets WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return fmt.Errorf("wallet for user %d not found", userID)
		}
		description := fmt.Sprintf("Refund for %s registration cancellation", e.Title)
		reference := "EVT-REFUND-" + uuid.NewString()
		if _, err := creditWallet(tx, wallet.ID, e.Fee, description, reference, now); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`DELETE FROM event_participants WHERE event_id = ? AND user_id = ?`, eventID, userID,
	); err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE events SET registered_count = registered_count - 1, updated_at = ? WHERE id = ?`,
		now, eventID,
	); err != nil {
		return fmt.Errorf("update registered count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
