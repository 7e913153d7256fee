package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/medroute/medroute/internal/platform/metrics"
)

const appointmentCols = `id, username, disease, department, doctor, date, time_slot, created_at`

// SQLiteStore relies on UNIQUE(doctor, date, time_slot): the losing insert of
// a race fails the constraint and is reported as ErrConflict.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Book(ctx context.Context, a *Appointment) error {
	defer metrics.ObserveStore("sqlite", "book", time.Now())
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments (username, disease, department, doctor, date, time_slot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Username, a.Disease, a.Department, a.Doctor, a.Date, a.TimeSlot,
		a.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read appointment id: %w", err)
	}
	a.ID = id
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func (s *SQLiteStore) Cancel(ctx context.Context, username string, id int64) (bool, error) {
	defer metrics.ObserveStore("sqlite", "cancel", time.Now())
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM appointments WHERE id = ? AND username = ?`, id, username)
	if err != nil {
		return false, fmt.Errorf("delete appointment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete appointment %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListByRequester(ctx context.Context, username string) ([]*Appointment, error) {
	defer metrics.ObserveStore("sqlite", "list_by_requester", time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT `+appointmentCols+` FROM appointments
		WHERE username = ? ORDER BY date DESC, id DESC`, username)
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s: %w", username, err)
	}
	return scanSQLiteAppointments(rows)
}

func (s *SQLiteStore) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	defer metrics.ObserveStore("sqlite", "list_all", time.Now())
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+appointmentCols+` FROM appointments
		ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	list, err := scanSQLiteAppointments(rows)
	return list, total, err
}

func (s *SQLiteStore) BookedSlots(ctx context.Context, doctor, date string) ([]string, error) {
	defer metrics.ObserveStore("sqlite", "booked_slots", time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT time_slot FROM appointments
		WHERE doctor = ? AND date = ? ORDER BY time_slot`, doctor, date)
	if err != nil {
		return nil, fmt.Errorf("query booked slots: %w", err)
	}
	defer rows.Close()

	slots := make([]string, 0)
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func scanSQLiteAppointments(rows *sql.Rows) ([]*Appointment, error) {
	defer rows.Close()
	out := make([]*Appointment, 0)
	for rows.Next() {
		var a Appointment
		var created string
		if err := rows.Scan(&a.ID, &a.Username, &a.Disease, &a.Department,
			&a.Doctor, &a.Date, &a.TimeSlot, &created); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, &a)
	}
	return out, rows.Err()
}
