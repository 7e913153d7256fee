package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medroute/medroute/internal/platform/metrics"
)

const (
	pgUniqueViolation = "23505"
	pgSlotConstraint  = "appointments_slot_key"
)

// PGStore is the PostgreSQL ledger. The unique index appointments_slot_key
// makes the insert itself the conflict check.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Book(ctx context.Context, a *Appointment) error {
	defer metrics.ObserveStore("postgres", "book", time.Now())
	err := s.pool.QueryRow(ctx, `
		INSERT INTO appointments (username, disease, department, doctor, date, time_slot)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		a.Username, a.Disease, a.Department, a.Doctor, a.Date, a.TimeSlot,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == pgSlotConstraint {
			return ErrConflict
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *PGStore) Cancel(ctx context.Context, username string, id int64) (bool, error) {
	defer metrics.ObserveStore("postgres", "cancel", time.Now())
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM appointments WHERE id = $1 AND username = $2`, id, username)
	if err != nil {
		return false, fmt.Errorf("delete appointment %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) ListByRequester(ctx context.Context, username string) ([]*Appointment, error) {
	defer metrics.ObserveStore("postgres", "list_by_requester", time.Now())
	rows, err := s.pool.Query(ctx, `SELECT `+appointmentCols+` FROM appointments
		WHERE username = $1 ORDER BY date DESC, id DESC`, username)
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s: %w", username, err)
	}
	return scanPGAppointments(rows)
}

func (s *PGStore) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	defer metrics.ObserveStore("postgres", "list_all", time.Now())
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.pool.Query(ctx, `SELECT `+appointmentCols+` FROM appointments
		ORDER BY date DESC, id DESC LIMIT $1 OFFSET $2`, lim, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	list, err := scanPGAppointments(rows)
	return list, total, err
}

func (s *PGStore) BookedSlots(ctx context.Context, doctor, date string) ([]string, error) {
	defer metrics.ObserveStore("postgres", "booked_slots", time.Now())
	rows, err := s.pool.Query(ctx, `SELECT time_slot FROM appointments
		WHERE doctor = $1 AND date = $2 ORDER BY time_slot`, doctor, date)
	if err != nil {
		return nil, fmt.Errorf("query booked slots: %w", err)
	}
	slots, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}

func scanPGAppointments(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	out := make([]*Appointment, 0)
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.Username, &a.Disease, &a.Department,
			&a.Doctor, &a.Date, &a.TimeSlot, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
