package booking

import "context"

// Store is the appointment ledger. Book must perform the slot check and the
// insert as one atomic step and return ErrConflict when the slot is taken.
type Store interface {
	Book(ctx context.Context, a *Appointment) error
	// Cancel deletes id only when owned by username and reports whether a row
	// was removed.
	Cancel(ctx context.Context, username string, id int64) (bool, error)
	ListByRequester(ctx context.Context, username string) ([]*Appointment, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	BookedSlots(ctx context.Context, doctor, date string) ([]string, error)
}
