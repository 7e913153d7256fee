package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medroute/medroute/internal/platform/metrics"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Book validates req and commits it for requester. It returns a
// *ValidationError, ErrConflict, or a wrapped store error.
func (s *Service) Book(ctx context.Context, requester string, req BookingRequest) (*Appointment, error) {
	log := zerolog.Ctx(ctx)
	req = req.Normalize()
	requester = strings.TrimSpace(requester)

	err := req.Validate()
	if requester == "" {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			ve = &ValidationError{}
		}
		ve.Fields = append([]string{"username"}, ve.Fields...)
		err = ve
	}
	if err != nil {
		metrics.RecordBooking(metrics.BookingInvalid)
		return nil, err
	}

	a := &Appointment{
		Username:   requester,
		Disease:    req.Disease,
		Department: req.Department,
		Doctor:     req.Doctor,
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
	}
	if err := s.store.Book(ctx, a); err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.RecordBooking(metrics.BookingConflict)
			log.Info().Str("slot", req.Key().String()).Str("username", requester).Msg("slot already booked")
			return nil, ErrConflict
		}
		metrics.RecordBooking(metrics.BookingError)
		log.Error().Err(err).Str("slot", req.Key().String()).Msg("booking failed")
		return nil, err
	}

	metrics.RecordBooking(metrics.BookingCreated)
	log.Info().Int64("appointment_id", a.ID).Str("slot", req.Key().String()).Str("username", requester).Msg("appointment booked")
	return a, nil
}

// Cancel removes id if requester owns it. Missing or foreign ids succeed
// without effect so clients can retry freely.
func (s *Service) Cancel(ctx context.Context, requester string, id int64) error {
	removed, err := s.store.Cancel(ctx, requester, id)
	if err != nil {
		return err
	}
	if removed {
		metrics.RecordBooking(metrics.BookingCancelled)
		zerolog.Ctx(ctx).Info().Int64("appointment_id", id).Str("username", requester).Msg("appointment cancelled")
	}
	return nil
}

func (s *Service) ListForRequester(ctx context.Context, requester string) ([]*Appointment, error) {
	return s.store.ListByRequester(ctx, requester)
}

// ListAll is the privileged listing; callers enforce the admin role.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.store.ListAll(ctx, limit, offset)
}

// SlotsBookedFor is advisory only; Book remains the authoritative check.
func (s *Service) SlotsBookedFor(ctx context.Context, doctor, date string) ([]string, error) {
	doctor, date = strings.TrimSpace(doctor), strings.TrimSpace(date)
	if doctor == "" || date == "" {
		return []string{}, nil
	}
	return s.store.BookedSlots(ctx, doctor, date)
}
