// Package reservations lists, cancels and exports the user's bookings.
package reservations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"booktable/internal/metrics"
	"booktable/internal/models"
)

var ErrNotCancellable = errors.New("booking is not active")

// BookingAPI is the slice of the backend used for the bookings page.
type BookingAPI interface {
	FetchBookings(ctx context.Context) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id int64) error
}

// Service serves the "my bookings" views.
type Service struct {
	api       BookingAPI
	newWriter func() SheetWriter
	loc       *time.Location
	now       func() time.Time
	logger    *zerolog.Logger
}

// NewService builds a service. loc is the zone booking times are in; nil
// means UTC.
func NewService(api BookingAPI, loc *time.Location, logger *zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "reservations").Logger()
	return &Service{
		api:       api,
		newWriter: func() SheetWriter { return NewWorkbook() },
		loc:       loc,
		now:       time.Now,
		logger:    &l,
	}
}

// List returns every booking, earliest first.
func (s *Service) List(ctx context.Context) ([]models.Booking, error) {
	bookings, err := s.api.FetchBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].StartsAt(s.loc).Before(bookings[j].StartsAt(s.loc))
	})
	return bookings, nil
}

// Upcoming returns active bookings that have not started yet.
func (s *Service) Upcoming(ctx context.Context) ([]models.Booking, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	upcoming := make([]models.Booking, 0, len(all))
	for _, b := range all {
		if b.Status.IsActive() && !b.StartsAt(s.loc).Before(now) {
			upcoming = append(upcoming, b)
		}
	}
	return upcoming, nil
}

// Cancel cancels booking id and returns the refreshed list.
func (s *Service) Cancel(ctx context.Context, id int64) ([]models.Booking, error) {
	if err := s.api.CancelBooking(ctx, id); err != nil {
		return nil, fmt.Errorf("cancel booking %d: %w", id, err)
	}
	metrics.IncBookingCancelled()
	s.logger.Info().Int64("booking_id", id).Msg("booking cancelled")
	return s.List(ctx)
}

// CancelIfActive cancels id only when the current list shows it active.
func (s *Service) CancelIfActive(ctx context.Context, id int64) ([]models.Booking, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range all {
		if b.ID != id {
			continue
		}
		if !b.Status.IsActive() {
			return nil, fmt.Errorf("%w: booking %d is %s", ErrNotCancellable, id, b.Status)
		}
		return s.Cancel(ctx, id)
	}
	return nil, fmt.Errorf("%w: booking %d not found", ErrNotCancellable, id)
}

// StatusLabel is the display text of a status.
func StatusLabel(status models.BookingStatus) string {
	switch models.BookingStatus(strings.ToLower(string(status))) {
	case models.StatusConfirmed:
		return "Confirmed"
	case models.StatusPending:
		return "Pending"
	case models.StatusCancelled:
		return "Cancelled"
	case "":
		return "Unknown"
	}
	return string(status)
}

var exportColumns = []string{"ID", "Restaurant", "Date", "Time", "Party Size", "Email", "Status"}

// Export writes the bookings as an XLSX workbook with one sheet of
// upcoming and one of past bookings.
func (s *Service) Export(ctx context.Context, out io.Writer) (int, error) {
	all, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	w := s.newWriter()
	defer w.Close()

	now := s.now()
	var upcoming, past []models.Booking
	for _, b := range all {
		if b.StartsAt(s.loc).Before(now) {
			past = append(past, b)
		} else {
			upcoming = append(upcoming, b)
		}
	}

	for _, sheet := range []struct {
		name     string
		bookings []models.Booking
	}{
		{"Upcoming", upcoming},
		{"Past", past},
	} {
		if err := w.AddSheet(sheet.name); err != nil {
			return 0, err
		}
		if err := w.WriteHeader(exportColumns); err != nil {
			return 0, err
		}
		for _, b := range sheet.bookings {
			row := []any{
				b.ID,
				b.RestaurantName,
				b.BookingDate.String(),
				b.BookingTime,
				b.PartySize,
				b.Email,
				StatusLabel(b.Status),
			}
			if err := w.WriteRow(row); err != nil {
				return 0, err
			}
		}
	}

	if err := w.Save(out); err != nil {
		return 0, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info().Int("upcoming", len(upcoming)).Int("past", len(past)).Msg("bookings exported")
	return len(all), nil
}
