package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"booktable/internal/events"
	"booktable/internal/metrics"
	"booktable/internal/models"
)

const (
	// RedirectDelay is how long the confirmation stays visible before the
	// user is sent home.
	RedirectDelay = 2 * time.Second

	HomePath = "/"

	GenericErrorMessage = "Failed to create booking. Please try again."
)

var (
	ErrSubmissionInProgress = errors.New("a booking submission is already in progress")
	ErrOverrideIncomplete   = errors.New("existing booking was cancelled but the new booking was not created")
)

// BookingAPI is the part of the backend the submitter talks to.
type BookingAPI interface {
	CheckConflicts(ctx context.Context, date, tm string) (*models.ConflictCheck, error)
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, id int64) error
}

// Resolver asks the user what to do about a conflict. DecisionNone means
// the question was dismissed.
type Resolver interface {
	Resolve(ctx context.Context, candidate ConflictCandidate) (Decision, error)
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeError   NoticeLevel = "error"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// Navigator moves the user to path once after has elapsed.
type Navigator interface {
	Redirect(path string, after time.Duration)
}

// Publisher emits booking lifecycle events.
type Publisher interface {
	PublishJSON(eventType string, payload any) error
}

type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeKept      Outcome = "kept"
	OutcomeDismissed Outcome = "dismissed"
)

// Result describes a submission that ended without error.
type Result struct {
	Outcome Outcome
	Booking *models.Booking
	// Replaced is the booking cancelled by an override, if any.
	Replaced *models.Booking
	// Trace lists every state the flow went through.
	Trace []State
}

// OverrideError reports that a conflicting booking was cancelled but the
// new one could not be created.
type OverrideError struct {
	Cancelled models.Booking
	Restored  bool
	Err       error
}

func (e *OverrideError) Error() string {
	if e.Restored {
		return fmt.Sprintf("create booking failed after cancelling booking %d, which was restored: %v", e.Cancelled.ID, e.Err)
	}
	return fmt.Sprintf("create booking failed after cancelling booking %d: %v", e.Cancelled.ID, e.Err)
}

func (e *OverrideError) Unwrap() []error { return []error{ErrOverrideIncomplete, e.Err} }

// BackendMessage returns the message of a backend error, or "" when err
// carries none.
func BackendMessage(err error) string {
	var withMsg interface{ BackendMessage() string }
	if errors.As(err, &withMsg) {
		return withMsg.BackendMessage()
	}
	return ""
}

// Submitter runs one booking attempt at a time.
type Submitter struct {
	api       BookingAPI
	resolver  Resolver
	notifier  Notifier
	navigator Navigator
	publisher Publisher
	logger    *zerolog.Logger

	mu      sync.Mutex
	stateMu sync.RWMutex
	machine Machine
}

// NewSubmitter wires a submitter. notifier, navigator and publisher are
// optional.
func NewSubmitter(api BookingAPI, resolver Resolver, notifier Notifier, navigator Navigator, logger *zerolog.Logger) *Submitter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "booking-submitter").Logger()
	return &Submitter{
		api:       api,
		resolver:  resolver,
		notifier:  notifier,
		navigator: navigator,
		logger:    &l,
		machine:   Machine{State: StateIdle},
	}
}

// SetPublisher attaches an event publisher.
func (s *Submitter) SetPublisher(p Publisher) {
	s.publisher = p
}

// Machine returns the latest snapshot of the flow.
func (s *Submitter) Machine() Machine {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.machine
}

// attempt carries the machine through one submission.
type attempt struct {
	s     *Submitter
	m     Machine
	trace []State
}

func (a *attempt) step(ev Event) error {
	next, err := Reduce(a.m, ev)
	if err != nil {
		return err
	}
	a.m = next
	a.trace = append(a.trace, next.State)

	a.s.stateMu.Lock()
	a.s.machine = next
	a.s.stateMu.Unlock()
	return nil
}

// Submit validates form, checks it for conflicts unless an earlier
// override already settled them, and creates the booking. A Keep decision
// or a dismissed dialog ends without error. No step is retried.
func (s *Submitter) Submit(ctx context.Context, form *Form) (*Result, error) {
	if !s.mu.TryLock() {
		return nil, ErrSubmissionInProgress
	}
	defer s.mu.Unlock()

	if err := form.Validate(); err != nil {
		metrics.IncSubmission("invalid")
		return nil, err
	}

	a := &attempt{s: s, m: Machine{State: StateIdle}, trace: []State{StateIdle}}
	draft := form.Draft()
	log := s.logger.With().
		Int64("restaurant_id", draft.RestaurantID).
		Str("date", draft.BookingDate).
		Str("time", draft.BookingTime).
		Logger()

	var replaced *models.Booking

	if form.conflictResolved {
		if err := a.step(Event{Kind: EventResubmit}); err != nil {
			return nil, err
		}
		log.Debug().Msg("conflict already resolved for this form, skipping check")
	} else {
		if err := a.step(Event{Kind: EventSubmit}); err != nil {
			return nil, err
		}

		check, err := s.api.CheckConflicts(ctx, draft.BookingDate, draft.BookingTime)
		if err != nil {
			return nil, a.fail(err, "check_failed", "check conflicts")
		}

		if !check.HasConflict || check.ConflictingBooking == nil {
			if err := a.step(Event{Kind: EventNoConflict}); err != nil {
				return nil, err
			}
		} else {
			candidate := &ConflictCandidate{Existing: *check.ConflictingBooking, Draft: draft}
			if err := a.step(Event{Kind: EventConflictDetected, Candidate: candidate}); err != nil {
				return nil, err
			}
			s.publish(events.TypeConflictDetected, candidate)
			log.Info().Int64("existing_id", candidate.Existing.ID).Msg("booking conflict detected")

			res, done, err := a.resolve(ctx, candidate, form)
			if done || err != nil {
				return res, err
			}
			replaced = &candidate.Existing
		}
	}

	if a.m.State != StateCreating {
		if err := a.step(Event{Kind: EventCreate}); err != nil {
			return nil, err
		}
	}
	created, err := s.api.CreateBooking(ctx, draft)
	if err != nil {
		if replaced != nil {
			return nil, a.overrideFailed(ctx, err, form)
		}
		return nil, a.fail(err, "create_failed", "create booking")
	}

	if err := a.step(Event{Kind: EventCreated, Booking: created}); err != nil {
		return nil, err
	}
	form.conflictResolved = false

	metrics.IncSubmission(string(OutcomeCreated))
	s.publish(events.TypeBookingCreated, created)
	s.notify(NoticeSuccess, "Booking created successfully!")
	s.redirect()
	log.Info().Int64("booking_id", created.ID).Msg("booking created")

	if err := a.step(Event{Kind: EventReset}); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeCreated, Booking: created, Replaced: replaced, Trace: a.trace}, nil
}

// resolve asks the user about candidate and, on Continue, cancels the
// existing booking. done is true when the attempt ended here.
func (a *attempt) resolve(ctx context.Context, candidate *ConflictCandidate, form *Form) (*Result, bool, error) {
	s := a.s

	decision, err := s.resolver.Resolve(ctx, *candidate)
	if err != nil {
		return nil, true, a.fail(err, "resolve_failed", "resolve conflict")
	}

	if decision == DecisionNone {
		if err := a.step(Event{Kind: EventDismiss}); err != nil {
			return nil, true, err
		}
		metrics.IncSubmission(string(OutcomeDismissed))
		return &Result{Outcome: OutcomeDismissed, Trace: a.trace}, true, nil
	}

	if err := a.step(Event{Kind: EventDecide, Decision: decision}); err != nil {
		return nil, true, err
	}
	metrics.IncConflictDecision(string(decision))
	s.publish(events.TypeConflictResolved, map[string]any{
		"decision":   decision,
		"existingId": candidate.Existing.ID,
	})

	if decision == DecisionKeep {
		if err := a.step(Event{Kind: EventKept}); err != nil {
			return nil, true, err
		}
		metrics.IncSubmission(string(OutcomeKept))
		s.notify(NoticeInfo, "Your existing booking has been kept.")
		s.redirect()
		if err := a.step(Event{Kind: EventReset}); err != nil {
			return nil, true, err
		}
		return &Result{Outcome: OutcomeKept, Trace: a.trace}, true, nil
	}

	if err := s.api.CancelBooking(ctx, candidate.Existing.ID); err != nil {
		return nil, true, a.fail(err, "cancel_failed", "cancel conflicting booking")
	}
	if err := a.step(Event{Kind: EventCancelled}); err != nil {
		return nil, true, err
	}
	form.conflictResolved = true
	metrics.IncBookingCancelled()
	s.publish(events.TypeBookingCancelled, candidate.Existing)
	return nil, false, nil
}

// overrideFailed tries once to put back the booking the override
// cancelled, then reports the partial failure.
func (a *attempt) overrideFailed(ctx context.Context, createErr error, form *Form) error {
	s := a.s
	existing := a.m.Candidate.Existing
	oerr := &OverrideError{Cancelled: existing, Err: createErr}

	if req, ok := a.m.Candidate.RestoreRequest(form.Email); ok {
		if _, err := s.api.CreateBooking(ctx, req); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", existing.ID).Msg("restore cancelled booking failed")
		} else {
			oerr.Restored = true
			form.conflictResolved = false
		}
	}

	msg := "Your previous booking was cancelled but the new booking could not be created."
	if oerr.Restored {
		msg = "The new booking could not be created. Your previous booking has been restored."
	}
	if backend := BackendMessage(createErr); backend != "" {
		msg += " " + backend
	}

	_ = a.step(Event{Kind: EventFail, Err: oerr})
	metrics.IncSubmission("override_incomplete")
	s.publish(events.TypeSubmissionFailed, map[string]any{
		"stage":     "override",
		"error":     oerr.Error(),
		"cancelled": existing.ID,
		"restored":  oerr.Restored,
	})
	s.notify(NoticeError, msg)
	s.logger.Error().Err(createErr).Int64("cancelled_id", existing.ID).Bool("restored", oerr.Restored).Msg("booking override incomplete")
	_ = a.step(Event{Kind: EventReset})
	return oerr
}

// fail moves the attempt to failed, tells the user, and returns err
// wrapped with op.
func (a *attempt) fail(err error, outcome, op string) error {
	s := a.s
	_ = a.step(Event{Kind: EventFail, Err: err})

	msg := BackendMessage(err)
	if msg == "" {
		msg = GenericErrorMessage
	}
	metrics.IncSubmission(outcome)
	s.publish(events.TypeSubmissionFailed, map[string]any{"stage": outcome, "error": err.Error()})
	s.notify(NoticeError, msg)
	s.logger.Error().Err(err).Str("stage", outcome).Msg("booking submission failed")

	_ = a.step(Event{Kind: EventReset})
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Submitter) notify(level NoticeLevel, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(level, msg)
	}
}

func (s *Submitter) redirect() {
	if s.navigator != nil {
		s.navigator.Redirect(HomePath, RedirectDelay)
	}
}

func (s *Submitter) publish(eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish event failed")
	}
}
