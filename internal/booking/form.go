package booking

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"booktable/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	if err := v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// formInput is the trimmed form in the order fields are reported.
type formInput struct {
	Email        string `json:"email" validate:"required,contact_email"`
	RestaurantID int64  `json:"restaurantId" validate:"gt=0"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string `json:"time" validate:"required"`
	PartySize    int    `json:"partySize" validate:"gt=0"`
}

var fieldMessages = map[string]string{
	"email.required":      "Email is required",
	"email.contact_email": "Please enter a valid email address",
	"restaurantId.gt":     "Missing restaurant",
	"date.required":       "Missing booking date",
	"date.datetime":       "Booking date must be YYYY-MM-DD",
	"time.required":       "Missing booking time",
	"partySize.gt":        "Party size must be at least 1",
}

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("booking form is invalid")

// ValidationError names the first form field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Form is the reservation a user is about to submit. The zero value is
// an empty form.
type Form struct {
	RestaurantID   int64
	RestaurantName string
	Date           string // YYYY-MM-DD
	Time           string // HH:MM:SS
	PartySize      int
	Email          string

	conflictResolved bool
}

// ConflictResolved reports whether an override already settled the
// conflict for this form, so a resubmission skips the check.
func (f *Form) ConflictResolved() bool { return f.conflictResolved }

// Validate checks the form locally. It never touches the network.
// The first failing field is reported, email first.
func (f *Form) Validate() error {
	in := formInput{
		Email:        strings.TrimSpace(f.Email),
		RestaurantID: f.RestaurantID,
		Date:         strings.TrimSpace(f.Date),
		Time:         strings.TrimSpace(f.Time),
		PartySize:    f.PartySize,
	}
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("validate booking form: %w", err)
	}
	first := errs[0]
	msg, ok := fieldMessages[first.Field()+"."+first.Tag()]
	if !ok {
		msg = fmt.Sprintf("Invalid %s", first.Field())
	}
	return &ValidationError{Field: first.Field(), Message: msg}
}

// Draft builds the create-booking payload from the form.
func (f *Form) Draft() models.BookingRequest {
	return models.BookingRequest{
		RestaurantID:   f.RestaurantID,
		RestaurantName: f.RestaurantName,
		BookingDate:    f.Date,
		BookingTime:    f.Time,
		PartySize:      f.PartySize,
		Email:          strings.TrimSpace(f.Email),
	}
}

// ConflictCandidate pairs an existing booking with the one being made.
// It only lives while the user decides.
type ConflictCandidate struct {
	Existing models.Booking
	Draft    models.BookingRequest
}

// RestoreRequest rebuilds the payload that recreates the existing booking.
// The conflict check does not always report the restaurant id, in which
// case the booking cannot be restored.
func (c *ConflictCandidate) RestoreRequest(email string) (models.BookingRequest, bool) {
	if c.Existing.RestaurantID <= 0 {
		return models.BookingRequest{}, false
	}
	if c.Existing.Email != "" {
		email = c.Existing.Email
	}
	return models.BookingRequest{
		RestaurantID:   c.Existing.RestaurantID,
		RestaurantName: c.Existing.RestaurantName,
		BookingDate:    c.Existing.BookingDate.String(),
		BookingTime:    c.Existing.BookingTime,
		PartySize:      c.Existing.PartySize,
		Email:          email,
	}, true
}
