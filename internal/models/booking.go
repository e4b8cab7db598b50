package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

// BookingStatus is the lifecycle status of a reservation.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// IsActive reports whether the booking still holds a table.
func (s BookingStatus) IsActive() bool {
	switch BookingStatus(strings.ToLower(string(s))) {
	case StatusPending, StatusConfirmed:
		return true
	}
	return false
}

// Date is a calendar date. The backend sends either "YYYY-MM-DD" strings
// or epoch milliseconds, both are accepted.
type Date struct {
	time.Time
}

// ParseDate parses a "YYYY-MM-DD" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if len(str) > len(DateLayout) {
			str = str[:len(DateLayout)]
		}
		parsed, err := ParseDate(str)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid date value %s", s)
	}
	t := time.UnixMilli(ms).UTC()
	*d = Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
	return nil
}

// Booking is a reservation owned by the session user.
type Booking struct {
	ID             int64         `json:"id"`
	RestaurantID   int64         `json:"restaurantId"`
	RestaurantName string        `json:"restaurantName,omitempty"`
	CustomerID     string        `json:"customerId,omitempty"`
	BookingDate    Date          `json:"bookingDate"`
	BookingTime    string        `json:"bookingTime"`
	PartySize      int           `json:"partySize"`
	Email          string        `json:"email,omitempty"`
	Status         BookingStatus `json:"status"`
}

// StartsAt combines the booking date and time in loc.
// Unparseable times yield the start of the booking day.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := b.BookingDate.Time
	hour, minute := 0, 0
	parts := strings.Split(b.BookingTime, ":")
	if len(parts) >= 2 {
		hour, _ = strconv.Atoi(parts[0])
		minute, _ = strconv.Atoi(parts[1])
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
}

// BookingRequest is the body of POST /api/booking/create.
type BookingRequest struct {
	RestaurantID   int64  `json:"restaurantId"`
	RestaurantName string `json:"restaurantName"`
	BookingDate    string `json:"bookingDate"`
	BookingTime    string `json:"bookingTime"`
	PartySize      int    `json:"partySize"`
	Email          string `json:"email"`
}

// ConflictCheck is the payload of GET /api/booking/check-conflicts.
type ConflictCheck struct {
	HasConflict        bool     `json:"hasConflict"`
	ConflictingBooking *Booking `json:"conflictingBooking"`
}
