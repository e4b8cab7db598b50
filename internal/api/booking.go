package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"booktable/internal/models"
)

// CheckConflicts asks whether the user already holds a booking close to
// date and tm. The proximity rule belongs to the backend.
func (c *Client) CheckConflicts(ctx context.Context, date, tm string) (*models.ConflictCheck, error) {
	q := url.Values{}
	q.Set("bookingDate", date)
	q.Set("bookingTime", tm)

	var resp models.ConflictCheck
	if err := c.doGet(ctx, "/api/booking/check-conflicts", "/api/booking/check-conflicts", q, &resp); err != nil {
		return nil, err
	}
	if !resp.HasConflict {
		resp.ConflictingBooking = nil
	}
	return &resp, nil
}

// CreateBooking posts a new booking. The backend may answer with the
// stored booking or only a confirmation text; in the latter case the
// result is built from req.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	var raw json.RawMessage
	if err := c.doPost(ctx, "/api/booking/create", "/api/booking/create", req, &raw); err != nil {
		return nil, err
	}

	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "{") {
		var b models.Booking
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode created booking: %w", err)
		}
		if b.Status == "" {
			b.Status = models.StatusConfirmed
		}
		return &b, nil
	}

	b := &models.Booking{
		RestaurantID:   req.RestaurantID,
		RestaurantName: req.RestaurantName,
		BookingTime:    req.BookingTime,
		PartySize:      req.PartySize,
		Email:          req.Email,
		Status:         models.StatusConfirmed,
	}
	if d, err := models.ParseDate(req.BookingDate); err == nil {
		b.BookingDate = d
	}
	return b, nil
}

// CancelBooking cancels booking id.
func (c *Client) CancelBooking(ctx context.Context, id int64) error {
	return c.doDelete(ctx, "/api/booking/cancel/{id}", fmt.Sprintf("/api/booking/cancel/%d", id), nil)
}

// FetchBookings lists the session user's bookings.
func (c *Client) FetchBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.doGet(ctx, "/api/booking/fetch", "/api/booking/fetch", nil, &bookings); err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}
