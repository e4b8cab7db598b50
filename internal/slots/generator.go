// Package slots enumerates bookable reservation times from opening hours.
package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"booktable/internal/models"
)

const (
	// IntervalMinutes is the spacing between slots and the minimum
	// time a slot must have before closing.
	IntervalMinutes = 30

	// DefaultRange is the number of neighbours shown on each side of a
	// selected slot.
	DefaultRange = 2

	minutesPerDay = 24 * 60
)

// ErrInvalidTime is returned for time strings that are not HH:MM[:SS].
var ErrInvalidTime = errors.New("invalid time of day")

// ParseMinutes converts "HH:MM" or "HH:MM:SS" into minutes since midnight.
func ParseMinutes(t string) (int, error) {
	parts := strings.Split(strings.TrimSpace(t), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidTime, t)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidTime, t)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: bad second in %q", ErrInvalidTime, t)
		}
	}

	return hour*60 + minute, nil
}

// FormatMinutes renders minutes since midnight as "HH:MM:00", wrapping
// past midnight.
func FormatMinutes(total int) string {
	total %= minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d:00", total/60, total%60)
}

// Normalize rewrites a time of day into the canonical "HH:MM:00" form.
func Normalize(t string) (string, error) {
	m, err := ParseMinutes(t)
	if err != nil {
		return "", err
	}
	return FormatMinutes(m), nil
}

// GenerateSlots lists every 30-minute start time between openTime and
// closeTime. The last slot starts 30 minutes before closing. A close time
// at or before the open time is taken to be on the next day.
func GenerateSlots(openTime, closeTime string) ([]string, error) {
	openMins, err := ParseMinutes(openTime)
	if err != nil {
		return nil, fmt.Errorf("parse open time: %w", err)
	}
	closeMins, err := ParseMinutes(closeTime)
	if err != nil {
		return nil, fmt.Errorf("parse close time: %w", err)
	}

	if closeMins <= openMins {
		closeMins += minutesPerDay
	}

	slots := make([]string, 0, (closeMins-openMins)/IntervalMinutes)
	for t := openMins; t <= closeMins-IntervalMinutes; t += IntervalMinutes {
		slots = append(slots, FormatMinutes(t))
	}
	return slots, nil
}

// SuggestedWindow returns up to 2*rng+1 slots centred on selected.
// The window is clipped at both ends of validSlots and never wraps.
// A selected time that is not one of validSlots yields no suggestions.
func SuggestedWindow(selected string, validSlots []string, rng int) []string {
	if rng < 0 {
		rng = 0
	}

	idx := -1
	for i, s := range validSlots {
		if s == selected {
			idx = i
			break
		}
	}
	if idx < 0 {
		return []string{}
	}

	start := max(0, idx-rng)
	end := min(len(validSlots)-1, idx+rng)

	window := make([]string, end-start+1)
	copy(window, validSlots[start:end+1])
	return window
}

// GenerateWeek derives the slots of every open day from its operating
// hours. Closed days produce an entry with no times.
func GenerateWeek(hours []models.OperatingHours) ([]models.DaySlots, error) {
	week := make([]models.DaySlots, 0, len(hours))
	for _, h := range hours {
		if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
			return nil, fmt.Errorf("day %d: day of week must be 0-6", h.DayOfWeek)
		}
		if h.IsClosed() {
			if h.CloseTime != nil && *h.CloseTime != "" {
				return nil, fmt.Errorf("day %d: close time set without open time", h.DayOfWeek)
			}
			week = append(week, models.DaySlots{DayOfWeek: h.DayOfWeek, Times: []string{}})
			continue
		}
		if h.CloseTime == nil || *h.CloseTime == "" {
			return nil, fmt.Errorf("day %d: open time set without close time", h.DayOfWeek)
		}

		times, err := GenerateSlots(*h.OpenTime, *h.CloseTime)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", h.DayOfWeek, err)
		}
		week = append(week, models.DaySlots{DayOfWeek: h.DayOfWeek, Times: times})
	}
	return week, nil
}
