package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"booktable/internal/models"
)

// Option is a selectable time with its 12-hour label.
type Option struct {
	Value   string // "HH:MM:00"
	Display string // "hh:MM AM"
}

// FullDayOptions lists all 48 half-hour times of a day.
func FullDayOptions() []Option {
	options := make([]Option, 0, minutesPerDay/IntervalMinutes)
	for m := 0; m < minutesPerDay; m += IntervalMinutes {
		value := FormatMinutes(m)
		display, _ := To12Hour(value)
		options = append(options, Option{Value: value, Display: display})
	}
	return options
}

// To12Hour converts "HH:MM[:SS]" into "hh:MM AM/PM". Seconds are dropped.
func To12Hour(t string) (string, error) {
	m, err := ParseMinutes(t)
	if err != nil {
		return "", err
	}
	hour, minute := m/60, m%60
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, minute, ampm), nil
}

// From12Hour converts "hh:MM AM/PM" into "HH:MM:00".
func From12Hour(t string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(t))
	if len(fields) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	parts := strings.Split(fields[0], ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 1 || hour > 12 {
		return "", fmt.Errorf("%w: bad hour in %q", ErrInvalidTime, t)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: bad minute in %q", ErrInvalidTime, t)
	}

	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return "", fmt.Errorf("%w: missing AM/PM in %q", ErrInvalidTime, t)
	}
	return FormatMinutes(hour*60 + minute), nil
}

// CurrentSlot rounds now down to the half hour, as "HH:MM".
func CurrentSlot(now time.Time) string {
	minute := 0
	if now.Minute() >= 30 {
		minute = 30
	}
	return fmt.Sprintf("%02d:%02d", now.Hour(), minute)
}

// DaySlotsFor returns the slots published for the weekday of date.
func DaySlotsFor(date time.Time, days []models.DaySlots) []string {
	dow := int(date.Weekday())
	for _, d := range days {
		if d.DayOfWeek == dow {
			return d.Times
		}
	}
	return []string{}
}

// ValidAndSuggested picks the slots of date's weekday from the restaurant
// and the suggestion window around selected.
func ValidAndSuggested(date time.Time, selected string, restaurant *models.RestaurantDetails, rng int) (valid, suggested []string) {
	if restaurant == nil {
		return []string{}, []string{}
	}
	valid = DaySlotsFor(date, restaurant.TimeSlots)
	return valid, SuggestedWindow(selected, valid, rng)
}
