package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"booktable/internal/booking"
	"booktable/internal/slots"
)

// terminalNotifier prints notices as single lines.
type terminalNotifier struct {
	out io.Writer
}

func (n terminalNotifier) Notify(level booking.NoticeLevel, msg string) {
	fmt.Fprintf(n.out, "[%s] %s\n", level, msg)
}

// terminalNavigator reports the redirect instead of waiting for it.
type terminalNavigator struct {
	out io.Writer
}

func (n terminalNavigator) Redirect(path string, after time.Duration) {
	fmt.Fprintf(n.out, "-> %s (in %s)\n", path, after)
}

// promptResolver asks on the terminal. A preset decision answers without
// asking.
type promptResolver struct {
	in     *bufio.Reader
	out    io.Writer
	preset booking.Decision
}

func (r promptResolver) Resolve(ctx context.Context, c booking.ConflictCandidate) (booking.Decision, error) {
	fmt.Fprintf(r.out, "You already have a booking at %s on %s at %s for %d.\n",
		displayName(c.Existing.RestaurantName), c.Existing.BookingDate, displayTime(c.Existing.BookingTime), c.Existing.PartySize)
	fmt.Fprintf(r.out, "New booking: %s on %s at %s for %d.\n",
		displayName(c.Draft.RestaurantName), c.Draft.BookingDate, displayTime(c.Draft.BookingTime), c.Draft.PartySize)

	if r.preset != booking.DecisionNone {
		fmt.Fprintf(r.out, "Decision: %s\n", r.preset)
		return r.preset, nil
	}

	fmt.Fprint(r.out, "[k]eep existing, [c]ontinue with new, or dismiss (enter): ")
	line, err := readLine(ctx, r.in)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return booking.DecisionNone, nil
		}
		return booking.DecisionNone, err
	}
	return parseDecision(line), nil
}

func parseDecision(s string) booking.Decision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "k", "keep":
		return booking.DecisionKeep
	case "c", "continue":
		return booking.DecisionContinue
	}
	return booking.DecisionNone
}

// readLine reads one line unless ctx ends first. On cancellation the
// reader goroutine stays blocked until stdin yields, so callers must treat
// the error as the end of the command and not read from in again.
func readLine(ctx context.Context, in *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := in.ReadString('\n')
		if err != nil && line != "" && errors.Is(err, io.EOF) {
			err = nil
		}
		ch <- result{strings.TrimSpace(line), err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

func displayName(name string) string {
	if name == "" {
		return "the restaurant"
	}
	return name
}

func displayTime(t string) string {
	if s, err := slots.To12Hour(t); err == nil {
		return s
	}
	return t
}

// parseTimeArg accepts "19:00", "19:00:00" or "7:00 PM".
func parseTimeArg(s string) (string, error) {
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		if !strings.Contains(s, " ") {
			s = s[:len(s)-2] + " " + s[len(s)-2:]
		}
		return slots.From12Hour(s)
	}
	return slots.Normalize(s)
}
