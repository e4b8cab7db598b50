package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktable/internal/api"
	"booktable/internal/booking"
	"booktable/internal/models"
)

func newTestApp(input string) (*app, *bytes.Buffer) {
	var out bytes.Buffer
	logger := zerolog.Nop()
	return &app{in: strings.NewReader(input), out: &out, logger: &logger}, &out
}

func TestPage(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	cur, idx, total := page(items, 0)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, cur)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 3, total)

	cur, idx, _ = page(items, 2)
	assert.Equal(t, []int{16, 17, 18, 19}, cur)
	assert.Equal(t, 2, idx)

	_, idx, _ = page(items, 10)
	assert.Equal(t, 2, idx)
	_, idx, _ = page(items, -1)
	assert.Equal(t, 0, idx)

	cur, _, total = page([]int(nil), 0)
	assert.Empty(t, cur)
	assert.Equal(t, 0, total)
}

func TestParseTimeArg(t *testing.T) {
	tests := map[string]string{
		"19:00":    "19:00:00",
		"09:30:00": "09:30:00",
		"7:00 PM":  "19:00:00",
		"7:00pm":   "19:00:00",
		"12:30 AM": "00:30:00",
	}
	for in, want := range tests {
		got, err := parseTimeArg(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseTimeArg("25:00")
	assert.Error(t, err)
}

func TestParseDecision(t *testing.T) {
	assert.Equal(t, booking.DecisionKeep, parseDecision("K"))
	assert.Equal(t, booking.DecisionContinue, parseDecision(" continue "))
	assert.Equal(t, booking.DecisionNone, parseDecision(""))
	assert.Equal(t, booking.DecisionNone, parseDecision("maybe"))
}

func candidate() booking.ConflictCandidate {
	d, _ := models.ParseDate("2024-06-01")
	return booking.ConflictCandidate{
		Existing: models.Booking{ID: 1, RestaurantName: "Old Place", BookingDate: d, BookingTime: "18:00:00", PartySize: 2},
		Draft:    models.BookingRequest{RestaurantName: "New Place", BookingDate: "2024-06-01", BookingTime: "18:30:00", PartySize: 4},
	}
}

func TestPromptResolver(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		preset booking.Decision
		want   booking.Decision
	}{
		{"keep", "k\n", booking.DecisionNone, booking.DecisionKeep},
		{"continue", "continue\n", booking.DecisionNone, booking.DecisionContinue},
		{"dismiss on enter", "\n", booking.DecisionNone, booking.DecisionNone},
		{"dismiss on eof", "", booking.DecisionNone, booking.DecisionNone},
		{"preset", "", booking.DecisionContinue, booking.DecisionContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := promptResolver{in: bufio.NewReader(strings.NewReader(tt.input)), out: &out, preset: tt.preset}

			got, err := r.Resolve(context.Background(), candidate())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Old Place")
			assert.Contains(t, out.String(), "06:30 PM")
		})
	}
}

func TestReadLine_CancelEndsPrompt(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := readLine(ctx, bufio.NewReader(pr))
	require.ErrorIs(t, err, context.Canceled)

	var out bytes.Buffer
	r := promptResolver{in: bufio.NewReader(pr), out: &out}
	got, err := r.Resolve(ctx, candidate())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, booking.DecisionNone, got)
}

func TestRun_Slots(t *testing.T) {
	a, out := newTestApp("")
	code := a.run(context.Background(), []string{"slots", "-open", "22:00", "-close", "01:00"})
	require.Equal(t, 0, code)
	assert.Equal(t, "22:00:00\n22:30:00\n23:00:00\n23:30:00\n00:00:00\n00:30:00\n", out.String())
}

func TestRun_Suggest(t *testing.T) {
	a, out := newTestApp("")
	code := a.run(context.Background(), []string{"suggest", "-open", "17:00", "-close", "20:00", "-time", "5:00 PM"})
	require.Equal(t, 0, code)
	assert.Equal(t, "* 05:00 PM\n  05:30 PM\n  06:00 PM\n", out.String())
}

func TestRun_Usage(t *testing.T) {
	a, out := newTestApp("")
	assert.Equal(t, 2, a.run(context.Background(), nil))
	assert.Contains(t, out.String(), "usage: booktable")

	out.Reset()
	assert.Equal(t, 2, a.run(context.Background(), []string{"fly"}))
	assert.Contains(t, out.String(), `unknown command "fly"`)

	out.Reset()
	assert.Equal(t, 2, a.run(context.Background(), []string{"slots", "-open", "10:00"}))
	assert.Contains(t, out.String(), "-open and -close (or -all) are required")
}

func TestRun_InvalidTimeFails(t *testing.T) {
	a, out := newTestApp("")
	assert.Equal(t, 1, a.run(context.Background(), []string{"slots", "-open", "nine", "-close", "10:00"}))
	assert.Contains(t, out.String(), "error:")
}

func TestRun_SlotsAll(t *testing.T) {
	a, out := newTestApp("")
	require.Equal(t, 0, a.run(context.Background(), []string{"slots", "-all"}))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 48)
	assert.Equal(t, "00:00:00  12:00 AM", lines[0])
	assert.Equal(t, "13:30:00  01:30 PM", lines[27])
	assert.Equal(t, "23:30:00  11:30 PM", lines[47])
}

func TestRun_BookInvalidFormSkipsBackend(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing email", []string{"-restaurant", "5", "-date", "2030-01-01", "-time", "19:00"}, "Email is required"},
		{"malformed email", []string{"-restaurant", "5", "-date", "2030-01-01", "-time", "19:00", "-email", "ann@"}, "Please enter a valid email address"},
		{"missing date", []string{"-restaurant", "5", "-time", "19:00", "-email", "ann@example.com"}, "Missing booking date"},
		{"empty party", []string{"-restaurant", "5", "-date", "2030-01-01", "-time", "19:00", "-email", "ann@example.com", "-party", "0"}, "Party size must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out := newTestApp("")
			c, err := api.New(api.Options{BaseURL: srv.URL, Logger: a.logger})
			require.NoError(t, err)
			a.client = c

			code := a.run(context.Background(), append([]string{"book"}, tt.args...))
			assert.Equal(t, 2, code)
			assert.Equal(t, tt.want+"\n", out.String())
			assert.Zero(t, calls.Load())
		})
	}
}
