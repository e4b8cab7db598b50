package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktable/internal/models"
)

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name     string
		open     string
		close    string
		expected []string
	}{
		{
			name:     "morning",
			open:     "08:00:00",
			close:    "10:00:00",
			expected: []string{"08:00:00", "08:30:00", "09:00:00", "09:30:00"},
		},
		{
			name:  "overnight",
			open:  "22:00:00",
			close: "02:00:00",
			expected: []string{
				"22:00:00", "22:30:00", "23:00:00", "23:30:00",
				"00:00:00", "00:30:00", "01:00:00", "01:30:00",
			},
		},
		{
			name:     "short form input",
			open:     "11:00",
			close:    "12:00",
			expected: []string{"11:00:00", "11:30:00"},
		},
		{
			name:     "less than one slot",
			open:     "11:00",
			close:    "11:20",
			expected: []string{},
		},
		{
			name:     "unaligned open keeps its offset",
			open:     "09:15",
			close:    "10:30",
			expected: []string{"09:15:00", "09:45:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSlots(tt.open, tt.close)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGenerateSlots_SameOpenAndCloseIsFullDay(t *testing.T) {
	got, err := GenerateSlots("10:00", "10:00")
	require.NoError(t, err)
	assert.Len(t, got, 48)
	assert.Equal(t, "10:00:00", got[0])
	assert.Equal(t, "09:30:00", got[len(got)-1])
}

func TestGenerateSlots_CountMatchesDuration(t *testing.T) {
	for open := 0; open < 23*60; open += 30 {
		for end := open + 30; end < 24*60; end += 90 {
			got, err := GenerateSlots(FormatMinutes(open), FormatMinutes(end))
			require.NoError(t, err)
			assert.Len(t, got, (end-open)/30, "open=%d close=%d", open, end)
		}
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	first, err := GenerateSlots("17:00:00", "01:30:00")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := GenerateSlots("17:00:00", "01:30:00")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerateSlots_InvalidInput(t *testing.T) {
	cases := [][2]string{
		{"", "10:00"},
		{"8", "10:00"},
		{"aa:00", "10:00"},
		{"24:00", "10:00"},
		{"08:60", "10:00"},
		{"08:00", "10:0"},
		{"08:00", "10:00:99"},
		{"08:00", "1:2:3:4"},
	}
	for _, c := range cases {
		_, err := GenerateSlots(c[0], c[1])
		assert.ErrorIs(t, err, ErrInvalidTime, "open=%q close=%q", c[0], c[1])
	}
}

func TestSuggestedWindow(t *testing.T) {
	valid := []string{"08:00", "08:30", "09:00", "09:30", "10:00"}

	tests := []struct {
		name     string
		selected string
		rng      int
		expected []string
	}{
		{"full window", "09:00", 2, valid},
		{"clipped at start", "08:00", 1, []string{"08:00", "08:30"}},
		{"clipped at end", "10:00", 2, []string{"09:00", "09:30", "10:00"}},
		{"not present", "11:00", DefaultRange, []string{}},
		{"zero range", "09:30", 0, []string{"09:30"}},
		{"negative range", "09:30", -3, []string{"09:30"}},
		{"large range", "09:00", 100, valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SuggestedWindow(tt.selected, valid, tt.rng))
		})
	}
}

func TestSuggestedWindow_DoesNotAlias(t *testing.T) {
	valid := []string{"08:00", "08:30", "09:00"}
	window := SuggestedWindow("08:30", valid, 1)
	window[0] = "changed"
	assert.Equal(t, "08:00", valid[0])
}

func TestSuggestedWindow_EmptyValid(t *testing.T) {
	assert.Empty(t, SuggestedWindow("09:00", nil, 2))
}

func TestGenerateWeek(t *testing.T) {
	str := func(s string) *string { return &s }

	week, err := GenerateWeek([]models.OperatingHours{
		{DayOfWeek: 0},
		{DayOfWeek: 1, OpenTime: str("09:00:00"), CloseTime: str("10:00:00")},
		{DayOfWeek: 5, OpenTime: str("23:00"), CloseTime: str("00:30")},
	})
	require.NoError(t, err)
	require.Len(t, week, 3)
	assert.Empty(t, week[0].Times)
	assert.Equal(t, []string{"09:00:00", "09:30:00"}, week[1].Times)
	assert.Equal(t, []string{"23:00:00", "23:30:00", "00:00:00"}, week[2].Times)

	_, err = GenerateWeek([]models.OperatingHours{{DayOfWeek: 2, OpenTime: str("09:00")}})
	assert.Error(t, err)

	_, err = GenerateWeek([]models.OperatingHours{{DayOfWeek: 7, OpenTime: str("09:00"), CloseTime: str("10:00")}})
	assert.Error(t, err)

	_, err = GenerateWeek([]models.OperatingHours{{DayOfWeek: 3, OpenTime: str("nine"), CloseTime: str("10:00")}})
	assert.ErrorIs(t, err, ErrInvalidTime)
}
