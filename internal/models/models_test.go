package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	t.Run("ISO string", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2025-05-01"`), &d))
		assert.Equal(t, "2025-05-01", d.String())
	})

	t.Run("timestamp string is truncated", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2025-05-01T00:00:00.000+00:00"`), &d))
		assert.Equal(t, "2025-05-01", d.String())
	})

	t.Run("epoch millis", func(t *testing.T) {
		var d Date
		ms := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
		require.NoError(t, json.Unmarshal([]byte(`1746057600000`), &d))
		assert.Equal(t, ms, d.UnixMilli())
		assert.Equal(t, "2025-05-01", d.String())
	})

	t.Run("null", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`null`), &d))
		assert.True(t, d.IsZero())
	})

	t.Run("garbage", func(t *testing.T) {
		var d Date
		assert.Error(t, json.Unmarshal([]byte(`"May first"`), &d))
		assert.Error(t, json.Unmarshal([]byte(`true`), &d))
	})

	t.Run("marshal", func(t *testing.T) {
		d, err := ParseDate("2025-12-24")
		require.NoError(t, err)
		out, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, `"2025-12-24"`, string(out))

		out, err = json.Marshal(Date{})
		require.NoError(t, err)
		assert.Equal(t, `null`, string(out))
	})
}

func TestBookingStatus_IsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.True(t, BookingStatus("CONFIRMED").IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, BookingStatus("").IsActive())
}

func TestBooking_StartsAt(t *testing.T) {
	d, _ := ParseDate("2025-05-01")
	b := Booking{BookingDate: d, BookingTime: "19:30:00"}
	assert.Equal(t, time.Date(2025, 5, 1, 19, 30, 0, 0, time.UTC), b.StartsAt(nil))

	b.BookingTime = "bogus"
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), b.StartsAt(time.UTC))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("restaurantmanager")
	assert.True(t, ok)
	assert.Equal(t, RoleRestaurantManager, r)
	assert.Equal(t, "/restaurant-manager/dashboard", r.HomePath())

	r, ok = ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, "/admin", r.HomePath())

	_, ok = ParseRole("owner")
	assert.False(t, ok)
	assert.Equal(t, "/", RoleCustomer.HomePath())
}

func TestOperatingHours_IsClosed(t *testing.T) {
	open := "09:00:00"
	empty := ""
	assert.True(t, OperatingHours{}.IsClosed())
	assert.True(t, OperatingHours{OpenTime: &empty}.IsClosed())
	assert.False(t, OperatingHours{OpenTime: &open}.IsClosed())
}
