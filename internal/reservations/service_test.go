package reservations

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"booktable/internal/models"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) FetchBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Booking)
	return list, args.Error(1)
}

func (m *mockAPI) CancelBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func booking(id int64, date, at string, status models.BookingStatus) models.Booking {
	d, _ := models.ParseDate(date)
	return models.Booking{
		ID:             id,
		RestaurantID:   7,
		RestaurantName: "Trattoria",
		BookingDate:    d,
		BookingTime:    at,
		PartySize:      2,
		Email:          "a@b.com",
		Status:         status,
	}
}

func newTestService(api BookingAPI) *Service {
	logger := zerolog.Nop()
	s := NewService(api, time.UTC, &logger)
	s.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

func fixture() []models.Booking {
	return []models.Booking{
		booking(3, "2024-06-12", "19:00:00", models.StatusConfirmed),
		booking(1, "2024-06-01", "18:30:00", models.StatusConfirmed),
		booking(2, "2024-06-11", "12:00:00", models.StatusCancelled),
		booking(4, "2024-06-10", "12:30:00", models.StatusPending),
	}
}

func TestList_SortsByStart(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchBookings", mock.Anything).Return(fixture(), nil)

	list, err := newTestService(api).List(context.Background())
	require.NoError(t, err)

	ids := make([]int64, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []int64{1, 4, 2, 3}, ids)
}

func TestUpcoming_ActiveAndFuture(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchBookings", mock.Anything).Return(fixture(), nil)

	list, err := newTestService(api).Upcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(4), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)
}

func TestList_FetchError(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchBookings", mock.Anything).Return(nil, errors.New("boom"))

	_, err := newTestService(api).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch bookings")
}

func TestCancel_RefreshesList(t *testing.T) {
	api := &mockAPI{}
	api.On("CancelBooking", mock.Anything, int64(3)).Return(nil).Once()
	api.On("FetchBookings", mock.Anything).Return(fixture(), nil).Once()

	list, err := newTestService(api).Cancel(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	api.AssertExpectations(t)
}

func TestCancel_ErrorSkipsRefresh(t *testing.T) {
	api := &mockAPI{}
	api.On("CancelBooking", mock.Anything, int64(3)).Return(errors.New("denied"))

	_, err := newTestService(api).Cancel(context.Background(), 3)
	require.Error(t, err)
	api.AssertNotCalled(t, "FetchBookings", mock.Anything)
}

func TestCancelIfActive(t *testing.T) {
	t.Run("cancelled booking", func(t *testing.T) {
		api := &mockAPI{}
		api.On("FetchBookings", mock.Anything).Return(fixture(), nil)

		_, err := newTestService(api).CancelIfActive(context.Background(), 2)
		assert.ErrorIs(t, err, ErrNotCancellable)
		api.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
	})

	t.Run("unknown booking", func(t *testing.T) {
		api := &mockAPI{}
		api.On("FetchBookings", mock.Anything).Return(fixture(), nil)

		_, err := newTestService(api).CancelIfActive(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotCancellable)
	})

	t.Run("active booking", func(t *testing.T) {
		api := &mockAPI{}
		api.On("FetchBookings", mock.Anything).Return(fixture(), nil)
		api.On("CancelBooking", mock.Anything, int64(4)).Return(nil).Once()

		_, err := newTestService(api).CancelIfActive(context.Background(), 4)
		require.NoError(t, err)
		api.AssertExpectations(t)
	})
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Confirmed", StatusLabel("CONFIRMED"))
	assert.Equal(t, "Pending", StatusLabel(models.StatusPending))
	assert.Equal(t, "Cancelled", StatusLabel(models.StatusCancelled))
	assert.Equal(t, "Unknown", StatusLabel(""))
	assert.Equal(t, "no_show", StatusLabel("no_show"))
}

func TestExport_WritesWorkbook(t *testing.T) {
	api := &mockAPI{}
	api.On("FetchBookings", mock.Anything).Return(fixture(), nil)

	var buf bytes.Buffer
	n, err := newTestService(api).Export(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Upcoming", "Past"}, f.GetSheetList())

	upcoming, err := f.GetRows("Upcoming")
	require.NoError(t, err)
	require.Len(t, upcoming, 4)
	assert.Equal(t, exportColumns, upcoming[0])
	assert.Equal(t, "4", upcoming[1][0])
	assert.Equal(t, "Pending", upcoming[1][6])

	past, err := f.GetRows("Past")
	require.NoError(t, err)
	require.Len(t, past, 2)
	assert.Equal(t, "2024-06-01", past[1][2])
}

func TestWorkbook_RowWithoutSheet(t *testing.T) {
	w := NewWorkbook()
	defer w.Close()
	assert.Error(t, w.WriteRow([]any{"x"}))
}

func TestWorkbook_TruncatesSheetName(t *testing.T) {
	w := NewWorkbook()
	defer w.Close()
	require.NoError(t, w.AddSheet("a very long sheet name that keeps going"))
	assert.Len(t, w.file.GetSheetList()[0], sheetNameLimit)
}
