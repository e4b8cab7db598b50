package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booktable/internal/models"
	"booktable/internal/session"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListManagedRestaurants(ctx context.Context) (*models.RestaurantSearchResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*models.RestaurantSearchResponse)
	return resp, args.Error(1)
}

func (m *mockBackend) GetManagedRestaurant(ctx context.Context, id int64) (*models.RestaurantDetails, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.RestaurantDetails)
	return d, args.Error(1)
}

func (m *mockBackend) CreateRestaurant(ctx context.Context, req models.RestaurantRequest) (*models.RestaurantSummary, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*models.RestaurantSummary)
	return s, args.Error(1)
}

func (m *mockBackend) UpdateRestaurant(ctx context.Context, id int64, req models.RestaurantRequest) (*models.RestaurantSummary, error) {
	args := m.Called(ctx, id, req)
	s, _ := args.Get(0).(*models.RestaurantSummary)
	return s, args.Error(1)
}

func (m *mockBackend) ListAllRestaurants(ctx context.Context) ([]models.RestaurantSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.RestaurantSummary)
	return list, args.Error(1)
}

func (m *mockBackend) ListPendingRestaurants(ctx context.Context) ([]models.RestaurantSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.RestaurantSummary)
	return list, args.Error(1)
}

func (m *mockBackend) ApproveRestaurant(ctx context.Context, id int64) (*models.RestaurantSummary, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.RestaurantSummary)
	return s, args.Error(1)
}

func (m *mockBackend) RemoveRestaurant(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) ReservationAnalytics(ctx context.Context) (*models.ReservationAnalytics, error) {
	args := m.Called(ctx)
	a, _ := args.Get(0).(*models.ReservationAnalytics)
	return a, args.Error(1)
}

type staticClaims struct {
	claims *session.Claims
	err    error
}

func (s staticClaims) Claims(context.Context) (*session.Claims, error) {
	return s.claims, s.err
}

func asRole(groups ...string) staticClaims {
	return staticClaims{claims: &session.Claims{Subject: "u1", Groups: groups}}
}

func strp(s string) *string { return &s }

func validListing() Listing {
	return Listing{
		Details: models.RestaurantDetailsRequest{
			Name:        " Trattoria ",
			CuisineType: "Italian",
			CostRating:  2,
		},
		TableConfigurations: []models.TableConfiguration{{Size: 4, Quantity: 3}},
		OperatingHours: []models.OperatingHours{
			{DayOfWeek: 1, OpenTime: strp("11:00"), CloseTime: strp("12:30")},
			{DayOfWeek: 0},
		},
	}
}

func newTestService(b Backend, c ClaimsSource) *Service {
	logger := zerolog.Nop()
	return NewService(b, c, &logger)
}

func TestBuildRequest_GeneratesSlots(t *testing.T) {
	req, err := validListing().BuildRequest()
	require.NoError(t, err)

	assert.Equal(t, "Trattoria", req.BasicDetails.Name)
	require.Len(t, req.TimeSlots, 2)
	assert.Equal(t, 0, req.TimeSlots[0].DayOfWeek)
	assert.Empty(t, req.TimeSlots[0].Times)
	assert.Equal(t, []string{"11:00:00", "11:30:00", "12:00:00"}, req.TimeSlots[1].Times)
	assert.Equal(t, 0, req.OperatingHours[0].DayOfWeek)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Listing)
		want   string
	}{
		{"missing name", func(l *Listing) { l.Details.Name = "  " }, "name is required"},
		{"missing cuisine", func(l *Listing) { l.Details.CuisineType = "" }, "cuisine type"},
		{"cost too low", func(l *Listing) { l.Details.CostRating = 0 }, "cost rating"},
		{"cost too high", func(l *Listing) { l.Details.CostRating = 5 }, "cost rating"},
		{"no tables", func(l *Listing) { l.TableConfigurations = nil }, "table configuration"},
		{"bad table", func(l *Listing) { l.TableConfigurations[0].Quantity = 0 }, "positive"},
		{"duplicate day", func(l *Listing) {
			l.OperatingHours = append(l.OperatingHours, models.OperatingHours{DayOfWeek: 1})
		}, "listed twice"},
		{"day out of range", func(l *Listing) {
			l.OperatingHours = []models.OperatingHours{{DayOfWeek: 9}}
		}, "0-6"},
		{"negative table size", func(l *Listing) {
			l.TableConfigurations = append(l.TableConfigurations, models.TableConfiguration{Size: -2, Quantity: 1})
		}, "positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validListing()
			tt.mutate(&l)
			err := l.Validate()
			require.ErrorIs(t, err, ErrInvalidListing)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildRequest_OpenWithoutClose(t *testing.T) {
	l := validListing()
	l.OperatingHours = []models.OperatingHours{{DayOfWeek: 2, OpenTime: strp("10:00")}}

	_, err := l.BuildRequest()
	require.ErrorIs(t, err, ErrInvalidListing)
	assert.Contains(t, err.Error(), "without close")
}

func TestListingFromDetails(t *testing.T) {
	d := &models.RestaurantDetails{
		ID:                  5,
		Name:                "Sushi Bar",
		CuisineType:         "Japanese",
		CostRating:          3,
		City:                "Boston",
		TableConfigurations: []models.TableConfiguration{{Size: 2, Quantity: 5}},
		MainPhotoURL:        "https://img/1.jpg",
	}
	l := ListingFromDetails(d)
	assert.Equal(t, "Sushi Bar", l.Details.Name)
	assert.Equal(t, "Boston", l.Details.City)
	assert.Equal(t, d.TableConfigurations, l.TableConfigurations)
	assert.Equal(t, "https://img/1.jpg", l.MainPhotoURL)
}

func TestCreate_ManagerAllowed(t *testing.T) {
	backend := &mockBackend{}
	backend.On("CreateRestaurant", mock.Anything, mock.MatchedBy(func(r models.RestaurantRequest) bool {
		return r.BasicDetails.Name == "Trattoria" && len(r.TimeSlots) == 2
	})).Return(&models.RestaurantSummary{ID: 9, Name: "Trattoria"}, nil).Once()

	s := newTestService(backend, asRole("RestaurantManager"))
	summary, err := s.Create(context.Background(), validListing())
	require.NoError(t, err)
	assert.Equal(t, int64(9), summary.ID)
	backend.AssertExpectations(t)
}

func TestCreate_InvalidListingSkipsBackend(t *testing.T) {
	backend := &mockBackend{}
	s := newTestService(backend, asRole("RestaurantManager"))

	l := validListing()
	l.Details.Name = ""
	_, err := s.Create(context.Background(), l)
	require.ErrorIs(t, err, ErrInvalidListing)
	backend.AssertNotCalled(t, "CreateRestaurant", mock.Anything, mock.Anything)
}

func TestRoleGate(t *testing.T) {
	backend := &mockBackend{}
	backend.On("ListAllRestaurants", mock.Anything).Return([]models.RestaurantSummary{{ID: 1}}, nil)
	backend.On("ListManagedRestaurants", mock.Anything).Return(&models.RestaurantSearchResponse{}, nil)

	customer := newTestService(backend, asRole())
	_, err := customer.ListOwn(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = customer.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)

	mgr := newTestService(backend, asRole("RestaurantManager"))
	own, err := mgr.ListOwn(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, own)
	_, err = mgr.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)

	admin := newTestService(backend, asRole("Admin"))
	all, err := admin.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	_, err = admin.ListOwn(context.Background())
	assert.NoError(t, err)
}

func TestRoleGate_NoSession(t *testing.T) {
	backend := &mockBackend{}
	s := newTestService(backend, staticClaims{err: session.ErrNoSession})

	err := s.Remove(context.Background(), 3)
	assert.ErrorIs(t, err, session.ErrNoSession)
	backend.AssertNotCalled(t, "RemoveRestaurant", mock.Anything, mock.Anything)
}

func TestAdminOperations(t *testing.T) {
	backend := &mockBackend{}
	backend.On("ListPendingRestaurants", mock.Anything).Return([]models.RestaurantSummary{{ID: 4}}, nil)
	backend.On("ApproveRestaurant", mock.Anything, int64(4)).Return(&models.RestaurantSummary{ID: 4, Approved: true}, nil)
	backend.On("RemoveRestaurant", mock.Anything, int64(5)).Return(errors.New("gone"))
	backend.On("ReservationAnalytics", mock.Anything).Return(&models.ReservationAnalytics{TotalReservations: 12}, nil)

	s := newTestService(backend, asRole("Admin"))
	ctx := context.Background()

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	approved, err := s.Approve(ctx, 4)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	err = s.Remove(ctx, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove restaurant 5")

	stats, err := s.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalReservations)
}

func TestEditAndUpdate(t *testing.T) {
	backend := &mockBackend{}
	backend.On("GetManagedRestaurant", mock.Anything, int64(7)).Return(&models.RestaurantDetails{
		ID:                  7,
		Name:                "Old",
		CuisineType:         "Thai",
		CostRating:          1,
		TableConfigurations: []models.TableConfiguration{{Size: 2, Quantity: 1}},
	}, nil)
	backend.On("UpdateRestaurant", mock.Anything, int64(7), mock.Anything).
		Return(&models.RestaurantSummary{ID: 7, Name: "New"}, nil)

	s := newTestService(backend, asRole("RestaurantManager"))
	ctx := context.Background()

	l, err := s.Edit(ctx, 7)
	require.NoError(t, err)
	l.Details.Name = "New"

	summary, err := s.Update(ctx, 7, l)
	require.NoError(t, err)
	assert.Equal(t, "New", summary.Name)
}
