package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"booktable/internal/models"
	"booktable/internal/session"
)

var ErrForbidden = errors.New("role not allowed")

// ListingAPI is the manager half of the backend.
type ListingAPI interface {
	ListManagedRestaurants(ctx context.Context) (*models.RestaurantSearchResponse, error)
	GetManagedRestaurant(ctx context.Context, id int64) (*models.RestaurantDetails, error)
	CreateRestaurant(ctx context.Context, req models.RestaurantRequest) (*models.RestaurantSummary, error)
	UpdateRestaurant(ctx context.Context, id int64, req models.RestaurantRequest) (*models.RestaurantSummary, error)
}

// AdminAPI is the admin half of the backend.
type AdminAPI interface {
	ListAllRestaurants(ctx context.Context) ([]models.RestaurantSummary, error)
	ListPendingRestaurants(ctx context.Context) ([]models.RestaurantSummary, error)
	ApproveRestaurant(ctx context.Context, id int64) (*models.RestaurantSummary, error)
	RemoveRestaurant(ctx context.Context, id int64) error
	ReservationAnalytics(ctx context.Context) (*models.ReservationAnalytics, error)
}

// Backend is everything the service calls.
type Backend interface {
	ListingAPI
	AdminAPI
}

// ClaimsSource yields the current session claims.
type ClaimsSource interface {
	Claims(ctx context.Context) (*session.Claims, error)
}

// Service provides manager and admin operations.
type Service struct {
	backend Backend
	claims  ClaimsSource
	logger  *zerolog.Logger
}

// NewService creates a new manager service.
func NewService(backend Backend, claims ClaimsSource, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "manager").Logger()
	return &Service{backend: backend, claims: claims, logger: &l}
}

// require checks the session role. Admins pass every gate.
func (s *Service) require(ctx context.Context, role models.Role) error {
	claims, err := s.claims.Claims(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	got := claims.Role()
	if got == role || got == models.RoleAdmin {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s", ErrForbidden, got, role)
}

func (s *Service) ListOwn(ctx context.Context) ([]models.RestaurantSearchDetails, error) {
	if err := s.require(ctx, models.RoleRestaurantManager); err != nil {
		return nil, err
	}
	resp, err := s.backend.ListManagedRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	if resp.RestaurantSearchDetails == nil {
		return []models.RestaurantSearchDetails{}, nil
	}
	return resp.RestaurantSearchDetails, nil
}

// Edit loads a managed restaurant into an edit form.
func (s *Service) Edit(ctx context.Context, id int64) (Listing, error) {
	if err := s.require(ctx, models.RoleRestaurantManager); err != nil {
		return Listing{}, err
	}
	details, err := s.backend.GetManagedRestaurant(ctx, id)
	if err != nil {
		return Listing{}, fmt.Errorf("get restaurant %d: %w", id, err)
	}
	return ListingFromDetails(details), nil
}

func (s *Service) Create(ctx context.Context, l Listing) (*models.RestaurantSummary, error) {
	if err := s.require(ctx, models.RoleRestaurantManager); err != nil {
		return nil, err
	}
	req, err := l.BuildRequest()
	if err != nil {
		return nil, err
	}
	summary, err := s.backend.CreateRestaurant(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	s.logger.Info().Int64("restaurant_id", summary.ID).Str("name", summary.Name).Msg("restaurant created")
	return summary, nil
}

func (s *Service) Update(ctx context.Context, id int64, l Listing) (*models.RestaurantSummary, error) {
	if err := s.require(ctx, models.RoleRestaurantManager); err != nil {
		return nil, err
	}
	req, err := l.BuildRequest()
	if err != nil {
		return nil, err
	}
	summary, err := s.backend.UpdateRestaurant(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update restaurant %d: %w", id, err)
	}
	s.logger.Info().Int64("restaurant_id", id).Msg("restaurant updated")
	return summary, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.RestaurantSummary, error) {
	if err := s.require(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.backend.ListAllRestaurants(ctx)
}

func (s *Service) ListPending(ctx context.Context) ([]models.RestaurantSummary, error) {
	if err := s.require(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.backend.ListPendingRestaurants(ctx)
}

func (s *Service) Approve(ctx context.Context, id int64) (*models.RestaurantSummary, error) {
	if err := s.require(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	summary, err := s.backend.ApproveRestaurant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("approve restaurant %d: %w", id, err)
	}
	s.logger.Info().Int64("restaurant_id", id).Msg("restaurant approved")
	return summary, nil
}

func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.require(ctx, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.backend.RemoveRestaurant(ctx, id); err != nil {
		return fmt.Errorf("remove restaurant %d: %w", id, err)
	}
	s.logger.Info().Int64("restaurant_id", id).Msg("restaurant removed")
	return nil
}

func (s *Service) Analytics(ctx context.Context) (*models.ReservationAnalytics, error) {
	if err := s.require(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.backend.ReservationAnalytics(ctx)
}
