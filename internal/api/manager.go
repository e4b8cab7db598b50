package api

import (
	"context"
	"fmt"

	"booktable/internal/models"
)

// ListManagedRestaurants lists the restaurants of the signed-in manager.
func (c *Client) ListManagedRestaurants(ctx context.Context) (*models.RestaurantSearchResponse, error) {
	var resp models.RestaurantSearchResponse
	if err := c.doGet(ctx, "/api/manager/restaurants", "/api/manager/restaurants", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetManagedRestaurant(ctx context.Context, id int64) (*models.RestaurantDetails, error) {
	var details models.RestaurantDetails
	if err := c.doGet(ctx, "/api/manager/restaurants/{id}", fmt.Sprintf("/api/manager/restaurants/%d", id), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) CreateRestaurant(ctx context.Context, req models.RestaurantRequest) (*models.RestaurantSummary, error) {
	var resp models.RestaurantSummary
	if err := c.doPost(ctx, "/api/manager/restaurants", "/api/manager/restaurants", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateRestaurant replaces a listing and drops its cached details.
func (c *Client) UpdateRestaurant(ctx context.Context, id int64, req models.RestaurantRequest) (*models.RestaurantSummary, error) {
	var resp models.RestaurantSummary
	if err := c.doPut(ctx, "/api/manager/restaurants/{id}", fmt.Sprintf("/api/manager/restaurants/%d", id), req, &resp); err != nil {
		return nil, err
	}
	c.dropCache(ctx, restaurantCacheKey(id))
	return &resp, nil
}

// ListAllRestaurants is the admin view of every listing.
func (c *Client) ListAllRestaurants(ctx context.Context) ([]models.RestaurantSummary, error) {
	var list []models.RestaurantSummary
	if err := c.doGet(ctx, "/api/admin/restaurants", "/api/admin/restaurants", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) ListPendingRestaurants(ctx context.Context) ([]models.RestaurantSummary, error) {
	var list []models.RestaurantSummary
	if err := c.doGet(ctx, "/api/admin/restaurants/pending", "/api/admin/restaurants/pending", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) ApproveRestaurant(ctx context.Context, id int64) (*models.RestaurantSummary, error) {
	var resp models.RestaurantSummary
	path := fmt.Sprintf("/api/admin/restaurants/%d/approve", id)
	if err := c.doPost(ctx, "/api/admin/restaurants/{id}/approve", path, nil, &resp); err != nil {
		return nil, err
	}
	c.dropCache(ctx, restaurantCacheKey(id))
	return &resp, nil
}

func (c *Client) RemoveRestaurant(ctx context.Context, id int64) error {
	if err := c.doDelete(ctx, "/api/admin/restaurants/{id}", fmt.Sprintf("/api/admin/restaurants/%d", id), nil); err != nil {
		return err
	}
	c.dropCache(ctx, restaurantCacheKey(id))
	return nil
}

func (c *Client) ReservationAnalytics(ctx context.Context) (*models.ReservationAnalytics, error) {
	var resp models.ReservationAnalytics
	if err := c.doGet(ctx, "/api/admin/analytics/reservations", "/api/admin/analytics/reservations", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
