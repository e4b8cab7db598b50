package api

import (
	"context"
	"fmt"

	"booktable/internal/models"
)

func restaurantCacheKey(id int64) string {
	return fmt.Sprintf("restaurant:%d", id)
}

// SearchRestaurants runs the home page search.
func (c *Client) SearchRestaurants(ctx context.Context, req models.RestaurantSearchRequest) (*models.RestaurantSearchResponse, error) {
	var resp models.RestaurantSearchResponse
	if err := c.doPost(ctx, "/api/home/restaurants/search", "/api/home/restaurants/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NearbyRestaurants lists restaurants close to a point. A nil req lets
// the backend fall back to its default suggestions.
func (c *Client) NearbyRestaurants(ctx context.Context, req *models.NearbyRestaurantRequest) (*models.RestaurantSearchResponse, error) {
	var body any
	if req != nil {
		body = req
	}
	var resp models.RestaurantSearchResponse
	if err := c.doPost(ctx, "/api/home/restaurants/nearby", "/api/home/restaurants/nearby", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRestaurant returns restaurant details, read through the cache.
func (c *Client) GetRestaurant(ctx context.Context, id int64) (*models.RestaurantDetails, error) {
	key := restaurantCacheKey(id)
	var details models.RestaurantDetails
	if c.readCache(ctx, key, &details) {
		return &details, nil
	}

	if err := c.doGet(ctx, "/api/home/restaurants/{id}", fmt.Sprintf("/api/home/restaurants/%d", id), nil, &details); err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, details)
	return &details, nil
}
