package api

import (
	"context"

	"booktable/internal/models"
)

// SendOTP starts a one-time-password login.
func (c *Client) SendOTP(ctx context.Context, req models.SendOTPRequest) (*models.SendOTPResponse, error) {
	var resp models.SendOTPResponse
	if err := c.doPost(ctx, "/api/auth/otp/send", "/api/auth/otp/send", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP completes the login. On success the access token becomes the
// client's session.
func (c *Client) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) (*models.VerifyOTPResponse, error) {
	var resp models.VerifyOTPResponse
	if err := c.doPost(ctx, "/api/auth/otp/verify", "/api/auth/otp/verify", req, &resp); err != nil {
		return nil, err
	}
	// The backend marks its cookie Secure, so it is not replayed over
	// plain HTTP; set it explicitly.
	if resp.AccessToken != "" {
		c.SetToken(resp.AccessToken)
	}
	return &resp, nil
}

// Register finishes sign-up for a verified user.
func (c *Client) Register(ctx context.Context, req models.RegistrationRequest) error {
	return c.doPost(ctx, "/api/auth/register", "/api/auth/register", req, nil)
}

// Profile returns the signed-in user's account.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.doGet(ctx, "/api/auth/profile", "/api/auth/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Logout ends the session on the backend and drops the local cookie even
// when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doPost(ctx, "/api/auth/logout", "/api/auth/logout", nil, nil)
	c.SetToken("")
	return err
}
