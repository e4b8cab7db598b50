// Package session keeps the backend access token between runs and reads
// the caller's role from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"booktable/internal/cache"
	"booktable/internal/models"
)

const (
	groupsClaim = "cognito:groups"
	tokenKey    = "session:token"
)

var (
	ErrNoSession      = errors.New("not logged in")
	ErrMalformedToken = errors.New("malformed session token")
)

// Claims is what the client needs from the access token. The signature
// is not checked here; the backend does that on every request.
type Claims struct {
	Subject   string
	Email     string
	Groups    []string
	ExpiresAt time.Time
}

// ParseToken decodes a JWT without verifying it.
func ParseToken(raw string) (*Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	out := &Claims{}
	out.Subject, _ = claims.GetSubject()
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	switch groups := claims[groupsClaim].(type) {
	case []any:
		for _, g := range groups {
			if s, ok := g.(string); ok {
				out.Groups = append(out.Groups, s)
			}
		}
	case string:
		out.Groups = []string{groups}
	}
	return out, nil
}

// Role picks the strongest known group. Tokens without one are customers.
func (c *Claims) Role() models.Role {
	best := models.RoleCustomer
	for _, g := range c.Groups {
		r, ok := models.ParseRole(g)
		if !ok {
			continue
		}
		if r == models.RoleAdmin {
			return r
		}
		if r == models.RoleRestaurantManager {
			best = r
		}
	}
	return best
}

// Expired reports whether the token expiry has passed. Tokens without
// expiry never expire.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Store keeps the access token in a cache.
type Store struct {
	cache cache.Cache
	now   func() time.Time
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c, now: time.Now}
}

// Save stores token until it expires.
func (s *Store) Save(ctx context.Context, token string) error {
	var ttl time.Duration
	if claims, err := ParseToken(token); err == nil && !claims.ExpiresAt.IsZero() {
		ttl = claims.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return fmt.Errorf("save session: token already expired")
		}
	}
	if err := s.cache.Put(ctx, tokenKey, token, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Token returns the stored token or ErrNoSession.
func (s *Store) Token(ctx context.Context) (string, error) {
	var token string
	ok, err := s.cache.Get(ctx, tokenKey, &token)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if !ok || token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// Claims loads and decodes the stored token.
func (s *Store) Claims(ctx context.Context) (*Claims, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := ParseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Expired(s.now()) {
		return nil, ErrNoSession
	}
	return claims, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.cache.Delete(ctx, tokenKey)
}
