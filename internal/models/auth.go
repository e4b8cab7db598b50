package models

import "strings"

// Role is the account role carried in the session token.
type Role string

const (
	RoleCustomer          Role = "Customer"
	RoleRestaurantManager Role = "RestaurantManager"
	RoleAdmin             Role = "Admin"
)

// ParseRole matches a role name case-insensitively.
func ParseRole(name string) (Role, bool) {
	for _, r := range []Role{RoleCustomer, RoleRestaurantManager, RoleAdmin} {
		if strings.EqualFold(string(r), strings.TrimSpace(name)) {
			return r, true
		}
	}
	return "", false
}

// HomePath is where a user of this role lands after login.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleRestaurantManager:
		return "/restaurant-manager/dashboard"
	default:
		return "/"
	}
}

// OTPIdentifier selects the OTP delivery channel.
type OTPIdentifier string

const (
	OTPEmail OTPIdentifier = "email"
	OTPPhone OTPIdentifier = "phone"
)

type SendOTPRequest struct {
	Identifier OTPIdentifier `json:"identifier"`
	Value      string        `json:"value"`
}

type SendOTPResponse struct {
	Session string `json:"session"`
	Message string `json:"message,omitempty"`
}

type VerifyOTPRequest struct {
	Identifier OTPIdentifier `json:"identifier"`
	Value      string        `json:"value"`
	OTP        string        `json:"otp"`
	Session    string        `json:"session"`
}

type VerifyOTPResponse struct {
	IDToken              string `json:"idToken"`
	AccessToken          string `json:"accessToken"`
	RequiresRegistration bool   `json:"requiresRegistration"`
	Session              string `json:"session"`
	Message              string `json:"message"`
	UserRole             Role   `json:"userRole"`
}

type RegistrationRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        Role   `json:"role"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Profile is the signed-in user's account as returned by /api/auth/profile.
type Profile struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        Role   `json:"role"`
}
