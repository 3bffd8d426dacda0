package api

import (
	"context"
	"net/http"
)

// User is the backend's user record.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	UserType   string `json:"user_type,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
	Bio        string `json:"bio,omitempty"`
	Gender     string `json:"gender,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	DateJoined string `json:"date_joined,omitempty"`
}

// TokenPair is the credential pair issued on login and renewal.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// AuthResponse is the backend's answer to register, password login and OAuth
// login: the user record plus a fresh token pair.
type AuthResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// RegisterRequest holds the fields for account creation.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Register creates an account and returns the user with an initial token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleLogin exchanges a Google OAuth access token for a backend session.
// The backend verifies the token against Google's userinfo endpoint and
// creates the account on first sign-in.
func (c *Client) GoogleLogin(ctx context.Context, googleAccessToken string) (*AuthResponse, error) {
	body := map[string]string{"access_token": googleAccessToken}

	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/google/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenewTokens exchanges a refresh token at the renewal endpoint. The refresh
// field of the result is empty when the backend did not rotate it.
//
// Call this on a client without a token source: renewal must not recurse into
// the auth transport's own 401 handling.
func (c *Client) RenewTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := map[string]string{"refresh": refreshToken}

	var out TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/token/refresh/", nil, body, &out); err != nil {
		return TokenPair{}, err
	}
	return out, nil
}

// Logout invalidates the refresh token server-side, ending the session.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh": refreshToken}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout/", nil, body, nil)
}

// RequestPasswordReset asks the backend to send a reset link. The backend
// answers identically whether or not the account exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/password-reset/", nil, body, nil)
}

// UpdateProfileRequest carries a partial profile update; zero fields are left
// untouched server-side.
type UpdateProfileRequest struct {
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Gender    string `json:"gender,omitempty"`
	BirthDate string `json:"birth_date,omitempty"` // YYYY-MM-DD
}

// UpdateProfile updates the authenticated user's profile and returns the new
// user record.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	var out struct {
		Message string `json:"message"`
		User    User   `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/profile/update/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Dashboard returns the authenticated user's profile and listing counters.
func (c *Client) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	var out DashboardResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/dashboard/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DashboardResponse is the authenticated user's overview.
type DashboardResponse struct {
	User          User `json:"user"`
	PropertyCount int  `json:"property_count"`
	SavedCount    int  `json:"saved_count"`
	MeetingCount  int  `json:"meeting_count"`
	UnreadNotices int  `json:"unread_notifications"`
}
