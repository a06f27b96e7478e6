// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "time"

// RegisterRequest represents the request body for POST /register.
// A client-supplied created_at is accepted and ignored; the server stamps its own.
type RegisterRequest struct {
	Username  string     `json:"username"`
	FullName  string     `json:"full_name"`
	Password  string     `json:"password"`
	Email     string     `json:"email"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Result string `json:"result"`
}

// LoginRequest represents the request body for POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse is the body of GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error body shape shared by every endpoint.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
