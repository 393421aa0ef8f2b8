package api

import (
	"context"
	"net/http"
)

// LoginResponse carries the access token issued for a staff sign-in.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	StoreID     string `json:"store_id,omitempty"`
}

type loginRequest struct {
	StaffID string `json:"staff_id"`
	PIN     string `json:"pin"`
}

// Login exchanges a staff id and PIN for an access token.
func (c *Client) Login(ctx context.Context, staffID, pin string) (LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		route:     "/auth/login",
		path:      "auth/login",
		body:      loginRequest{StaffID: staffID, PIN: pin},
		anonymous: true,
	}, &out)
	return out, err
}
