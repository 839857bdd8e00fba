package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// User represents a user record in the directory.
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name,omitempty"`
	Identities []string  `json:"identities,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// CreateUserRequest is the request to create a user.
type CreateUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.get(ctx, "/api/v1/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns a user by username.
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.get(ctx, fmt.Sprintf("/api/v1/users/%s", url.PathEscape(username)), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user.
func (c *Client) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	var user User
	if err := c.post(ctx, "/api/v1/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user by username.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.delete(ctx, fmt.Sprintf("/api/v1/users/%s", url.PathEscape(username)), nil)
}
