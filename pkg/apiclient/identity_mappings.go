package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Mapping links an identity to a user record. Its name on the server is the
// identity's provider-qualified name.
type Mapping struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CreateMappingRequest is the request to create an identity mapping.
type CreateMappingRequest struct {
	Identity string `json:"identity"`
	User     string `json:"user"`
}

// GetMapping returns the mapping for an identity name.
func (c *Client) GetMapping(ctx context.Context, identity string) (*Mapping, error) {
	var mapping Mapping
	if err := c.get(ctx, mappingPath(identity), &mapping); err != nil {
		return nil, err
	}
	return &mapping, nil
}

// CreateMapping links an identity to a user.
func (c *Client) CreateMapping(ctx context.Context, identity, user string) (*Mapping, error) {
	req := &CreateMappingRequest{
		Identity: identity,
		User:     user,
	}
	var mapping Mapping
	if err := c.post(ctx, "/api/v1/identity-mappings", req, &mapping); err != nil {
		return nil, err
	}
	return &mapping, nil
}

// DeleteMapping removes the mapping for an identity name.
func (c *Client) DeleteMapping(ctx context.Context, identity string) error {
	return c.delete(ctx, mappingPath(identity), nil)
}

func mappingPath(identity string) string {
	return fmt.Sprintf("/api/v1/identity-mappings/%s", url.PathEscape(identity))
}
