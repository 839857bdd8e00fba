package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Identity represents an identity record in the directory. The name is
// provider-qualified ("<provider>:<provider_username>"); User carries the
// username of the linked user record, or "" when the identity is unlinked.
type Identity struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Provider         string    `json:"provider"`
	ProviderUsername string    `json:"provider_username"`
	User             string    `json:"user,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// CreateIdentityRequest is the request to create an identity. The server
// derives the identity name from provider and provider username.
type CreateIdentityRequest struct {
	Provider         string `json:"provider"`
	ProviderUsername string `json:"provider_username"`
}

// IdentityName builds the provider-qualified identity name.
func IdentityName(provider, providerUsername string) string {
	return provider + ":" + providerUsername
}

// ListIdentities returns identities, filtered to one provider when provider
// is non-empty.
func (c *Client) ListIdentities(ctx context.Context, provider string) ([]Identity, error) {
	path := "/api/v1/identities"
	if provider != "" {
		path += "?provider=" + url.QueryEscape(provider)
	}

	var identities []Identity
	if err := c.get(ctx, path, &identities); err != nil {
		return nil, err
	}
	return identities, nil
}

// GetIdentity returns an identity by its provider-qualified name.
func (c *Client) GetIdentity(ctx context.Context, name string) (*Identity, error) {
	var identity Identity
	if err := c.get(ctx, fmt.Sprintf("/api/v1/identities/%s", url.PathEscape(name)), &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// CreateIdentity creates a new identity.
func (c *Client) CreateIdentity(ctx context.Context, req *CreateIdentityRequest) (*Identity, error) {
	var identity Identity
	if err := c.post(ctx, "/api/v1/identities", req, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// DeleteIdentity deletes an identity by its provider-qualified name.
func (c *Client) DeleteIdentity(ctx context.Context, name string) error {
	return c.delete(ctx, fmt.Sprintf("/api/v1/identities/%s", url.PathEscape(name)), nil)
}
