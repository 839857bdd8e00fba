package apiclient

import (
	"context"
)

// Session describes the identity behind the presented token.
type Session struct {
	Username string `json:"username"`
}

// WhoAmI returns the session for the current token. Commands use it as a
// cheap probe that the server is reachable and the token is accepted before
// starting a run.
func (c *Client) WhoAmI(ctx context.Context) (*Session, error) {
	var session Session
	if err := c.get(ctx, "/api/v1/auth/whoami", &session); err != nil {
		return nil, err
	}
	return &session, nil
}
