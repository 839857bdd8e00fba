// Package fixtures creates and cleans up synthetic user/identity pairs for
// exercising the reconciliation delete path in test environments.
package fixtures

import (
	"context"
	"fmt"

	"github.com/platformops/idsweep/internal/cli/prompt"
	"github.com/platformops/idsweep/internal/config"
	"github.com/platformops/idsweep/internal/retry"
	"github.com/platformops/idsweep/pkg/apiclient"
)

// SeederClient is the slice of the directory API the seeder uses.
// *apiclient.Client satisfies it.
type SeederClient interface {
	ListUsers(ctx context.Context) ([]apiclient.User, error)
	GetUser(ctx context.Context, username string) (*apiclient.User, error)
	CreateUser(ctx context.Context, req *apiclient.CreateUserRequest) (*apiclient.User, error)
	DeleteUser(ctx context.Context, username string) error
	GetIdentity(ctx context.Context, name string) (*apiclient.Identity, error)
	CreateIdentity(ctx context.Context, req *apiclient.CreateIdentityRequest) (*apiclient.Identity, error)
	DeleteIdentity(ctx context.Context, name string) error
	GetMapping(ctx context.Context, identity string) (*apiclient.Mapping, error)
	CreateMapping(ctx context.Context, identity, user string) (*apiclient.Mapping, error)
}

// Seeder drives the fixture create and cleanup phases.
type Seeder struct {
	client  SeederClient
	retry   *retry.Executor
	confirm prompt.Confirmer
	cfg     *config.Config
}

// New builds a Seeder.
func New(client SeederClient, exec *retry.Executor, confirm prompt.Confirmer, cfg *config.Config) *Seeder {
	return &Seeder{
		client:  client,
		retry:   exec,
		confirm: confirm,
		cfg:     cfg,
	}
}

// Status classifies the outcome of one fixture user's create step.
type Status string

const (
	// StatusCreated marks a user, identity, and mapping created in this run.
	StatusCreated Status = "created"
	// StatusAlreadyExisted marks a user found left over from an earlier run.
	StatusAlreadyExisted Status = "already_existed"
	// StatusFailed marks a user whose records could not be assembled; any
	// partial creations were rolled back.
	StatusFailed Status = "failed"
)

// UserResult records the outcome for a single fixture username.
type UserResult struct {
	Username string `json:"username" yaml:"username"`
	Identity string `json:"identity" yaml:"identity"`
	Status   Status `json:"status" yaml:"status"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// fixtureUsername builds the zero-padded synthetic username, e.g. "qa-001".
func fixtureUsername(prefix string, i int) string {
	return fmt.Sprintf("%s-%03d", prefix, i)
}
