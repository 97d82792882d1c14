// Package doctor provides environment checks for gitshift and guided
// fixes where possible.
package doctor

import (
	"context"

	"github.com/ksteinfeldt/gitshift/internal/config"
	"github.com/ksteinfeldt/gitshift/internal/ghcli"
	"github.com/ksteinfeldt/gitshift/internal/identity"
)

// Status is the outcome of a single check.
type Status int

const (
	// StatusOK means the check passed.
	StatusOK Status = iota

	// StatusWarning means something is off but gitshift still works.
	StatusWarning

	// StatusError means a required piece is broken or missing.
	StatusError
)

// Result is the outcome of running one check.
type Result struct {
	Name    string
	Status  Status
	Message string
	Details []string
	FixHint string
}

// Context carries the dependencies checks need.
type Context struct {
	Config   *config.Config
	StateDir string
	GH       ghcli.Client
	Store    *identity.Store
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Description() string
	Run(ctx context.Context, c *Context) *Result
}

// FixableCheck is a Check that can repair what it finds.
type FixableCheck interface {
	Check
	Fix(ctx context.Context, c *Context) error
}

// All returns the standard check set in run order.
func All() []Check {
	return []Check{
		&GitCheck{},
		&GHCheck{},
		&ClientIDCheck{},
		&CredentialHelperCheck{},
		&StateCheck{},
	}
}
