package doctor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/ksteinfeldt/gitshift/internal/ghcli"
	"github.com/ksteinfeldt/gitshift/internal/identity"
)

// GitCheck verifies the git binary is available.
type GitCheck struct{}

func (c *GitCheck) Name() string        { return "git" }
func (c *GitCheck) Description() string { return "Verify git is installed" }

func (c *GitCheck) Run(ctx context.Context, dc *Context) *Result {
	if _, err := exec.LookPath("git"); err != nil {
		return &Result{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "git is not on PATH",
			FixHint: "Install git from https://git-scm.com or via your package manager",
		}
	}
	return &Result{Name: c.Name(), Status: StatusOK, Message: "git is installed"}
}

// GHCheck verifies the GitHub CLI is installed, and can install it via
// Homebrew.
type GHCheck struct{}

func (c *GHCheck) Name() string        { return "gh" }
func (c *GHCheck) Description() string { return "Verify the GitHub CLI is installed" }

func (c *GHCheck) Run(ctx context.Context, dc *Context) *Result {
	switch dc.GH.Status() {
	case ghcli.StatusInstalled:
		return &Result{Name: c.Name(), Status: StatusOK, Message: "gh is installed"}
	case ghcli.StatusNotInstalled:
		return &Result{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "gh is not installed; identity switching needs it for credentials",
			FixHint: "Run 'gitshift doctor --fix' to install gh via Homebrew",
		}
	default:
		return &Result{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "gh is not installed and Homebrew is unavailable to install it",
			Details: []string{"Token-only identities still work; credential switching does not."},
			FixHint: "Install Homebrew (https://brew.sh) or gh directly (https://cli.github.com)",
		}
	}
}

func (c *GHCheck) Fix(ctx context.Context, dc *Context) error {
	return dc.GH.Install(ctx)
}

// ClientIDCheck verifies an OAuth client id is configured for the
// device flow.
type ClientIDCheck struct{}

func (c *ClientIDCheck) Name() string        { return "client-id" }
func (c *ClientIDCheck) Description() string { return "Verify an OAuth client id is configured" }

func (c *ClientIDCheck) Run(ctx context.Context, dc *Context) *Result {
	if dc.Config.ClientID == "" {
		return &Result{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "no OAuth client id configured; device-flow login is disabled",
			FixHint: "Set client_id in config.toml or export GITSHIFT_CLIENT_ID",
		}
	}
	return &Result{Name: c.Name(), Status: StatusOK, Message: "OAuth client id is configured"}
}

// CredentialHelperCheck verifies git is wired to gh for credentials on
// the configured host.
type CredentialHelperCheck struct {
	// runGit is a test seam; defaults to exec'ing git.
	runGit func(ctx context.Context, args ...string) (string, error)
}

func (c *CredentialHelperCheck) Name() string { return "credential-helper" }
func (c *CredentialHelperCheck) Description() string {
	return "Verify gh is the git credential helper"
}

func (c *CredentialHelperCheck) Run(ctx context.Context, dc *Context) *Result {
	run := c.runGit
	if run == nil {
		run = execGit
	}

	out, err := run(ctx, "config", "--global", "--get-all", "credential.https://"+dc.Config.Hostname+".helper")
	if err != nil || !strings.Contains(out, "gh") {
		return &Result{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "git does not use gh as its credential helper for " + dc.Config.Hostname,
			FixHint: "Run 'gitshift doctor --fix', or switch to an authenticated identity",
		}
	}
	return &Result{Name: c.Name(), Status: StatusOK, Message: "gh is the git credential helper"}
}

func (c *CredentialHelperCheck) Fix(ctx context.Context, dc *Context) error {
	if dc.GH.Status() != ghcli.StatusInstalled {
		return ghcli.ErrNotInstalled
	}
	return dc.GH.SetupGit(ctx, dc.Config.Hostname)
}

func execGit(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "git", args...).Output()
	return string(out), err
}

// StateCheck verifies the persisted identity state is readable.
type StateCheck struct{}

func (c *StateCheck) Name() string        { return "state" }
func (c *StateCheck) Description() string { return "Verify persisted identity state is readable" }

func (c *StateCheck) Run(ctx context.Context, dc *Context) *Result {
	_, err := dc.Store.LoadIdentities()
	switch {
	case err == nil:
		return &Result{Name: c.Name(), Status: StatusOK, Message: "identity state is readable"}
	case errors.Is(err, identity.ErrStateNotFound):
		return &Result{Name: c.Name(), Status: StatusOK, Message: "no identity state yet (created on first add)"}
	case errors.Is(err, os.ErrPermission):
		return &Result{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "identity state is not readable",
			Details: []string{err.Error()},
			FixHint: "Check permissions on " + dc.Store.ListPath(),
		}
	default:
		return &Result{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "identity state is corrupt",
			Details: []string{err.Error()},
			FixHint: "Move " + dc.Store.ListPath() + " aside and re-add identities",
		}
	}
}
