// Package ghcli wraps the GitHub CLI (gh) for login, logout, account
// switching, and credential-helper setup.
package ghcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// InstallStatus reports whether gh is usable on this machine.
type InstallStatus int

const (
	// StatusInstalled means gh is on PATH.
	StatusInstalled InstallStatus = iota

	// StatusNotInstalled means gh is missing but Homebrew can install it.
	StatusNotInstalled

	// StatusBrewMissing means neither gh nor Homebrew is available, so
	// guided installation is not possible.
	StatusBrewMissing
)

var (
	// ErrNotInstalled indicates gh is required but not on PATH.
	ErrNotInstalled = errors.New("gh is not installed")

	// ErrBrewMissing indicates guided installation needs Homebrew.
	ErrBrewMissing = errors.New("homebrew is not installed")

	// ErrNoToken indicates gh has no stored token for the host.
	ErrNoToken = errors.New("gh has no stored auth token")
)

// CommandError is a gh invocation that exited non-zero. Output carries
// captured stderr, falling back to stdout when stderr is empty.
type CommandError struct {
	Args   []string
	Output string
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("gh %s failed", strings.Join(e.Args, " "))
	}
	return fmt.Sprintf("gh %s: %s", strings.Join(e.Args, " "), out)
}

// Client is the gh CLI contract consumed by the session coordinator.
type Client interface {
	// Status reports the three-valued install status.
	Status() InstallStatus

	// Install installs gh via Homebrew. Fails with ErrBrewMissing when
	// Homebrew itself is absent.
	Install(ctx context.Context) error

	// LoginWithToken authenticates gh for the host. The token travels
	// on stdin, never in the argument vector.
	LoginWithToken(ctx context.Context, hostname, token string) error

	// LoginWeb runs the interactive browser login, streaming gh output
	// to sink as it becomes available. Returns when the process exits;
	// non-zero exit yields a CommandError carrying the output.
	LoginWeb(ctx context.Context, hostname string, sink io.Writer) error

	// Logout ends the gh session for the host.
	Logout(ctx context.Context, hostname string) error

	// SetupGit configures git to use gh as its credential helper.
	SetupGit(ctx context.Context, hostname string) error

	// CurrentUser returns the login gh reports as active for the host.
	// Best-effort: absent on any failure.
	CurrentUser(ctx context.Context, hostname string) (string, bool)

	// SwitchAccount makes the account owning token the active gh
	// account for the host, switching to an already-authenticated
	// account when possible and logging in fresh otherwise.
	SwitchAccount(ctx context.Context, hostname, token string) error

	// UserInfo fetches the active account's login and avatar URL.
	UserInfo(ctx context.Context) (login, avatarURL string, err error)

	// AuthToken returns gh's stored token for the host.
	AuthToken(ctx context.Context, hostname string) (string, error)
}

// ResolveOwnerFunc resolves the login that owns a token via a direct
// authenticated API call, bypassing gh's own session.
type ResolveOwnerFunc func(ctx context.Context, token string) (login string, err error)
