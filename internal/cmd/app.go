package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ksteinfeldt/gitshift/internal/deviceflow"
	"github.com/ksteinfeldt/gitshift/internal/ghcli"
	"github.com/ksteinfeldt/gitshift/internal/gitconfig"
	"github.com/ksteinfeldt/gitshift/internal/githubapi"
	"github.com/ksteinfeldt/gitshift/internal/identity"
	"github.com/ksteinfeldt/gitshift/internal/secrets"
	"github.com/ksteinfeldt/gitshift/internal/session"
	"github.com/ksteinfeldt/gitshift/internal/tui"
)

func newAPIClient() *githubapi.Client {
	return githubapi.New(cfg.Hostname)
}

// newGH builds the gh adapter with token-owner resolution going through
// the GitHub API directly, so switching never depends on gh's own
// session to identify a token.
func newGH() *ghcli.CLI {
	api := newAPIClient()
	return ghcli.New(func(ctx context.Context, token string) (string, error) {
		u, err := api.UserInfo(ctx, token)
		if err != nil {
			return "", err
		}
		return u.Login, nil
	})
}

func newCoordinator() *session.Coordinator {
	return session.New(
		identity.NewStore(stateDir),
		secrets.NewFileStore(stateDir),
		gitconfig.NewExec(),
		newGH(),
		cfg.Hostname,
	)
}

// resolveIdentity matches arg against id, label, and email, in that
// order. Matching is case-insensitive for labels and emails.
func resolveIdentity(c *session.Coordinator, arg string) (identity.Identity, error) {
	if ident, ok := c.Get(arg); ok {
		return ident, nil
	}

	idents := c.Identities()
	for _, ident := range idents {
		if strings.EqualFold(ident.Label(), arg) {
			return ident, nil
		}
	}
	for _, ident := range idents {
		if strings.EqualFold(ident.Email, arg) {
			return ident, nil
		}
	}
	return identity.Identity{}, fmt.Errorf("no identity matches '%s'. Run 'gitshift list' to see identities", arg)
}

// readTokenInteractive reads a token from stdin, prompting without echo
// when stdin is a terminal.
func readTokenInteractive() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Token: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// deviceLogin runs an interactive device-flow attempt and returns the
// granted token.
func deviceLogin(ctx context.Context) (string, error) {
	if cfg.ClientID == "" {
		return "", fmt.Errorf("no OAuth client id configured; set client_id in config.toml or GITSHIFT_CLIENT_ID")
	}

	snap, err := tui.RunLogin(ctx, deviceflow.Config{
		ClientID: cfg.ClientID,
		Scope:    cfg.Scope,
		CodeURL:  cfg.DeviceCodeURL,
		TokenURL: cfg.DeviceTokenURL,
	})
	if err != nil {
		return "", err
	}

	switch snap.State {
	case deviceflow.StateAuthenticated:
		return snap.Token, nil
	case deviceflow.StateError:
		return "", fmt.Errorf("device login failed: %s", snap.Err)
	default:
		return "", fmt.Errorf("device login cancelled")
	}
}

// webLogin runs gh's browser login and returns the token gh stored.
func webLogin(ctx context.Context, gh ghcli.Client) (string, error) {
	if gh.Status() != ghcli.StatusInstalled {
		return "", ghcli.ErrNotInstalled
	}
	if err := gh.LoginWeb(ctx, cfg.Hostname, os.Stderr); err != nil {
		return "", err
	}
	return gh.AuthToken(ctx, cfg.Hostname)
}
