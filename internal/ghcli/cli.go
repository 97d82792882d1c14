package ghcli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CLI is the exec-backed Client.
type CLI struct {
	resolveOwner ResolveOwnerFunc

	// Seams for tests.
	run      func(ctx context.Context, stdin io.Reader, args ...string) (stdout, stderr string, err error)
	lookPath func(file string) (string, error)
}

// New creates a CLI that shells out to gh. resolveOwner is used by
// SwitchAccount to map a token to its owning login.
func New(resolveOwner ResolveOwnerFunc) *CLI {
	return &CLI{
		resolveOwner: resolveOwner,
		run:          runGh,
		lookPath:     exec.LookPath,
	}
}

func (c *CLI) Status() InstallStatus {
	if _, err := c.lookPath("gh"); err == nil {
		return StatusInstalled
	}
	if _, err := c.lookPath("brew"); err == nil {
		return StatusNotInstalled
	}
	return StatusBrewMissing
}

func (c *CLI) Install(ctx context.Context) error {
	switch c.Status() {
	case StatusInstalled:
		return nil
	case StatusBrewMissing:
		return ErrBrewMissing
	}

	cmd := exec.CommandContext(ctx, "brew", "install", "gh")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("brew install gh: %s", strings.TrimSpace(out.String()))
	}
	return nil
}

func (c *CLI) LoginWithToken(ctx context.Context, hostname, token string) error {
	args := []string{"auth", "login", "--hostname", hostname, "--with-token"}
	_, stderr, err := c.run(ctx, strings.NewReader(token), args...)
	if err != nil {
		return &CommandError{Args: args, Output: stderr}
	}
	return nil
}

func (c *CLI) LoginWeb(ctx context.Context, hostname string, sink io.Writer) error {
	args := []string{"auth", "login", "--hostname", hostname, "--web"}

	var captured bytes.Buffer
	out := io.MultiWriter(sink, &captured)

	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return &CommandError{Args: args, Output: captured.String()}
	}
	return nil
}

func (c *CLI) Logout(ctx context.Context, hostname string) error {
	args := []string{"auth", "logout", "--hostname", hostname}
	_, stderr, err := c.run(ctx, nil, args...)
	if err != nil {
		return &CommandError{Args: args, Output: stderr}
	}
	return nil
}

func (c *CLI) SetupGit(ctx context.Context, hostname string) error {
	args := []string{"auth", "setup-git", "--hostname", hostname}
	_, stderr, err := c.run(ctx, nil, args...)
	if err != nil {
		return &CommandError{Args: args, Output: stderr}
	}
	return nil
}

func (c *CLI) CurrentUser(ctx context.Context, hostname string) (string, bool) {
	stdout, _, err := c.run(ctx, nil, "api", "user", "--hostname", hostname, "--jq", ".login")
	if err != nil {
		return "", false
	}
	login := strings.TrimSpace(stdout)
	if login == "" {
		return "", false
	}
	return login, true
}

// SwitchAccount resolves the token's owner and either switches gh to
// that account if it is already authenticated for the host, or logs in
// fresh with the token.
func (c *CLI) SwitchAccount(ctx context.Context, hostname, token string) error {
	login, err := c.resolveOwner(ctx, token)
	if err != nil {
		return fmt.Errorf("resolving token owner: %w", err)
	}

	for _, account := range c.authenticatedAccounts(ctx, hostname) {
		if account != login {
			continue
		}
		args := []string{"auth", "switch", "--hostname", hostname, "--user", login}
		if _, stderr, err := c.run(ctx, nil, args...); err != nil {
			return &CommandError{Args: args, Output: stderr}
		}
		return nil
	}

	return c.LoginWithToken(ctx, hostname, token)
}

func (c *CLI) UserInfo(ctx context.Context) (string, string, error) {
	args := []string{"api", "user", "--jq", `.login + "|" + .avatar_url`}
	stdout, stderr, err := c.run(ctx, nil, args...)
	if err != nil {
		return "", "", &CommandError{Args: args, Output: stderr}
	}

	parts := strings.SplitN(strings.TrimSpace(stdout), "|", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", "", fmt.Errorf("gh api user returned no login")
	}

	avatar := ""
	if len(parts) == 2 {
		avatar = parts[1]
	}
	return parts[0], avatar, nil
}

func (c *CLI) AuthToken(ctx context.Context, hostname string) (string, error) {
	stdout, _, err := c.run(ctx, nil, "auth", "token", "--hostname", hostname)
	if err != nil {
		return "", ErrNoToken
	}

	token := strings.TrimSpace(stdout)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// authenticatedAccounts parses the logins gh knows for a host out of
// `gh auth status` output. Best-effort: any failure means no accounts.
func (c *CLI) authenticatedAccounts(ctx context.Context, hostname string) []string {
	stdout, stderr, err := c.run(ctx, nil, "auth", "status", "--hostname", hostname)
	out := stdout
	if err != nil {
		// gh exits non-zero when no accounts are logged in, but still
		// prints any partial status to stderr.
		out = stderr
	}
	return parseAccounts(out)
}

// parseAccounts extracts account logins from gh auth status output.
// Lines look like:
//
//	✓ Logged in to github.com account alice (keyring)
func parseAccounts(out string) []string {
	var accounts []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		for i, f := range fields {
			if f == "account" && i+1 < len(fields) {
				accounts = append(accounts, fields[i+1])
			}
		}
	}
	return accounts
}

// runGh invokes gh, capturing stdout and stderr separately.
func runGh(ctx context.Context, stdin io.Reader, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	errOut := strings.TrimSpace(stderr.String())
	if err != nil && errOut == "" {
		errOut = strings.TrimSpace(stdout.String())
	}
	return stdout.String(), errOut, err
}
