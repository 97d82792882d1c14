// Package gitconfig reads and writes the global git user identity.
package gitconfig

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// User holds the two global git identity scalars.
type User struct {
	Name  string
	Email string
}

// Client is the global git config contract consumed by the session
// coordinator and the import reconciler.
type Client interface {
	// Read returns the global user.name and user.email. A scalar that
	// is unset or unreadable comes back empty; Read only fails when
	// git itself cannot be invoked.
	Read(ctx context.Context) (User, error)

	// Write sets the global user.name and user.email.
	Write(ctx context.Context, u User) error
}

// Exec is the subprocess-backed Client.
type Exec struct {
	// run executes git with the given arguments and returns trimmed
	// stdout. Overridable in tests.
	run func(ctx context.Context, args ...string) (string, error)
}

// NewExec creates a Client that shells out to git.
func NewExec() *Exec {
	return &Exec{run: runGit}
}

func (e *Exec) Read(ctx context.Context) (User, error) {
	name, err := e.run(ctx, "config", "--global", "user.name")
	if err != nil {
		// git config exits non-zero for an unset key. Treat any
		// read failure as "not set".
		name = ""
	}

	email, err := e.run(ctx, "config", "--global", "user.email")
	if err != nil {
		email = ""
	}

	return User{Name: name, Email: email}, nil
}

func (e *Exec) Write(ctx context.Context, u User) error {
	if _, err := e.run(ctx, "config", "--global", "user.name", u.Name); err != nil {
		return fmt.Errorf("setting git user.name: %w", err)
	}
	if _, err := e.run(ctx, "config", "--global", "user.email", u.Email); err != nil {
		return fmt.Errorf("setting git user.email: %w", err)
	}
	return nil
}

// runGit invokes the git binary, returning trimmed stdout. Non-zero
// exit yields an error carrying captured stderr.
func runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}
