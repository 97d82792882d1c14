package cmd

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ksteinfeldt/gitshift/internal/ghcli"
	"github.com/ksteinfeldt/gitshift/internal/gitconfig"
	"github.com/ksteinfeldt/gitshift/internal/identity"
	"github.com/ksteinfeldt/gitshift/internal/secrets"
	"github.com/ksteinfeldt/gitshift/internal/session"
)

// stubGit satisfies gitconfig.Client for tests that never touch git.
type stubGit struct{}

func (stubGit) Read(ctx context.Context) (gitconfig.User, error) { return gitconfig.User{}, nil }
func (stubGit) Write(ctx context.Context, u gitconfig.User) error {
	return errors.New("unexpected git write")
}

// stubGh satisfies ghcli.Client for tests that never touch gh.
type stubGh struct{}

func (stubGh) Status() ghcli.InstallStatus                                  { return ghcli.StatusNotInstalled }
func (stubGh) Install(ctx context.Context) error                            { return errors.New("unexpected") }
func (stubGh) LoginWithToken(ctx context.Context, h, tok string) error      { return errors.New("unexpected") }
func (stubGh) LoginWeb(ctx context.Context, h string, sink io.Writer) error { return errors.New("unexpected") }
func (stubGh) Logout(ctx context.Context, h string) error                   { return errors.New("unexpected") }
func (stubGh) SetupGit(ctx context.Context, h string) error                 { return errors.New("unexpected") }
func (stubGh) CurrentUser(ctx context.Context, h string) (string, bool)     { return "", false }
func (stubGh) SwitchAccount(ctx context.Context, h, tok string) error       { return errors.New("unexpected") }
func (stubGh) UserInfo(ctx context.Context) (string, string, error) {
	return "", "", errors.New("unexpected")
}
func (stubGh) AuthToken(ctx context.Context, h string) (string, error) {
	return "", ghcli.ErrNoToken
}

func newTestSession(t *testing.T) *session.Coordinator {
	t.Helper()
	return session.New(identity.NewStore(t.TempDir()), secrets.NewMemory(), stubGit{}, stubGh{}, "github.com")
}

func TestResolveIdentity(t *testing.T) {
	c := newTestSession(t)

	work := identity.New("Work", "me@corp.example", "")
	personal := identity.New("Personal", "me@example.com", "")
	c.Add(work)
	c.Add(personal)

	tests := []struct {
		name   string
		arg    string
		wantID string
	}{
		{"by id", work.ID, work.ID},
		{"by label", "Work", work.ID},
		{"by label case-insensitive", "personal", personal.ID},
		{"by email", "me@corp.example", work.ID},
		{"by email case-insensitive", "ME@EXAMPLE.COM", personal.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveIdentity(c, tt.arg)
			if err != nil {
				t.Fatalf("resolveIdentity(%q): %v", tt.arg, err)
			}
			if got.ID != tt.wantID {
				t.Errorf("resolveIdentity(%q).ID = %q, want %q", tt.arg, got.ID, tt.wantID)
			}
		})
	}
}

func TestResolveIdentityIDBeatsLabel(t *testing.T) {
	c := newTestSession(t)

	a := identity.New("First", "a@example.com", "")
	c.Add(a)
	// A second identity whose label collides with the first one's id.
	b := identity.New(a.ID, "b@example.com", "")
	c.Add(b)

	got, err := resolveIdentity(c, a.ID)
	if err != nil {
		t.Fatalf("resolveIdentity: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("resolveIdentity(%q).ID = %q, want id match %q", a.ID, got.ID, a.ID)
	}
}

func TestResolveIdentityNotFound(t *testing.T) {
	c := newTestSession(t)
	c.Add(identity.New("Work", "me@corp.example", ""))

	_, err := resolveIdentity(c, "nobody")
	if err == nil {
		t.Fatal("expected error for unknown identity")
	}
	if !strings.Contains(err.Error(), "gitshift list") {
		t.Errorf("error should point at 'gitshift list': %v", err)
	}
}

func TestCommandRegistration(t *testing.T) {
	want := map[string]string{
		"list":   GroupIdentity,
		"add":    GroupIdentity,
		"remove": GroupIdentity,
		"switch": GroupIdentity,
		"import": GroupIdentity,
		"login":  GroupAuth,
		"status": GroupDiag,
		"doctor": GroupDiag,
		"watch":  GroupDiag,
	}

	found := map[string]string{}
	for _, sub := range rootCmd.Commands() {
		found[sub.Name()] = sub.GroupID
	}

	for name, group := range want {
		got, ok := found[name]
		if !ok {
			t.Errorf("command %q not registered", name)
			continue
		}
		if got != group {
			t.Errorf("command %q group = %q, want %q", name, got, group)
		}
	}
}

func TestAddFlags(t *testing.T) {
	for _, flag := range []string{"email", "with-token", "device", "web"} {
		if addCmd.Flags().Lookup(flag) == nil {
			t.Errorf("add command missing --%s flag", flag)
		}
	}
}
