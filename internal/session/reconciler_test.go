package session

import (
	"context"
	"errors"
	"testing"

	"github.com/ksteinfeldt/gitshift/internal/gitconfig"
	"github.com/ksteinfeldt/gitshift/internal/identity"
)

func TestReconcile_UpdatesObservedFields(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)
	git.user = gitconfig.User{Name: "Jane", Email: "jane@x.com"}

	c.Reconcile(context.Background())

	name, email := c.Observed()
	if name != "Jane" || email != "jane@x.com" {
		t.Errorf("observed = (%q, %q)", name, email)
	}
}

func TestReconcile_MatchByEmailAdoptsActive(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)

	a := identity.New("A", "a@x.com", "")
	b := identity.New("B", "b@x.com", "")
	c.Add(a)
	c.Add(b)

	git.user = gitconfig.User{Name: "whoever", Email: "b@x.com"}
	c.Reconcile(context.Background())

	if c.ActiveID() != b.ID {
		t.Errorf("active id = %q, want %q", c.ActiveID(), b.ID)
	}
	if got := len(c.Identities()); got != 2 {
		t.Errorf("identities = %d, want 2 (no import on match)", got)
	}
}

func TestReconcile_DuplicateEmailFirstMatchWins(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)

	first := identity.New("First", "dup@x.com", "")
	second := identity.New("Second", "dup@x.com", "")
	c.Add(first)
	c.Add(second)

	git.user = gitconfig.User{Email: "dup@x.com"}
	c.Reconcile(context.Background())

	if c.ActiveID() != first.ID {
		t.Errorf("active id = %q, want first match %q", c.ActiveID(), first.ID)
	}
}

func TestReconcile_ImportsUnknownIdentity(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)
	git.user = gitconfig.User{Name: "Jane", Email: "jane@x.com"}

	c.Reconcile(context.Background())

	ids := c.Identities()
	if len(ids) != 1 {
		t.Fatalf("identities = %d, want 1 imported", len(ids))
	}
	got := ids[0]
	if got.DisplayName != "Jane" {
		t.Errorf("display name = %q, want %q", got.DisplayName, "Jane")
	}
	if got.Email != "jane@x.com" {
		t.Errorf("email = %q", got.Email)
	}
	if got.Credential != "" {
		t.Errorf("credential = %q, want empty with nothing to recover", got.Credential)
	}
	if c.ActiveID() != got.ID {
		t.Errorf("imported identity should become active")
	}

	// A second pass must not import again.
	c.Reconcile(context.Background())
	if got := len(c.Identities()); got != 1 {
		t.Errorf("identities after second pass = %d, want 1", got)
	}
}

func TestReconcile_ImportNameFallsBackToEmail(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)
	git.user = gitconfig.User{Email: "anon@x.com"}

	c.Reconcile(context.Background())

	ids := c.Identities()
	if len(ids) != 1 {
		t.Fatalf("identities = %d, want 1", len(ids))
	}
	if ids[0].DisplayName != "anon@x.com" {
		t.Errorf("display name = %q, want the email", ids[0].DisplayName)
	}
}

func TestReconcile_ImportRecoversCredential(t *testing.T) {
	c, git, _, sec := newTestCoordinator(t)
	git.user = gitconfig.User{Name: "Jane", Email: "jane@x.com"}
	sec.SaveNetworkPassword("https://github.com", "git", "gho_recovered")

	c.Reconcile(context.Background())

	ids := c.Identities()
	if len(ids) != 1 {
		t.Fatalf("identities = %d, want 1", len(ids))
	}
	if ids[0].Credential != "gho_recovered" {
		t.Errorf("credential = %q, want recovered token", ids[0].Credential)
	}
}

func TestReconcile_CredentialKeyOrder(t *testing.T) {
	c, git, _, sec := newTestCoordinator(t)
	git.user = gitconfig.User{Name: "Jane", Email: "jane@x.com"}
	sec.SaveNetworkPassword("github.com", "git", "gho_plain")
	sec.SaveNetworkPassword("https://github.com", "git", "gho_url")

	c.Reconcile(context.Background())

	ids := c.Identities()
	if ids[0].Credential != "gho_plain" {
		t.Errorf("credential = %q, want the github.com entry tried first", ids[0].Credential)
	}
}

func TestReconcile_EmptyEmailDoesNothing(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)
	git.user = gitconfig.User{Name: "Just A Name"}

	c.Reconcile(context.Background())

	if got := len(c.Identities()); got != 0 {
		t.Errorf("identities = %d, want 0 for blank email", got)
	}

	name, email := c.Observed()
	if name != "Just A Name" || email != "" {
		t.Errorf("observed = (%q, %q)", name, email)
	}
}

func TestReconcile_ReadFailureIsSilent(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)
	git.readErr = errors.New("git broke")

	c.Reconcile(context.Background())

	if got := len(c.Identities()); got != 0 {
		t.Errorf("identities = %d, want 0", got)
	}
	name, email := c.Observed()
	if name != "" || email != "" {
		t.Errorf("observed = (%q, %q), want blank on read failure", name, email)
	}
	if c.LastError() != "" {
		t.Errorf("reconciler must never surface an error, got %q", c.LastError())
	}
}

func TestReconcile_SkipsWhileSwitchInFlight(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)
	git.user = gitconfig.User{Name: "Jane", Email: "jane@x.com"}

	c.mu.Lock()
	c.switching = true
	c.mu.Unlock()

	c.Reconcile(context.Background())

	if got := len(c.Identities()); got != 0 {
		t.Errorf("identities = %d, want 0 while a switch is in flight", got)
	}

	// Observed fields still update; only adopt/import holds off.
	_, email := c.Observed()
	if email != "jane@x.com" {
		t.Errorf("observed email = %q", email)
	}

	c.mu.Lock()
	c.switching = false
	c.mu.Unlock()

	c.Reconcile(context.Background())
	if got := len(c.Identities()); got != 1 {
		t.Errorf("identities = %d, want 1 after the switch completes", got)
	}
}

func TestReconcile_MatchingActiveIsStable(t *testing.T) {
	c, git, _, _ := newTestCoordinator(t)

	a := identity.New("A", "a@x.com", "")
	c.Add(a)
	git.user = gitconfig.User{Email: "a@x.com"}

	c.Reconcile(context.Background())
	if c.ActiveID() != a.ID {
		t.Fatalf("active id = %q, want %q", c.ActiveID(), a.ID)
	}

	// Repeated passes keep the same state.
	c.Reconcile(context.Background())
	if c.ActiveID() != a.ID || len(c.Identities()) != 1 {
		t.Error("reconcile is not idempotent for matched state")
	}
}
