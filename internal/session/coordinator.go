// Package session owns the identity list and the active-identity
// pointer, and orchestrates identity switches against the git config
// and gh CLI adapters.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksteinfeldt/gitshift/internal/ghcli"
	"github.com/ksteinfeldt/gitshift/internal/gitconfig"
	"github.com/ksteinfeldt/gitshift/internal/identity"
	"github.com/ksteinfeldt/gitshift/internal/notify"
	"github.com/ksteinfeldt/gitshift/internal/secrets"
)

// ErrIdentityNotFound indicates the requested identity does not exist.
var ErrIdentityNotFound = errors.New("identity not found")

// Coordinator serializes all mutations of the identity list and the
// active-id pointer through one mutex. External work (subprocess and
// network calls) runs with the mutex released; a per-switch generation
// token keeps stale completions from clobbering newer state, and the
// reconciler holds off on adopting or importing while a switch is in
// flight.
type Coordinator struct {
	store    *identity.Store
	secrets  secrets.Store
	git      gitconfig.Client
	gh       ghcli.Client
	hostname string

	mu            sync.Mutex
	identities    []identity.Identity
	activeID      string
	lastErr       string
	observedName  string
	observedEmail string
	switching     bool
	switchGen     uint64
}

// New creates a Coordinator and loads persisted state. Persistence is
// best-effort throughout: the in-memory state is authoritative for the
// process lifetime and storage failures degrade to warnings.
func New(store *identity.Store, sec secrets.Store, git gitconfig.Client, gh ghcli.Client, hostname string) *Coordinator {
	c := &Coordinator{
		store:    store,
		secrets:  sec,
		git:      git,
		gh:       gh,
		hostname: hostname,
	}

	ids, err := store.LoadIdentities()
	if err != nil && !errors.Is(err, identity.ErrStateNotFound) {
		log.Warn().Err(err).Msg("loading identity list")
	}
	c.identities = ids

	active, err := store.LoadActiveID()
	if err != nil {
		log.Warn().Err(err).Msg("loading active id")
	}

	// The active pointer must reference a known identity.
	for _, id := range ids {
		if id.ID == active {
			c.activeID = active
			break
		}
	}

	return c
}

// Identities returns a copy of the identity list in order.
func (c *Coordinator) Identities() []identity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]identity.Identity(nil), c.identities...)
}

// ActiveID returns the active identity id, or "" when unset.
func (c *Coordinator) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Active returns the active identity, if any.
func (c *Coordinator) Active() (identity.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.identities {
		if id.ID == c.activeID {
			return id, true
		}
	}
	return identity.Identity{}, false
}

// Get returns the identity with the given id.
func (c *Coordinator) Get(id string) (identity.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ident := range c.identities {
		if ident.ID == id {
			return ident, true
		}
	}
	return identity.Identity{}, false
}

// LastError returns the user-facing error from the most recent switch,
// or "" when the last switch succeeded.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Observed returns the git config name/email seen by the last
// reconciler pass.
func (c *Coordinator) Observed() (name, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observedName, c.observedEmail
}

// Add appends an identity to the list. The active pointer is not
// touched. Add never fails: the in-memory list is authoritative and
// the storage write is best-effort.
func (c *Coordinator) Add(ident identity.Identity) {
	c.mu.Lock()
	c.identities = append(c.identities, ident)
	ids := append([]identity.Identity(nil), c.identities...)
	c.mu.Unlock()

	if err := c.store.SaveIdentities(ids); err != nil {
		log.Warn().Err(err).Msg("persisting identity list")
	}

	log.Info().Str("id", ident.ID).Str("label", ident.Label()).Msg("identity added")
}

// Remove deletes the identity with the given id. If it was active, the
// active pointer is cleared; no identity is auto-selected and no
// external logout or config change happens.
func (c *Coordinator) Remove(id string) error {
	c.mu.Lock()
	idx := -1
	for i, ident := range c.identities {
		if ident.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}

	c.identities = append(c.identities[:idx], c.identities[idx+1:]...)
	wasActive := c.activeID == id
	if wasActive {
		c.activeID = ""
	}
	ids := append([]identity.Identity(nil), c.identities...)
	c.mu.Unlock()

	if err := c.store.SaveIdentities(ids); err != nil {
		log.Warn().Err(err).Msg("persisting identity list")
	}
	if wasActive {
		if err := c.store.SaveActiveID(""); err != nil {
			log.Warn().Err(err).Msg("persisting active id")
		}
	}

	log.Info().Str("id", id).Msg("identity removed")
	return nil
}

// Update replaces the identity with the matching id in place,
// preserving its position. When the updated identity is the active
// one, the change propagates to live config and credentials via an
// immediate switch.
func (c *Coordinator) Update(ctx context.Context, upd identity.Identity) error {
	c.mu.Lock()
	found := false
	for i := range c.identities {
		if c.identities[i].ID == upd.ID {
			c.identities[i] = upd
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, upd.ID)
	}
	isActive := c.activeID == upd.ID
	ids := append([]identity.Identity(nil), c.identities...)
	c.mu.Unlock()

	if err := c.store.SaveIdentities(ids); err != nil {
		log.Warn().Err(err).Msg("persisting identity list")
	}

	if isActive {
		return c.SwitchTo(ctx, upd)
	}
	return nil
}

// SwitchTo makes ident the active identity. The pointer is updated and
// persisted optimistically before any external step runs, then, in
// order: the git config write (fatal on failure, gating everything
// after), the gh account switch and credential-helper setup when the
// identity carries a credential (fatal), and a best-effort user-info
// fetch to populate the remote username.
//
// There is no cancellation: once started the steps run to completion
// or fatal error. A newer SwitchTo supersedes the pointer and the
// error slot but does not abort an older call's in-flight steps.
func (c *Coordinator) SwitchTo(ctx context.Context, ident identity.Identity) error {
	c.mu.Lock()
	c.activeID = ident.ID
	c.lastErr = ""
	c.switching = true
	c.switchGen++
	gen := c.switchGen
	c.mu.Unlock()

	if err := c.store.SaveActiveID(ident.ID); err != nil {
		log.Warn().Err(err).Msg("persisting active id")
	}

	err := c.performSwitch(ctx, ident)

	c.mu.Lock()
	if gen == c.switchGen {
		c.switching = false
		if err != nil {
			c.lastErr = switchErrorMessage(err)
		}
	}
	c.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("label", ident.Label()).Msg("switch failed")
		notify.Send(notify.EventSwitchFailed, map[string]string{
			notify.FieldIdentity: ident.Label(),
			notify.FieldError:    err.Error(),
		})
		return err
	}

	log.Info().Str("label", ident.Label()).Msg("switched identity")
	notify.Send(notify.EventSwitched, map[string]string{
		notify.FieldIdentity: ident.Label(),
		notify.FieldEmail:    ident.Email,
	})
	return nil
}

// performSwitch runs the external steps of a switch in order. The
// coordinator mutex is not held here.
func (c *Coordinator) performSwitch(ctx context.Context, ident identity.Identity) error {
	u := gitconfig.User{Name: ident.DisplayName, Email: ident.Email}
	if err := c.git.Write(ctx, u); err != nil {
		return fmt.Errorf("writing git config: %w", err)
	}

	if !ident.Authenticated() {
		return nil
	}

	switch c.gh.Status() {
	case ghcli.StatusInstalled:
	case ghcli.StatusBrewMissing:
		return ghcli.ErrBrewMissing
	default:
		return ghcli.ErrNotInstalled
	}

	if err := c.gh.SwitchAccount(ctx, c.hostname, ident.Credential); err != nil {
		return fmt.Errorf("switching gh account: %w", err)
	}

	if err := c.gh.SetupGit(ctx, c.hostname); err != nil {
		return fmt.Errorf("configuring credential helper: %w", err)
	}

	if ident.RemoteUsername == "" {
		c.enrichIdentity(ctx, ident.ID)
	}

	return nil
}

// enrichIdentity fetches the remote username and avatar for the
// identity and stores them. Best-effort: failures are logged and never
// fail the switch.
func (c *Coordinator) enrichIdentity(ctx context.Context, id string) {
	login, avatar, err := c.gh.UserInfo(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("fetching remote user info")
		return
	}

	c.mu.Lock()
	for i := range c.identities {
		if c.identities[i].ID == id {
			c.identities[i].RemoteUsername = login
			c.identities[i].AvatarURL = avatar
			break
		}
	}
	ids := append([]identity.Identity(nil), c.identities...)
	c.mu.Unlock()

	if err := c.store.SaveIdentities(ids); err != nil {
		log.Warn().Err(err).Msg("persisting identity list")
	}
}

// switchErrorMessage maps a fatal switch error to its user-facing
// message, distinguishing known adapter error kinds.
func switchErrorMessage(err error) string {
	var cmdErr *ghcli.CommandError
	switch {
	case errors.Is(err, ghcli.ErrNotInstalled):
		return "GitHub CLI is not installed; account switching requires it. Run 'gitshift doctor --fix'."
	case errors.Is(err, ghcli.ErrBrewMissing):
		return "GitHub CLI is not installed and Homebrew is unavailable to install it."
	case errors.As(err, &cmdErr):
		return cmdErr.Error()
	default:
		return fmt.Sprintf("switch failed: %v", err)
	}
}

// Run drives the import reconciler: one pass immediately, then one per
// interval until the context is done.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	c.Reconcile(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Reconcile(ctx)
		}
	}
}
