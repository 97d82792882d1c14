package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ksteinfeldt/gitshift/internal/identity"
	"github.com/ksteinfeldt/gitshift/internal/notify"
)

// Credential-manager keys tried, in order, when importing an external
// identity whose token we may already have on this machine.
var recoveryServers = []string{"github.com", "https://github.com"}

// Reconcile imports externally observed git config state into the
// identity list. It runs on a timer and must never surface an error:
// an unreadable config counts as "nothing observed this cycle".
//
// An observed email matching a known identity adopts that identity as
// active, so config edits made in a terminal show up here without user
// action. An unknown email imports a new identity, recovering a
// credential from the network-password store when one exists.
func (c *Coordinator) Reconcile(ctx context.Context) {
	obs, err := c.git.Read(ctx)
	if err != nil {
		obs.Name, obs.Email = "", ""
	}

	c.mu.Lock()
	c.observedName = obs.Name
	c.observedEmail = obs.Email

	// Never import a blank identity.
	if obs.Email == "" {
		c.mu.Unlock()
		return
	}

	// A switch in flight owns the active pointer right now.
	if c.switching {
		c.mu.Unlock()
		return
	}

	// First match wins, case-sensitive.
	for _, ident := range c.identities {
		if ident.Email != obs.Email {
			continue
		}
		if ident.ID == c.activeID {
			c.mu.Unlock()
			return
		}
		c.activeID = ident.ID
		c.mu.Unlock()

		if err := c.store.SaveActiveID(ident.ID); err != nil {
			log.Warn().Err(err).Msg("persisting active id")
		}
		log.Info().Str("label", ident.Label()).Str("email", obs.Email).
			Msg("adopted identity from external config")
		return
	}
	c.mu.Unlock()

	// No match: import. The credential lookup talks to the secret
	// store, so it happens outside our lock.
	cred := c.recoverCredential()

	name := obs.Name
	if name == "" {
		name = obs.Email
	}
	ident := identity.New(name, obs.Email, cred)

	c.mu.Lock()
	// Re-check: a concurrent mutation may have raced the lookup.
	if c.switching || c.observedEmail != obs.Email || c.findByEmail(obs.Email) {
		c.mu.Unlock()
		return
	}
	c.identities = append(c.identities, ident)
	c.activeID = ident.ID
	ids := append([]identity.Identity(nil), c.identities...)
	c.mu.Unlock()

	if err := c.store.SaveIdentities(ids); err != nil {
		log.Warn().Err(err).Msg("persisting identity list")
	}
	if err := c.store.SaveActiveID(ident.ID); err != nil {
		log.Warn().Err(err).Msg("persisting active id")
	}

	log.Info().Str("label", ident.Label()).Str("email", ident.Email).
		Bool("credential_recovered", cred != "").
		Msg("imported identity from external config")
	notify.Send(notify.EventImported, map[string]string{
		notify.FieldIdentity: ident.Label(),
		notify.FieldEmail:    ident.Email,
	})
}

// findByEmail reports whether any identity has the email.
// Caller must hold the mutex.
func (c *Coordinator) findByEmail(email string) bool {
	for _, ident := range c.identities {
		if ident.Email == email {
			return true
		}
	}
	return false
}

// recoverCredential reads the git credential entries an external tool
// may have stored for github.com, returning the first non-empty one.
func (c *Coordinator) recoverCredential() string {
	for _, server := range recoveryServers {
		if pw, ok := c.secrets.ReadNetworkPassword(server, "git"); ok && pw != "" {
			return pw
		}
	}
	return ""
}
