// Package identity defines the managed git identity record and its
// durable persistence.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Identity represents one managed (name, email, credential) account.
type Identity struct {
	// ID is the stable unique identifier, generated at creation.
	// Never reused after deletion.
	ID string `json:"id"`

	// DisplayName is the git user.name written on switch.
	DisplayName string `json:"display_name"`

	// Email is the git user.email written on switch. It is also the
	// matching key for reconciling externally observed config.
	Email string `json:"email"`

	// Credential is the bearer token for the hosting provider. May be
	// empty when the identity has not been authenticated yet.
	// Sensitive: must never appear in logs.
	Credential string `json:"credential,omitempty"`

	// RemoteUsername is the provider login, populated lazily after the
	// first successful authenticated round-trip.
	RemoteUsername string `json:"remote_username,omitempty"`

	// AvatarURL is cosmetic, populated alongside RemoteUsername.
	AvatarURL string `json:"avatar_url,omitempty"`

	// Added is when this identity was created.
	Added time.Time `json:"added"`
}

// New creates an identity with a fresh ID and creation timestamp.
func New(displayName, email, credential string) Identity {
	return Identity{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Email:       email,
		Credential:  credential,
		Added:       time.Now().UTC(),
	}
}

// Authenticated reports whether the identity carries a credential.
func (i Identity) Authenticated() bool {
	return i.Credential != ""
}

// Label returns a human-readable handle for display and logs.
func (i Identity) Label() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if i.Email != "" {
		return i.Email
	}
	return i.ID
}
