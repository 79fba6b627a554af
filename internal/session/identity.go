package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/osse101/realmkeeper/internal/domain"
)

// Identity is an already-verified player identity
type Identity struct {
	ID    string
	Name  string
	Guest bool
}

// NewGuestIdentity mints an ephemeral identity such as guest-<uuid> / Guest-1A2B
func NewGuestIdentity() Identity {
	id := uuid.New()
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:GuestNameDigits])
	return Identity{
		ID:    domain.GuestIDPrefix + id.String(),
		Name:  GuestNamePrefix + suffix,
		Guest: true,
	}
}
