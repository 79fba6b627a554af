package domain

import "time"

// GuestIDPrefix marks ephemeral identities whose durable rows are purged on disconnect.
const GuestIDPrefix = "guest-"

// DefaultPosition is where new players spawn.
var DefaultPosition = Vec3{X: 0, Y: 0, Z: 0}

// Player is the live, in-memory record of a connected player.
// Fields are guarded by the per-player lock.
type Player struct {
	ID          string
	Name        string
	Guest       bool
	Position    Vec3
	Rotation    Vec3
	Color       string
	Inventory   Inventory
	LastMoved   time.Time
	LastFlushed time.Time
	ConnectedAt time.Time
}

// PlayerSummary is the public view of a player sent to other clients.
type PlayerSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	Color    string `json:"color"`
}

// PlayerSnapshot is the durable position and appearance of a player.
type PlayerSnapshot struct {
	PlayerID  string
	Name      string
	Position  Vec3
	Rotation  Vec3
	Color     string
	UpdatedAt time.Time
}

// Summary returns the public view of p.
func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{
		ID:       p.ID,
		Name:     p.Name,
		Position: p.Position,
		Rotation: p.Rotation,
		Color:    p.Color,
	}
}

// Snapshot returns the durable twin of p.
func (p *Player) Snapshot(now time.Time) PlayerSnapshot {
	return PlayerSnapshot{
		PlayerID:  p.ID,
		Name:      p.Name,
		Position:  p.Position,
		Rotation:  p.Rotation,
		Color:     p.Color,
		UpdatedAt: now,
	}
}

// Clone copies p including its inventory.
func (p *Player) Clone() *Player {
	c := *p
	c.Inventory = p.Inventory.Clone()
	return &c
}

// IsGuestID reports whether id is an ephemeral guest identity.
func IsGuestID(id string) bool {
	return len(id) > len(GuestIDPrefix) && id[:len(GuestIDPrefix)] == GuestIDPrefix
}
