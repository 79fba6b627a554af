package gametest

import (
	"sync"

	"github.com/osse101/realmkeeper/internal/domain"
)

// Players is a map-backed player directory
type Players struct {
	mu      sync.RWMutex
	players map[string]*domain.Player
}

// NewPlayers creates a directory holding the given players
func NewPlayers(players ...*domain.Player) *Players {
	d := &Players{players: make(map[string]*domain.Player)}
	for _, p := range players {
		d.Add(p)
	}
	return d
}

// Add registers a player
func (d *Players) Add(p *domain.Player) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.players[p.ID] = p
}

// Remove unregisters a player
func (d *Players) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.players, id)
}

// Lookup returns a registered player
func (d *Players) Lookup(id string) (*domain.Player, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.players[id]
	return p, ok
}

// NewPlayer builds a player whose inventory holds the given stacks from slot 0
func NewPlayer(id string, stacks ...*domain.Stack) *domain.Player {
	p := &domain.Player{ID: id, Name: id}
	for i, s := range stacks {
		p.Inventory[i] = s
	}
	return p
}

// DisplayName returns a registered player's name
func (d *Players) DisplayName(id string) (string, bool) {
	p, ok := d.Lookup(id)
	if !ok {
		return "", false
	}
	return p.Name, true
}
