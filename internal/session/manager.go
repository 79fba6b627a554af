// Package session binds connections to player records: it loads or
// creates the record on connect, keeps it live while connected and flushes
// it on disconnect.
package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/catalog"
	"github.com/osse101/realmkeeper/internal/concurrency"
	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/metrics"
	"github.com/osse101/realmkeeper/internal/repository"
	"github.com/osse101/realmkeeper/internal/worker"
)

// Store is the persistence the manager needs
type Store interface {
	repository.Inventory
	repository.Players
}

// WorldLister lists items on the ground for newly connected players
type WorldLister interface {
	ListAll() []domain.WorldItem
}

// Reconciler retries store writes that failed after memory changed
type Reconciler interface {
	Schedule(key string, fn worker.PersistFunc)
}

// DisconnectHook runs after a player has left the live set
type DisconnectHook func(ctx context.Context, playerID string)

// Config tunes the manager
type Config struct {
	StarterItem     string
	StarterQuantity int
	FlushInterval   time.Duration
	CacheSize       int
	CacheTTL        time.Duration
}

// Manager owns the live player records
type Manager struct {
	mu    sync.RWMutex
	live  map[string]*domain.Player
	hooks []DisconnectHook

	config     Config
	starter    domain.ItemType
	store      Store
	world      WorldLister
	locks      *concurrency.LockManager
	reconciler Reconciler
	notifier   broadcast.Notifier
	cache      *playerCache
	now        func() time.Time
}

// NewManager creates a manager. The starter item must exist in the catalog.
func NewManager(
	cfg Config,
	cat *catalog.Catalog,
	store Store,
	world WorldLister,
	locks *concurrency.LockManager,
	reconciler Reconciler,
	notifier broadcast.Notifier,
) (*Manager, error) {
	starter, err := cat.Lookup(cfg.StarterItem)
	if err != nil {
		return nil, fmt.Errorf("starter item: %w", err)
	}
	if cfg.StarterQuantity < 1 || cfg.StarterQuantity > starter.MaxStack {
		return nil, fmt.Errorf("%w: starter quantity %d for %s", domain.ErrInvalidInput, cfg.StarterQuantity, starter.ID)
	}

	return &Manager{
		live:       make(map[string]*domain.Player),
		config:     cfg,
		starter:    starter,
		store:      store,
		world:      world,
		locks:      locks,
		reconciler: reconciler,
		notifier:   notifier,
		cache:      newPlayerCache(cfg.CacheSize, cfg.CacheTTL),
		now:        time.Now,
	}, nil
}

// OnDisconnect registers a hook run for every disconnect
func (m *Manager) OnDisconnect(hook DisconnectHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Connect loads or creates the player's record, makes it live and sends
// the newcomer the world state. The caller registers the connection with
// the hub first so the welcome messages have somewhere to go.
func (m *Manager) Connect(ctx context.Context, ident Identity) (domain.PlayerSummary, error) {
	log := logger.FromContext(ctx)
	if ident.ID == "" {
		return domain.PlayerSummary{}, fmt.Errorf("%w: empty player id", domain.ErrInvalidInput)
	}

	unlock := m.locks.Lock(ident.ID)
	defer unlock()

	if _, ok := m.Lookup(ident.ID); ok {
		return domain.PlayerSummary{}, fmt.Errorf("%w: %s", domain.ErrAlreadyConnected, ident.ID)
	}

	p, fresh, err := m.load(ctx, ident)
	if err != nil {
		return domain.PlayerSummary{}, err
	}

	granted := false
	if p.Inventory.IsEmpty() {
		p.Inventory[0] = m.starter.NewStack(m.config.StarterQuantity)
		granted = true
		log.Info(LogMsgStarterGranted, "player_id", p.ID, "item_type", m.starter.ID)
	}

	now := m.now()
	p.ConnectedAt = now
	p.LastFlushed = now

	m.mu.Lock()
	m.live[p.ID] = p
	others := make([]domain.PlayerSummary, 0, len(m.live)-1)
	for id, other := range m.live {
		if id != p.ID {
			others = append(others, other.Summary())
		}
	}
	m.mu.Unlock()
	metrics.PlayersConnected.Inc()

	if fresh {
		m.saveSnapshot(ctx, p)
	}
	if fresh || granted {
		m.saveInventory(ctx, p)
	}

	sort.Slice(others, func(i, j int) bool { return others[i].ID < others[j].ID })
	summary := p.Summary()

	m.notifier.BroadcastExcept(p.ID, domain.MsgPlayerJoined, summary)
	m.notifier.SendTo(p.ID, domain.MsgWelcome, domain.WelcomePayload{Player: summary})
	m.notifier.SendTo(p.ID, domain.MsgPlayersList, domain.PlayersListPayload{Players: others})
	m.notifier.SendTo(p.ID, domain.MsgInventoryChanged, domain.InventoryChangedPayload{Inventory: p.Inventory.View()})
	m.notifier.SendTo(p.ID, domain.MsgWorldItems, domain.WorldItemsPayload{Items: m.world.ListAll()})

	log.Info(LogMsgConnected, "player_id", p.ID, "name", p.Name, "fresh", fresh, "online", len(others)+1)
	return summary, nil
}

// load restores a record from the cache or the store, or builds a new one.
// Guests always start fresh.
func (m *Manager) load(ctx context.Context, ident Identity) (*domain.Player, bool, error) {
	log := logger.FromContext(ctx)

	if !ident.Guest {
		if p, ok := m.cache.Take(ident.ID); ok {
			if ident.Name != "" {
				p.Name = ident.Name
			}
			log.Debug(LogMsgRestoredFromCache, "player_id", ident.ID)
			return p, false, nil
		}

		snap, err := m.store.LoadPlayer(ctx, ident.ID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: load player: %w", domain.ErrPersistenceFailure, err)
		}
		if snap != nil {
			inv, err := m.store.LoadInventory(ctx, ident.ID)
			if err != nil {
				return nil, false, fmt.Errorf("%w: load inventory: %w", domain.ErrPersistenceFailure, err)
			}
			p := &domain.Player{
				ID:        ident.ID,
				Name:      snap.Name,
				Position:  snap.Position,
				Rotation:  snap.Rotation,
				Color:     snap.Color,
				Inventory: inv,
			}
			if ident.Name != "" {
				p.Name = ident.Name
			}
			if p.Color == "" {
				p.Color = randomColor()
			}
			return p, false, nil
		}
	}

	name := ident.Name
	if name == "" {
		name = ident.ID
	}
	log.Info(LogMsgCreated, "player_id", ident.ID, "guest", ident.Guest)
	return &domain.Player{
		ID:       ident.ID,
		Name:     name,
		Guest:    ident.Guest || domain.IsGuestID(ident.ID),
		Position: domain.DefaultPosition,
		Color:    randomColor(),
	}, true, nil
}

// Disconnect flushes the record, drops it from the live set, announces the
// departure and runs the disconnect hooks. Guest records are purged
// instead of flushed. Unknown players are ignored.
func (m *Manager) Disconnect(ctx context.Context, playerID string) {
	log := logger.FromContext(ctx)

	unlock := m.locks.Lock(playerID)
	m.mu.Lock()
	p, ok := m.live[playerID]
	delete(m.live, playerID)
	hooks := append([]DisconnectHook(nil), m.hooks...)
	m.mu.Unlock()

	if !ok {
		unlock()
		return
	}

	if p.Guest {
		if err := m.store.DeletePlayer(ctx, playerID); err != nil {
			log.Warn(LogMsgGuestPurgeFailed, "player_id", playerID, "error", err)
		}
	} else {
		m.saveSnapshot(ctx, p)
		m.saveInventory(ctx, p)
		m.cache.Set(p)
	}
	unlock()

	metrics.PlayersConnected.Dec()
	m.notifier.Broadcast(domain.MsgPlayerLeft, domain.PlayerLeftPayload{ID: playerID})

	for _, hook := range hooks {
		hook(ctx, playerID)
	}
	log.Info(LogMsgDisconnected, "player_id", playerID, "session", m.now().Sub(p.ConnectedAt).Round(time.Second))
}

// UpdatePosition applies a movement update, relays it to other players and
// flushes the snapshot when the flush interval has passed.
func (m *Manager) UpdatePosition(ctx context.Context, playerID string, pos, rot domain.Vec3) error {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	p, ok := m.Lookup(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPlayerOffline, playerID)
	}

	now := m.now()
	p.Position = pos
	p.Rotation = rot
	p.LastMoved = now

	m.notifier.BroadcastExcept(playerID, domain.MsgPlayerMoved, domain.PlayerMovedPayload{
		ID:       playerID,
		Position: pos,
		Rotation: rot,
	})

	if now.Sub(p.LastFlushed) >= m.config.FlushInterval {
		m.saveSnapshot(ctx, p)
	}
	return nil
}

// FlushMoved writes the snapshot of every player that moved since its
// last flush. It runs on the scheduler so a player who stops moving is
// still persisted within one interval.
func (m *Manager) FlushMoved(ctx context.Context) error {
	for _, id := range m.liveIDs() {
		unlock := m.locks.Lock(id)
		if p, ok := m.Lookup(id); ok && p.LastMoved.After(p.LastFlushed) {
			m.saveSnapshot(ctx, p)
		}
		unlock()
	}
	return nil
}

// FlushAll writes every live player's snapshot and inventory
func (m *Manager) FlushAll(ctx context.Context) {
	ids := m.liveIDs()
	for _, id := range ids {
		unlock := m.locks.Lock(id)
		if p, ok := m.Lookup(id); ok && !p.Guest {
			m.saveSnapshot(ctx, p)
			m.saveInventory(ctx, p)
		}
		unlock()
	}
	logger.FromContext(ctx).Info(LogMsgFlushedAll, "count", len(ids))
}

// saveSnapshot persists position and appearance. Caller holds the player's lock.
func (m *Manager) saveSnapshot(ctx context.Context, p *domain.Player) {
	now := m.now()
	if err := m.store.SavePlayer(ctx, p.Snapshot(now)); err != nil {
		logger.FromContext(ctx).Error(LogMsgFlushFailed, "player_id", p.ID, "record", worker.KindPlayer, "error", err)
		m.reconciler.Schedule(worker.Key(worker.KindPlayer, p.ID), m.syncSnapshot(p.ID, p.Snapshot(now)))
	}
	p.LastFlushed = now
}

// saveInventory rewrites the whole inventory. Caller holds the player's lock.
func (m *Manager) saveInventory(ctx context.Context, p *domain.Player) {
	if err := m.store.ReplaceInventory(ctx, p.ID, p.Inventory); err != nil {
		logger.FromContext(ctx).Error(LogMsgFlushFailed, "player_id", p.ID, "record", worker.KindInventory, "error", err)
		m.reconciler.Schedule(worker.Key(worker.KindInventory, p.ID), m.syncInventory(p.ID, p.Inventory.Clone()))
	}
}

// syncSnapshot retries a snapshot write using the live record if the
// player is connected again, else the state captured at failure time.
func (m *Manager) syncSnapshot(playerID string, fallback domain.PlayerSnapshot) worker.PersistFunc {
	return func(ctx context.Context) error {
		snap := fallback
		unlock := m.locks.Lock(playerID)
		if p, ok := m.Lookup(playerID); ok {
			snap = p.Snapshot(m.now())
		}
		unlock()
		return m.store.SavePlayer(ctx, snap)
	}
}

// syncInventory is syncSnapshot for the slot array
func (m *Manager) syncInventory(playerID string, fallback domain.Inventory) worker.PersistFunc {
	return func(ctx context.Context) error {
		inv := fallback
		unlock := m.locks.Lock(playerID)
		if p, ok := m.Lookup(playerID); ok {
			inv = p.Inventory.Clone()
		}
		unlock()
		return m.store.ReplaceInventory(ctx, playerID, inv)
	}
}

// Lookup returns the live record. Callers must hold the player's lock
// while reading or writing it.
func (m *Manager) Lookup(playerID string) (*domain.Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.live[playerID]
	return p, ok
}

// DisplayName returns the name of a connected player. Names are fixed
// before a record goes live, so no player lock is taken.
func (m *Manager) DisplayName(playerID string) (string, bool) {
	p, ok := m.Lookup(playerID)
	if !ok {
		return "", false
	}
	return p.Name, true
}

// Players returns summaries of every live player ordered by id
func (m *Manager) Players() []domain.PlayerSummary {
	ids := m.liveIDs()
	out := make([]domain.PlayerSummary, 0, len(ids))
	for _, id := range ids {
		unlock := m.locks.Lock(id)
		if p, ok := m.Lookup(id); ok {
			out = append(out, p.Summary())
		}
		unlock()
	}
	return out
}

// Count returns the number of live players
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}

func (m *Manager) liveIDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func randomColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(0x1000000))
}
