// Package trade runs two-party trade negotiations and hands the agreed
// exchange to the inventory service at commit time.
package trade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/realmkeeper/internal/broadcast"
	"github.com/osse101/realmkeeper/internal/catalog"
	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/inventory"
	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/metrics"
)

// Roster resolves display names of connected players
type Roster interface {
	DisplayName(playerID string) (string, bool)
}

// Inventories reads and exchanges player inventories
type Inventories interface {
	Snapshot(playerID string) (domain.Inventory, error)
	Exchange(ctx context.Context, req inventory.ExchangeRequest) error
}

// Service defines the trade negotiation operations. Every call names the
// acting player and the counterpart; a player takes part in at most one
// trade at a time, so the pair identifies the session.
type Service interface {
	Request(ctx context.Context, fromID, toID string) (*domain.TradeSession, error)
	Respond(ctx context.Context, playerID, counterpartID string, accepted bool) error
	UpdateOffer(ctx context.Context, playerID, counterpartID string, entries []domain.OfferEntry) error
	Accept(ctx context.Context, playerID, counterpartID string, accepted bool) error
	Complete(ctx context.Context, playerID, counterpartID string) error
	Cancel(ctx context.Context, playerID, counterpartID string) error
	HandleDisconnect(ctx context.Context, playerID string)
	ExpireIdle(ctx context.Context) int
	ForPlayer(playerID string) (*domain.TradeSession, bool)
	ActiveCount() int
}

type session struct {
	domain.TradeSession
	committing bool
	abandoned  bool
}

type service struct {
	mu       sync.Mutex
	sessions map[string]*session
	byPlayer map[string]*session

	roster      Roster
	inventories Inventories
	catalog     *catalog.Catalog
	notifier    broadcast.Notifier
	idleTimeout time.Duration
	now         func() time.Time
}

// NewService creates a trade coordinator. A zero idleTimeout disables expiry.
func NewService(roster Roster, inventories Inventories, cat *catalog.Catalog, notifier broadcast.Notifier, idleTimeout time.Duration) Service {
	return &service{
		sessions:    make(map[string]*session),
		byPlayer:    make(map[string]*session),
		roster:      roster,
		inventories: inventories,
		catalog:     cat,
		notifier:    notifier,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Request opens a pending trade and notifies the counterpart
func (s *service) Request(ctx context.Context, fromID, toID string) (*domain.TradeSession, error) {
	if fromID == "" || toID == "" || fromID == toID {
		return nil, fmt.Errorf("%w: cannot trade with %q", domain.ErrInvalidInput, toID)
	}
	fromName, ok := s.roster.DisplayName(fromID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlayerOffline, fromID)
	}
	toName, ok := s.roster.DisplayName(toID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlayerOffline, toID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.byPlayer[fromID]; busy {
		return nil, domain.NewFailure(domain.ErrPlayerBusy, fromName)
	}
	if _, busy := s.byPlayer[toID]; busy {
		return nil, domain.NewFailure(domain.ErrPlayerBusy, toName)
	}

	now := s.now()
	sess := &session{TradeSession: domain.TradeSession{
		ID:           uuid.NewString(),
		Participants: [2]string{fromID, toID},
		Names:        [2]string{fromName, toName},
		Status:       domain.TradeStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}}
	s.sessions[sess.ID] = sess
	s.byPlayer[fromID] = sess
	s.byPlayer[toID] = sess

	logger.FromContext(ctx).Info(LogMsgRequested, "trade_id", sess.ID, "from", fromID, "to", toID)
	s.notifier.SendTo(toID, domain.MsgTradeRequest, domain.TradeRequestPayload{
		TradeID:  sess.ID,
		FromID:   fromID,
		ToID:     toID,
		FromName: fromName,
	})
	return sess.Clone(), nil
}

// Respond lets the recipient of a pending request accept or decline it
func (s *service) Respond(ctx context.Context, playerID, counterpartID string, accepted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, side, err := s.lookup(playerID, counterpartID)
	if err != nil {
		return err
	}
	if sess.Status != domain.TradeStatusPending || side != 1 {
		return domain.ErrTradeNotReady
	}

	if !accepted {
		s.notifier.SendTo(counterpartID, domain.MsgTradeResponse, domain.TradeResponsePayload{
			TradeID: sess.ID, FromID: playerID, ToID: counterpartID, Accepted: false,
		})
		s.end(ctx, sess, domain.CancelReasonDeclined, OutcomeDeclined)
		return nil
	}

	sess.Status = domain.TradeStatusActive
	sess.UpdatedAt = s.now()
	logger.FromContext(ctx).Info(LogMsgOpened, "trade_id", sess.ID)

	s.notifier.SendTo(counterpartID, domain.MsgTradeResponse, domain.TradeResponsePayload{
		TradeID: sess.ID, FromID: playerID, ToID: counterpartID, Accepted: true,
	})
	return nil
}

// UpdateOffer replaces the player's offer. Entries are checked against the
// player's current slots and stamped with what occupies them. Any change
// clears both acceptance flags.
func (s *service) UpdateOffer(ctx context.Context, playerID, counterpartID string, entries []domain.OfferEntry) error {
	inv, err := s.inventories.Snapshot(playerID)
	if err != nil {
		return err
	}
	stamped, err := s.stampOffer(inv, entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, side, err := s.lookup(playerID, counterpartID)
	if err != nil {
		return err
	}
	if sess.Status != domain.TradeStatusActive || sess.committing {
		return domain.ErrTradeNotReady
	}

	sess.Offers[side] = stamped
	sess.ResetAcceptance()
	sess.UpdatedAt = s.now()

	logger.FromContext(ctx).Debug(LogMsgOfferUpdated, "trade_id", sess.ID, "player_id", playerID, "entries", len(stamped))
	s.notifier.SendTo(counterpartID, domain.MsgTradeOfferUpdate, domain.TradeOfferUpdatePayload{
		TradeID:      sess.ID,
		FromID:       playerID,
		ToID:         counterpartID,
		OfferedItems: stamped,
	})
	return nil
}

// stampOffer validates offer entries against inv and copies in the item
// type and name found in each slot.
func (s *service) stampOffer(inv domain.Inventory, entries []domain.OfferEntry) ([]domain.OfferEntry, error) {
	out := make([]domain.OfferEntry, 0, len(entries))
	need := make(map[int]int, len(entries))
	for _, e := range entries {
		if !domain.ValidSlot(e.Slot) {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidSlot, e.Slot)
		}
		cur := inv[e.Slot]
		if cur == nil {
			return nil, fmt.Errorf("%w: slot %d is empty", domain.ErrInvalidSlot, e.Slot)
		}
		if e.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity %d", domain.ErrInvalidInput, e.Quantity)
		}
		need[e.Slot] += e.Quantity
		if need[e.Slot] > cur.Quantity {
			return nil, fmt.Errorf("%w: offered %d of %d %s", domain.ErrInvalidInput, need[e.Slot], cur.Quantity, cur.Name)
		}
		t, err := s.catalog.Lookup(cur.ItemType)
		if err != nil {
			return nil, err
		}
		if !t.Tradeable {
			return nil, domain.NewFailure(domain.ErrNotTradeable, t.Name)
		}
		out = append(out, domain.OfferEntry{
			Slot:     e.Slot,
			Quantity: e.Quantity,
			ItemType: cur.ItemType,
			Name:     cur.Name,
		})
	}
	return out, nil
}

// Accept sets the player's acceptance flag and commits once both are set
func (s *service) Accept(ctx context.Context, playerID, counterpartID string, accepted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, side, err := s.lookup(playerID, counterpartID)
	if err != nil {
		return err
	}
	if sess.Status != domain.TradeStatusActive || sess.committing {
		return domain.ErrTradeNotReady
	}

	sess.Accepted[side] = accepted
	sess.UpdatedAt = s.now()
	logger.FromContext(ctx).Debug(LogMsgAccepted, "trade_id", sess.ID, "player_id", playerID, "accepted", accepted)

	s.notifier.SendTo(counterpartID, domain.MsgTradeAccept, domain.TradeAcceptPayload{
		TradeID: sess.ID, FromID: playerID, ToID: counterpartID, Accepted: accepted,
	})

	if sess.BothAccepted() {
		return s.commit(ctx, sess, playerID, domain.MsgTradeAccept)
	}
	return nil
}

// Complete commits a trade both sides have accepted
func (s *service) Complete(ctx context.Context, playerID, counterpartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.lookup(playerID, counterpartID)
	if err != nil {
		return err
	}
	if sess.Status != domain.TradeStatusActive || sess.committing || !sess.BothAccepted() {
		return domain.ErrTradeNotReady
	}
	return s.commit(ctx, sess, playerID, domain.MsgTradeComplete)
}

// commit runs the exchange with the coordinator lock released. The session
// is marked committing so no other transition can interleave. action is the
// message that triggered it and is echoed in failure reports. Caller holds
// s.mu.
func (s *service) commit(ctx context.Context, sess *session, actorID, action string) error {
	log := logger.FromContext(ctx)

	sess.committing = true
	req := inventory.ExchangeRequest{Players: sess.Participants}
	snapshot := sess.Clone()
	req.Offers = snapshot.Offers

	s.mu.Unlock()
	err := s.inventories.Exchange(ctx, req)
	s.mu.Lock()

	sess.committing = false

	if err == nil {
		sess.Status = domain.TradeStatusCompleted
		sess.UpdatedAt = s.now()
		s.forget(sess)
		metrics.Trades.WithLabelValues(OutcomeCompleted).Inc()
		log.Info(LogMsgCompleted, "trade_id", sess.ID, "players", sess.Participants)

		for side, id := range sess.Participants {
			other := 1 - side
			s.notifier.SendTo(id, domain.MsgTradeComplete, domain.TradeCompletePayload{
				TradeID:  sess.ID,
				FromID:   id,
				ToID:     sess.Participants[other],
				Given:    snapshot.Offers[side],
				Received: snapshot.Offers[other],
			})
		}
		return nil
	}

	if sess.abandoned || isOffline(err) {
		for side, id := range sess.Participants {
			s.notifier.SendTo(id, domain.MsgTradeCancel, domain.TradeCancelPayload{
				TradeID: sess.ID,
				FromID:  sess.Participants[1-side],
				ToID:    id,
				Reason:  domain.CancelReasonDisconnected,
				Message: MsgDisconnected,
			})
		}
		s.end(ctx, sess, domain.CancelReasonDisconnected, OutcomeDisconnected)
		return err
	}

	// Terms no longer hold: keep the session open for renegotiation
	sess.ResetAcceptance()
	sess.UpdatedAt = s.now()
	metrics.Trades.WithLabelValues(OutcomeValidationFailed).Inc()
	log.Info(LogMsgCommitRejected, "trade_id", sess.ID, "error", err)

	failure := domain.ErrorPayload{
		Action:  action,
		Code:    domain.ErrorCode(err),
		Message: domain.UserMessage(err),
	}
	for _, id := range sess.Participants {
		if id != actorID {
			s.notifier.SendTo(id, domain.MsgError, failure)
		}
	}
	return err
}

// Cancel ends a trade that has not completed and notifies the counterpart
func (s *service) Cancel(ctx context.Context, playerID, counterpartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.lookup(playerID, counterpartID)
	if err != nil {
		return err
	}
	if sess.committing {
		return domain.ErrTradeNotReady
	}

	s.notifier.SendTo(counterpartID, domain.MsgTradeCancel, domain.TradeCancelPayload{
		TradeID: sess.ID,
		FromID:  playerID,
		ToID:    counterpartID,
		Reason:  domain.CancelReasonCancelled,
		Message: MsgCancelled,
	})
	s.end(ctx, sess, domain.CancelReasonCancelled, OutcomeCancelled)
	return nil
}

// HandleDisconnect force-cancels any trade naming the player. A commit
// already in flight finishes first; if it fails the trade is cancelled.
func (s *service) HandleDisconnect(ctx context.Context, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byPlayer[playerID]
	if !ok {
		return
	}
	if sess.committing {
		sess.abandoned = true
		return
	}

	remaining := sess.Counterpart(playerID)
	s.notifier.SendTo(remaining, domain.MsgTradeCancel, domain.TradeCancelPayload{
		TradeID: sess.ID,
		FromID:  playerID,
		ToID:    remaining,
		Reason:  domain.CancelReasonDisconnected,
		Message: MsgDisconnected,
	})
	s.end(ctx, sess, domain.CancelReasonDisconnected, OutcomeDisconnected)
}

// ExpireIdle cancels sessions untouched for longer than the idle timeout
// and returns how many were cancelled.
func (s *service) ExpireIdle(ctx context.Context) int {
	if s.idleTimeout <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTimeout)
	expired := 0
	for _, sess := range s.sessions {
		if sess.committing || sess.UpdatedAt.After(cutoff) {
			continue
		}
		for side, id := range sess.Participants {
			s.notifier.SendTo(id, domain.MsgTradeCancel, domain.TradeCancelPayload{
				TradeID: sess.ID,
				FromID:  id,
				ToID:    sess.Participants[1-side],
				Reason:  domain.CancelReasonExpired,
				Message: MsgExpired,
			})
		}
		s.end(ctx, sess, domain.CancelReasonExpired, OutcomeExpired)
		expired++
	}

	if expired > 0 {
		logger.FromContext(ctx).Info(LogMsgExpiredSessions, "count", expired)
	}
	return expired
}

// ForPlayer returns a copy of the player's current trade
func (s *service) ForPlayer(playerID string) (*domain.TradeSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// ActiveCount returns the number of open sessions
func (s *service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// lookup finds the player's session and checks the counterpart. Caller
// holds s.mu.
func (s *service) lookup(playerID, counterpartID string) (*session, int, error) {
	sess, ok := s.byPlayer[playerID]
	if !ok || sess.Counterpart(playerID) != counterpartID {
		return nil, -1, fmt.Errorf("%w: %s with %s", domain.ErrTradeNotFound, playerID, counterpartID)
	}
	side, _ := sess.Side(playerID)
	return sess, side, nil
}

// end cancels a session and drops it. Caller holds s.mu.
func (s *service) end(ctx context.Context, sess *session, reason, outcome string) {
	sess.Status = domain.TradeStatusCancelled
	sess.UpdatedAt = s.now()
	s.forget(sess)
	metrics.Trades.WithLabelValues(outcome).Inc()
	logger.FromContext(ctx).Info(LogMsgCancelled, "trade_id", sess.ID, "reason", reason)
}

// forget removes a session from the indexes. Caller holds s.mu.
func (s *service) forget(sess *session) {
	delete(s.sessions, sess.ID)
	for _, id := range sess.Participants {
		if cur, ok := s.byPlayer[id]; ok && cur == sess {
			delete(s.byPlayer, id)
		}
	}
}

func isOffline(err error) bool {
	return errors.Is(err, domain.ErrPlayerOffline)
}
