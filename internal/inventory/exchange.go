package inventory

import (
	"context"
	"fmt"

	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/logger"
)

// MsgTradeCompleted accompanies the refreshed inventory after an exchange
const MsgTradeCompleted = "Trade completed"

// ExchangeRequest moves Offers[i] from Players[i] to the other player
type ExchangeRequest struct {
	Players [2]string
	Offers  [2][]domain.OfferEntry
}

// ExchangeError reports which participant's entry failed an exchange
type ExchangeError struct {
	PlayerID string
	Err      error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange failed for %s: %v", e.PlayerID, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Exchange performs a two-player swap as one transaction. Both players'
// locks are held in ascending id order for validation and mutation. Every
// offered entry is re-validated against the live slots; if any entry fails
// or a receiver lacks room, neither inventory changes.
func (s *service) Exchange(ctx context.Context, req ExchangeRequest) error {
	log := logger.FromContext(ctx)

	unlock := s.locks.Lock(req.Players[0], req.Players[1])
	defer unlock()

	var players [2]*domain.Player
	for i, id := range req.Players {
		p, ok := s.players.Lookup(id)
		if !ok {
			return &ExchangeError{PlayerID: id, Err: fmt.Errorf("%w: %s", domain.ErrPlayerOffline, id)}
		}
		players[i] = p
	}

	work := [2]domain.Inventory{players[0].Inventory.Clone(), players[1].Inventory.Clone()}
	var touched [2][]int
	var outgoing [2][]*domain.Stack

	for i := range req.Offers {
		if err := s.validateOffer(work[i], req.Offers[i]); err != nil {
			log.Info(LogMsgExchangeRejected, "player_id", req.Players[i], "error", err)
			return &ExchangeError{PlayerID: req.Players[i], Err: err}
		}
		for _, e := range req.Offers[i] {
			moved := work[i][e.Slot].Clone()
			moved.Quantity = e.Quantity
			if err := work[i].Withdraw(e.Slot, e.Quantity); err != nil {
				return &ExchangeError{PlayerID: req.Players[i], Err: domain.NewFailure(domain.ErrTradeValidationFailed, e.Name)}
			}
			outgoing[i] = append(outgoing[i], moved)
			touched[i] = append(touched[i], e.Slot)
		}
	}

	for i := range outgoing {
		recv := 1 - i
		for _, st := range outgoing[i] {
			t, err := s.catalog.Lookup(st.ItemType)
			if err != nil {
				return &ExchangeError{PlayerID: req.Players[i], Err: err}
			}
			slots, err := work[recv].Deposit(t, st.Quantity)
			if err != nil {
				log.Info(LogMsgExchangeRejected, "player_id", req.Players[recv], "error", err)
				return &ExchangeError{PlayerID: req.Players[recv], Err: domain.NewFailure(domain.ErrInventoryFull, players[recv].Name)}
			}
			touched[recv] = append(touched[recv], slots...)
		}
	}

	players[0].Inventory = work[0]
	players[1].Inventory = work[1]

	writes := append(work[0].Writes(req.Players[0], touched[0]...), work[1].Writes(req.Players[1], touched[1]...)...)
	if err := s.store.SaveSlots(ctx, writes); err != nil {
		log.Error(LogMsgSaveSlotsFailed, "players", req.Players, "error", err)
		s.reconcile(req.Players[0])
		s.reconcile(req.Players[1])
	}

	log.Info(LogMsgExchangeApplied,
		"players", req.Players,
		"given", len(req.Offers[0]),
		"received", len(req.Offers[1]))

	for _, p := range players {
		s.notifyChanged(p, nil, MsgTradeCompleted)
	}
	return nil
}

// validateOffer checks that every entry still matches the slot it was
// offered from, counting repeated slots together.
func (s *service) validateOffer(inv domain.Inventory, offer []domain.OfferEntry) error {
	need := make(map[int]int, len(offer))
	for _, e := range offer {
		name := e.Name
		if name == "" {
			name = e.ItemType
		}
		if !domain.ValidSlot(e.Slot) || e.Quantity < 1 {
			return domain.NewFailure(domain.ErrTradeValidationFailed, name)
		}
		cur := inv[e.Slot]
		if cur == nil || cur.ItemType != e.ItemType {
			return domain.NewFailure(domain.ErrTradeValidationFailed, name)
		}
		need[e.Slot] += e.Quantity
		if need[e.Slot] > cur.Quantity {
			return domain.NewFailure(domain.ErrTradeValidationFailed, name)
		}
		t, err := s.catalog.Lookup(e.ItemType)
		if err != nil {
			return err
		}
		if !t.Tradeable {
			return domain.NewFailure(domain.ErrNotTradeable, t.Name)
		}
	}
	return nil
}
