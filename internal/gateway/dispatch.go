package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/metrics"
)

// dispatch routes one inbound message to its service. The returned error
// is reported to the sender.
func (h *Handler) dispatch(ctx context.Context, playerID string, env Envelope) error {
	switch env.Type {
	case domain.MsgPing:
		metrics.WSMessages.WithLabelValues(env.Type).Inc()
		h.hub.SendTo(playerID, domain.MsgPong, nil)
		return nil

	case domain.MsgRequestInventory:
		metrics.WSMessages.WithLabelValues(env.Type).Inc()
		return h.inventory.SendInventory(playerID)

	case domain.MsgInventoryOp:
		metrics.WSMessages.WithLabelValues(env.Type).Inc()
		var req InventoryOpRequest
		if err := h.decode(env.Payload, &req); err != nil {
			return err
		}
		return h.inventoryOp(ctx, playerID, req)

	case domain.MsgPlayerUpdate:
		metrics.WSMessages.WithLabelValues(env.Type).Inc()
		var req PlayerUpdateRequest
		if err := h.decode(env.Payload, &req); err != nil {
			return err
		}
		return h.sessions.UpdatePosition(ctx, playerID, req.Position, req.Rotation)

	case domain.MsgTradeRequest, domain.MsgTradeCancel, domain.MsgTradeComplete:
		metrics.WSMessages.WithLabelValues(env.Type).Inc()
		var req TradePartiesRequest
		if err := h.decodeFrom(env.Payload, &req, playerID, func() string { return req.FromID }); err != nil {
			return err
		}
		switch env.Type {
		case domain.MsgTradeRequest:
			_, err := h.trades.Request(ctx, playerID, req.ToID)
			return err
		case domain.MsgTradeCancel:
			return h.trades.Cancel(ctx, playerID, req.ToID)
		default:
			return h.trades.Complete(ctx, playerID, req.ToID)
		}

	case domain.MsgTradeResponse, domain.MsgTradeAccept:
		metrics.WSMessages.WithLabelValues(env.Type).Inc()
		var req TradeDecisionRequest
		if err := h.decodeFrom(env.Payload, &req, playerID, func() string { return req.FromID }); err != nil {
			return err
		}
		if env.Type == domain.MsgTradeResponse {
			return h.trades.Respond(ctx, playerID, req.ToID, req.Accepted)
		}
		return h.trades.Accept(ctx, playerID, req.ToID, req.Accepted)

	case domain.MsgTradeOfferUpdate:
		metrics.WSMessages.WithLabelValues(env.Type).Inc()
		var req TradeOfferRequest
		if err := h.decodeFrom(env.Payload, &req, playerID, func() string { return req.FromID }); err != nil {
			return err
		}
		return h.trades.UpdateOffer(ctx, playerID, req.ToID, req.OfferedItems)

	default:
		metrics.WSMessages.WithLabelValues(MetricTypeUnknown).Inc()
		return fmt.Errorf("%w: "+ErrMsgUnknownType, domain.ErrInvalidInput, env.Type)
	}
}

func (h *Handler) inventoryOp(ctx context.Context, playerID string, req InventoryOpRequest) error {
	switch req.Action {
	case domain.ActionPickup:
		return h.inventory.Pickup(ctx, playerID, req.InstanceID)
	case domain.ActionDrop:
		return h.inventory.Drop(ctx, playerID, req.Slot)
	case domain.ActionMove, domain.ActionStack:
		if req.ToSlot == nil {
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgMissingToSlot)
		}
		if req.Action == domain.ActionMove {
			return h.inventory.Move(ctx, playerID, req.FromSlot, *req.ToSlot)
		}
		return h.inventory.Stack(ctx, playerID, req.FromSlot, *req.ToSlot)
	default:
		to := -1
		if req.ToSlot != nil {
			to = *req.ToSlot
		}
		return h.inventory.Split(ctx, playerID, req.FromSlot, to, req.Quantity)
	}
}

// decode unmarshals and validates a payload
func (h *Handler) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errMalformed(err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// decodeFrom is decode plus the check that the payload speaks for the
// connection's own player
func (h *Handler) decodeFrom(raw json.RawMessage, dst any, playerID string, from func() string) error {
	if err := h.decode(raw, dst); err != nil {
		return err
	}
	if from() != playerID {
		return fmt.Errorf("%w: "+ErrMsgIdentityMismatch, domain.ErrInvalidInput, from())
	}
	return nil
}

func errMalformed(err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgMalformed)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, ErrMsgMalformed, err)
}
