package gateway

import (
	"encoding/json"

	"github.com/osse101/realmkeeper/internal/domain"
)

// Envelope is the frame every inbound message arrives in
type Envelope struct {
	Type    string          `json:"type" validate:"required,max=64"`
	Payload json.RawMessage `json:"payload"`
}

// InventoryOpRequest drives one inventory action. Which fields are used
// depends on the action.
type InventoryOpRequest struct {
	Action     string `json:"action" validate:"required,oneof=pickup drop move stack split"`
	InstanceID string `json:"instanceId" validate:"required_if=Action pickup,max=64"`
	Slot       int    `json:"slot"`
	FromSlot   int    `json:"fromSlot"`
	ToSlot     *int   `json:"toSlot"`
	Quantity   int    `json:"quantity" validate:"min=0"`
}

// PlayerUpdateRequest reports a movement
type PlayerUpdateRequest struct {
	Position domain.Vec3 `json:"position"`
	Rotation domain.Vec3 `json:"rotation"`
}

// TradePartiesRequest is the body of trade-request, trade-cancel and trade-complete
type TradePartiesRequest struct {
	FromID string `json:"fromId" validate:"required,max=128"`
	ToID   string `json:"toId" validate:"required,max=128,nefield=FromID"`
}

// TradeDecisionRequest is the body of trade-response and trade-accept
type TradeDecisionRequest struct {
	FromID   string `json:"fromId" validate:"required,max=128"`
	ToID     string `json:"toId" validate:"required,max=128,nefield=FromID"`
	Accepted bool   `json:"accepted"`
}

// TradeOfferRequest is the body of trade-offer-update
type TradeOfferRequest struct {
	FromID       string              `json:"fromId" validate:"required,max=128"`
	ToID         string              `json:"toId" validate:"required,max=128,nefield=FromID"`
	OfferedItems []domain.OfferEntry `json:"offeredItems" validate:"max=28"`
}
