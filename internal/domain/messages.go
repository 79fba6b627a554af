package domain

// Inbound message types
const (
	MsgRequestInventory = "request-inventory"
	MsgInventoryOp      = "inventory-op"
	MsgPlayerUpdate     = "player-update"
	MsgPing             = "ping"
)

// Outbound message types
const (
	MsgWelcome          = "welcome"
	MsgPlayersList      = "players-list"
	MsgPlayerJoined     = "player-joined"
	MsgPlayerLeft       = "player-left"
	MsgPlayerMoved      = "player-moved"
	MsgWorldItems       = "world-items"
	MsgInventoryChanged = "inventory-changed"
	MsgItemAdded        = "item-added"
	MsgItemRemoved      = "item-removed"
	MsgXPAwarded        = "xp-awarded"
	MsgError            = "error"
	MsgPong             = "pong"
)

// Trade message types, used in both directions
const (
	MsgTradeRequest     = "trade-request"
	MsgTradeResponse    = "trade-response"
	MsgTradeOfferUpdate = "trade-offer-update"
	MsgTradeAccept      = "trade-accept"
	MsgTradeCancel      = "trade-cancel"
	MsgTradeComplete    = "trade-complete"
)

// Inventory actions carried by inventory-op
const (
	ActionPickup = "pickup"
	ActionDrop   = "drop"
	ActionMove   = "move"
	ActionStack  = "stack"
	ActionSplit  = "split"
)

// InventoryView is the wire form of an inventory: SlotCount entries, null when empty.
type InventoryView []*Stack

// View converts inv to its wire form.
func (inv *Inventory) View() InventoryView {
	out := make(InventoryView, SlotCount)
	for i, s := range inv {
		out[i] = s.Clone()
	}
	return out
}

type WelcomePayload struct {
	Player PlayerSummary `json:"player"`
}

type PlayersListPayload struct {
	Players []PlayerSummary `json:"players"`
}

type PlayerLeftPayload struct {
	ID string `json:"id"`
}

type PlayerMovedPayload struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
}

type WorldItemsPayload struct {
	Items []WorldItem `json:"items"`
}

type InventoryChangedPayload struct {
	Inventory InventoryView `json:"inventory"`
	Item      *Stack        `json:"item,omitempty"`
	Message   string        `json:"message,omitempty"`
}

type ItemRemovedPayload struct {
	InstanceID string `json:"instanceId"`
}

type TradeRequestPayload struct {
	TradeID  string `json:"tradeId"`
	FromID   string `json:"fromId"`
	ToID     string `json:"toId"`
	FromName string `json:"fromName"`
}

type TradeResponsePayload struct {
	TradeID  string `json:"tradeId"`
	FromID   string `json:"fromId"`
	ToID     string `json:"toId"`
	Accepted bool   `json:"accepted"`
}

type TradeOfferUpdatePayload struct {
	TradeID      string       `json:"tradeId"`
	FromID       string       `json:"fromId"`
	ToID         string       `json:"toId"`
	OfferedItems []OfferEntry `json:"offeredItems"`
}

type TradeAcceptPayload struct {
	TradeID  string `json:"tradeId"`
	FromID   string `json:"fromId"`
	ToID     string `json:"toId"`
	Accepted bool   `json:"accepted"`
}

type TradeCancelPayload struct {
	TradeID string `json:"tradeId"`
	FromID  string `json:"fromId"`
	ToID    string `json:"toId"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

type TradeCompletePayload struct {
	TradeID  string       `json:"tradeId"`
	FromID   string       `json:"fromId"`
	ToID     string       `json:"toId"`
	Given    []OfferEntry `json:"given"`
	Received []OfferEntry `json:"received"`
}

type XPAwardedPayload struct {
	Skill     string `json:"skill"`
	XP        int64  `json:"xp"`
	Level     int    `json:"level"`
	LeveledUp bool   `json:"leveledUp"`
}

// XPAwardResult is the outcome of a skill award.
type XPAwardResult struct {
	PlayerID  string `json:"playerId"`
	Skill     string `json:"skill"`
	XPGained  int64  `json:"xpGained"`
	TotalXP   int64  `json:"totalXp"`
	Level     int    `json:"level"`
	LeveledUp bool   `json:"leveledUp"`
}

type ErrorPayload struct {
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
