package inventory

// Player-facing messages attached to inventory-changed
const (
	MsgFmtPickedUp    = "Picked up %s"
	MsgFmtPickedUpQty = "Picked up %d %s"
	MsgFmtDropped     = "Dropped %s"
	MsgFmtDroppedQty  = "Dropped %d %s"
)

// Log messages
const (
	LogMsgPickupLostRace   = "Pickup lost race for world item"
	LogMsgPickupNoRoom     = "Pickup rejected, inventory full"
	LogMsgSaveSlotsFailed  = "Inventory changed in memory but store write failed"
	LogMsgExchangeRejected = "Exchange rejected during validation"
	LogMsgExchangeApplied  = "Exchange applied"
	LogMsgOpApplied        = "Inventory operation applied"
)
