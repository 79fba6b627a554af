package domain

import "time"

// TradeStatus is the lifecycle state of a trade session.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusActive    TradeStatus = "active"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s TradeStatus) Terminal() bool {
	return s == TradeStatusCompleted || s == TradeStatusCancelled
}

// Trade cancel reasons
const (
	CancelReasonDeclined     = "declined"
	CancelReasonCancelled    = "cancelled"
	CancelReasonDisconnected = "disconnected"
	CancelReasonExpired      = "expired"
)

// OfferEntry names a source slot and quantity, with a snapshot of what
// occupied the slot when the offer was made.
type OfferEntry struct {
	Slot     int    `json:"slot"`
	Quantity int    `json:"quantity"`
	ItemType string `json:"itemType"`
	Name     string `json:"name"`
}

// TradeSession is the negotiation record between two players.
// Index 0 is always the initiator and index 1 the recipient.
type TradeSession struct {
	ID           string
	Participants [2]string
	Names        [2]string
	Offers       [2][]OfferEntry
	Accepted     [2]bool
	Status       TradeStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Side returns the participant index of playerID.
func (t *TradeSession) Side(playerID string) (int, bool) {
	switch playerID {
	case t.Participants[0]:
		return 0, true
	case t.Participants[1]:
		return 1, true
	default:
		return -1, false
	}
}

// Counterpart returns the other participant's id.
func (t *TradeSession) Counterpart(playerID string) string {
	if playerID == t.Participants[0] {
		return t.Participants[1]
	}
	return t.Participants[0]
}

// Involves reports whether playerID takes part in the session.
func (t *TradeSession) Involves(playerID string) bool {
	_, ok := t.Side(playerID)
	return ok
}

// ResetAcceptance clears both acceptance flags.
func (t *TradeSession) ResetAcceptance() {
	t.Accepted = [2]bool{}
}

// BothAccepted reports whether both participants accepted the current terms.
func (t *TradeSession) BothAccepted() bool {
	return t.Accepted[0] && t.Accepted[1]
}

// Clone copies the session including offer slices.
func (t *TradeSession) Clone() *TradeSession {
	c := *t
	for i := range t.Offers {
		c.Offers[i] = append([]OfferEntry(nil), t.Offers[i]...)
	}
	return &c
}
