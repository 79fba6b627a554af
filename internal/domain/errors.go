package domain

import (
	"errors"
	"fmt"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// World errors
	ErrMsgItemUnavailable = "item no longer available"
	ErrMsgItemTypeUnknown = "unknown item type"

	// Inventory errors
	ErrMsgInventoryFull = "inventory is full"
	ErrMsgInvalidSlot   = "invalid slot"

	// Trade errors
	ErrMsgTradeNotFound         = "trade not found"
	ErrMsgTradeValidationFailed = "trade item no longer available"
	ErrMsgTradeNotReady         = "trade is not in a state that allows this action"
	ErrMsgPlayerBusy            = "player is already trading"
	ErrMsgNotTradeable          = "item cannot be traded"

	// Session errors
	ErrMsgPlayerOffline     = "player is not online"
	ErrMsgAlreadyConnected  = "player is already connected"
	ErrMsgPersistenceFailed = "persistence failure"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrItemUnavailable = errors.New(ErrMsgItemUnavailable)
	ErrItemTypeUnknown = errors.New(ErrMsgItemTypeUnknown)

	ErrInventoryFull = errors.New(ErrMsgInventoryFull)
	ErrInvalidSlot   = errors.New(ErrMsgInvalidSlot)

	ErrTradeNotFound         = errors.New(ErrMsgTradeNotFound)
	ErrTradeValidationFailed = errors.New(ErrMsgTradeValidationFailed)
	ErrTradeNotReady         = errors.New(ErrMsgTradeNotReady)
	ErrPlayerBusy            = errors.New(ErrMsgPlayerBusy)
	ErrNotTradeable          = errors.New(ErrMsgNotTradeable)

	ErrPlayerOffline      = errors.New(ErrMsgPlayerOffline)
	ErrAlreadyConnected   = errors.New(ErrMsgAlreadyConnected)
	ErrPersistenceFailure = errors.New(ErrMsgPersistenceFailed)

	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// Failure attaches the name of the thing that failed a precondition to a
// sentinel error, e.g. the item that vanished from a trade offer.
type Failure struct {
	Err     error
	Subject string
}

func (f *Failure) Error() string {
	if f.Subject == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %s", f.Err.Error(), f.Subject)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err with a subject name.
func NewFailure(err error, subject string) error {
	return &Failure{Err: err, Subject: subject}
}

// Machine-readable codes sent alongside user messages
const (
	CodeItemUnavailable       = "item_unavailable"
	CodeInventoryFull         = "inventory_full"
	CodeInvalidSlot           = "invalid_slot"
	CodeTradeNotFound         = "trade_not_found"
	CodeTradeValidationFailed = "trade_validation_failed"
	CodeTradeNotReady         = "trade_not_ready"
	CodePlayerBusy            = "player_busy"
	CodeNotTradeable          = "not_tradeable"
	CodePlayerOffline         = "player_offline"
	CodeAlreadyConnected      = "already_connected"
	CodeInvalidInput          = "invalid_input"
	CodeInternal              = "internal_error"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrItemUnavailable, CodeItemUnavailable},
	{ErrInventoryFull, CodeInventoryFull},
	{ErrInvalidSlot, CodeInvalidSlot},
	{ErrTradeNotFound, CodeTradeNotFound},
	{ErrTradeValidationFailed, CodeTradeValidationFailed},
	{ErrTradeNotReady, CodeTradeNotReady},
	{ErrPlayerBusy, CodePlayerBusy},
	{ErrNotTradeable, CodeNotTradeable},
	{ErrPlayerOffline, CodePlayerOffline},
	{ErrAlreadyConnected, CodeAlreadyConnected},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrItemTypeUnknown, CodeInvalidInput},
}

// ErrorCode maps an error to its stable machine code.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// UserMessage returns the one-line text shown to the player for err.
func UserMessage(err error) string {
	var f *Failure
	subject := ""
	if errors.As(err, &f) {
		subject = f.Subject
	}

	switch {
	case errors.Is(err, ErrItemUnavailable):
		return "Item no longer available"
	case errors.Is(err, ErrInventoryFull):
		if subject != "" {
			return "Inventory is full: " + subject
		}
		return "Inventory is full"
	case errors.Is(err, ErrInvalidSlot):
		return "Invalid inventory slot"
	case errors.Is(err, ErrTradeValidationFailed):
		if subject != "" {
			return "Trade item no longer available: " + subject
		}
		return "Trade item no longer available"
	case errors.Is(err, ErrTradeNotFound):
		return "That trade has already ended"
	case errors.Is(err, ErrTradeNotReady):
		return "That trade action is not allowed right now"
	case errors.Is(err, ErrPlayerBusy):
		return "Player is already in a trade"
	case errors.Is(err, ErrNotTradeable):
		if subject != "" {
			return "Item cannot be traded: " + subject
		}
		return "Item cannot be traded"
	case errors.Is(err, ErrPlayerOffline):
		return "Player is not online"
	case errors.Is(err, ErrAlreadyConnected):
		return "Already connected from another session"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrItemTypeUnknown):
		return "Invalid request"
	default:
		return "Something went wrong"
	}
}
