package engine

import (
	"errors"
	"net/http"
)

// Sentinel errors for every way a settlement call can fail. Services return
// these (possibly wrapped) and handlers translate them with HTTPStatus, so a
// failure reason is never collapsed into a generic 500.
var (
	// Access
	ErrNotAdmin       = errors.New("caller is not an admin")
	ErrNotOwner       = errors.New("caller is not the owner")
	ErrNotWhitelisted = errors.New("caller is not in whitelist")

	// Timing
	ErrNotStarted = errors.New("not started")
	ErrExpired    = errors.New("expired")

	// Capacity
	ErrLimitExceeded      = errors.New("buy limit per address exceeded")
	ErrOrderLimitExceeded = errors.New("buy limit per order exceeded")
	ErrInventoryExhausted = errors.New("inventory exhausted")

	// Funds
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// State
	ErrPoolNotFound             = errors.New("pool not found")
	ErrListNotFound             = errors.New("whitelist not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrPoolAlreadyPublic        = errors.New("pool is public")
	ErrPoolNotPublished         = errors.New("pool is not published")
	ErrMissingRarityAllocations = errors.New("rarity allocations not set")
	ErrAlreadyClaimed           = errors.New("already claimed")
	ErrAlreadySettled           = errors.New("bid already settled")
	ErrAuctionNotEnded          = errors.New("auction not ended")
	ErrInvalidBidIndex          = errors.New("invalid bid index")
	ErrBidNotValid              = errors.New("bid not valid")
	ErrNoWithdrawAddress        = errors.New("withdraw address not set")
)

// HTTPStatus maps a settlement error to the status code its handler should
// respond with. Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotAdmin), errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotWhitelisted):
		return http.StatusForbidden
	case errors.Is(err, ErrPoolNotFound), errors.Is(err, ErrListNotFound),
		errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidBidIndex):
		return http.StatusNotFound
	case errors.Is(err, ErrNotStarted), errors.Is(err, ErrExpired),
		errors.Is(err, ErrPoolAlreadyPublic), errors.Is(err, ErrPoolNotPublished),
		errors.Is(err, ErrAlreadyClaimed), errors.Is(err, ErrAlreadySettled),
		errors.Is(err, ErrAuctionNotEnded),
		errors.Is(err, ErrMissingRarityAllocations):
		return http.StatusConflict
	case errors.Is(err, ErrLimitExceeded), errors.Is(err, ErrOrderLimitExceeded),
		errors.Is(err, ErrInventoryExhausted), errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInsufficientAllowance), errors.Is(err, ErrBidNotValid),
		errors.Is(err, ErrNoWithdrawAddress):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
