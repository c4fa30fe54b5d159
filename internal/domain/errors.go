package domain

import "errors"

// Validation
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidTicker = errors.New("invalid ticker")
	ErrUnknownTier   = errors.New("unknown tier")
	ErrInvalidTarget = errors.New("invalid target")
	ErrBetTooLow     = errors.New("bet below minimum")
	ErrBetTooHigh    = errors.New("bet exceeds maximum")
	ErrInvalidWord   = errors.New("invalid trigger word")
)

// Funds
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrHouseInsolvent       = errors.New("house cannot cover the stake")
)

// Lookup
var (
	ErrCoinNotFound = errors.New("coin not found")
	ErrUserNotFound = errors.New("user not found")
	ErrDuelNotFound = errors.New("duel not found")
	ErrItemNotFound = errors.New("shop item not found")
	ErrTickerExists = errors.New("ticker already exists")
	ErrAlreadyOwned = errors.New("item already owned")
)

// Duels
var (
	ErrDuelExpired = errors.New("duel expired")
	ErrNotYourDuel = errors.New("duel belongs to another user")
)

// Infrastructure
var (
	// ErrSupplyUnderflow means holdings and supply disagree; it is a bug, not a user error.
	ErrSupplyUnderflow  = errors.New("coin supply underflow")
	ErrBusy             = errors.New("ledger busy, try again")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsUserError reports whether err is caused by the caller's input rather
// than by the system.
func IsUserError(err error) bool {
	for _, e := range []error{
		ErrInvalidAmount, ErrInvalidTicker, ErrUnknownTier, ErrInvalidTarget,
		ErrBetTooLow, ErrBetTooHigh, ErrInsufficientFunds, ErrInsufficientHoldings,
		ErrHouseInsolvent, ErrCoinNotFound, ErrUserNotFound, ErrDuelNotFound,
		ErrItemNotFound, ErrTickerExists, ErrDuelExpired, ErrNotYourDuel,
		ErrInvalidWord, ErrAlreadyOwned,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
