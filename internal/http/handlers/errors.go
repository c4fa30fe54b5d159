package handlers

import (
	"errors"
	"net/http"

	"crypto_tycoon/internal/domain"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidAmount, http.StatusBadRequest},
	{domain.ErrInvalidTicker, http.StatusBadRequest},
	{domain.ErrUnknownTier, http.StatusBadRequest},
	{domain.ErrInvalidTarget, http.StatusBadRequest},
	{domain.ErrBetTooLow, http.StatusBadRequest},
	{domain.ErrBetTooHigh, http.StatusBadRequest},
	{domain.ErrInvalidWord, http.StatusBadRequest},
	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientHoldings, http.StatusUnprocessableEntity},
	{domain.ErrHouseInsolvent, http.StatusUnprocessableEntity},
	{domain.ErrCoinNotFound, http.StatusNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrDuelNotFound, http.StatusNotFound},
	{domain.ErrItemNotFound, http.StatusNotFound},
	{domain.ErrTickerExists, http.StatusConflict},
	{domain.ErrAlreadyOwned, http.StatusConflict},
	{domain.ErrNotYourDuel, http.StatusForbidden},
	{domain.ErrDuelExpired, http.StatusGone},
	{domain.ErrBusy, http.StatusServiceUnavailable},
}

// statusFor maps an engine error to an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the error body. Internal failures are not echoed.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	switch {
	case status == http.StatusServiceUnavailable:
		c.Header("Retry-After", "1")
		c.JSON(status, gin.H{"error": domain.ErrBusy.Error()})
	case status == http.StatusInternalServerError:
		c.JSON(status, gin.H{"error": "internal error"})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
