package service

import (
	"context"
	"errors"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/repository"
)

// AuditService reads the audit trail. Entries are written by the engine
// services inside the unit of work they describe.
type AuditService struct {
	store repository.Store
}

// NewAuditService creates a new audit service
func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// History returns the user's most recent audit entries
func (s *AuditService) History(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		logs, err = tx.ListAudit(ctx, userID, clampLimit(limit, 20, 100))
		return err
	})
	return logs, err
}

// Trades returns the user's most recent trades
func (s *AuditService) Trades(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	var trades []*domain.Transaction
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		trades, err = tx.ListTransactions(ctx, userID, clampLimit(limit, 20, 100))
		return err
	})
	return trades, err
}

// audit appends an entry within tx
func audit(ctx context.Context, tx repository.Tx, userID int64, action, category string, details map[string]interface{}) error {
	if details == nil {
		details = make(map[string]interface{})
	}
	return tx.AppendAudit(ctx, &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  details,
	})
}

// observe counts and logs a failed unit of work. User errors are not
// logged; consistency bugs are logged at error level.
func observe(ctx context.Context, op string, err error) error {
	if err == nil || domain.IsUserError(err) {
		return err
	}
	log := logger.FromContext(ctx)
	switch {
	case errors.Is(err, domain.ErrBusy):
		LedgerErrors.WithLabelValues("busy").Inc()
		log.Warn("ledger busy", "op", op)
	case errors.Is(err, domain.ErrSupplyUnderflow):
		LedgerErrors.WithLabelValues("supply_underflow").Inc()
		log.Error("ledger consistency violation", "op", op, "error", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		LedgerErrors.WithLabelValues("canceled").Inc()
	default:
		LedgerErrors.WithLabelValues("store").Inc()
		log.Error("ledger operation failed", "op", op, "error", err)
	}
	return err
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
