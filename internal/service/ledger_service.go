package service

import (
	"context"
	"log/slog"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/internal/repository"

	"github.com/shopspring/decimal"
)

type LedgerConfig struct {
	StartingBalance decimal.Decimal
	HouseSeed       decimal.Decimal
}

// LedgerService handles user accounts, plain balance moves and the admin
// adjustments on top of the store.
type LedgerService struct {
	store repository.Store
	cfg   LedgerConfig
	log   *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(store repository.Store, cfg LedgerConfig) *LedgerService {
	return &LedgerService{
		store: store,
		cfg:   cfg,
		log:   logger.With("component", "ledger"),
	}
}

// Bootstrap creates the house row with the configured seed on first start.
func (s *LedgerService) Bootstrap(ctx context.Context) error {
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.EnsureHouse(ctx, s.cfg.HouseSeed)
	})
}

// EnsureUser returns the user, creating it with the starting grant on first
// interaction.
func (s *LedgerService) EnsureUser(ctx context.Context, id int64, username string) (*domain.User, error) {
	if id == 0 {
		return nil, domain.ErrUserNotFound
	}
	var (
		u       *domain.User
		created bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		u, created, err = tx.EnsureUser(ctx, id, username, s.cfg.StartingBalance)
		return err
	})
	if err != nil {
		return nil, observe(ctx, "ensure_user", err)
	}
	if created {
		s.log.Info("user registered", "user_id", id, "username", username)
	}
	return u, nil
}

func (s *LedgerService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u *domain.User
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		u, err = tx.GetUser(ctx, id)
		return err
	})
	return u, err
}

// GetBalance returns user's current balance
func (s *LedgerService) GetBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}

func (s *LedgerService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u *domain.User
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		u, err = tx.FindUserByUsername(ctx, username)
		return err
	})
	return u, err
}

// Credit adds amount to user's balance
func (s *LedgerService) Credit(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := market.ValidAmount(amount); err != nil {
		return decimal.Zero, err
	}
	var balance decimal.Decimal
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		balance, err = tx.AddBalance(ctx, id, amount)
		return err
	})
	return balance, observe(ctx, "credit", err)
}

// Debit deducts amount from user's balance
func (s *LedgerService) Debit(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := market.ValidAmount(amount); err != nil {
		return decimal.Zero, err
	}
	var balance decimal.Decimal
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		balance, err = tx.AddBalance(ctx, id, amount.Neg())
		return err
	})
	return balance, observe(ctx, "debit", err)
}

// Transfer moves amount from one user to another
func (s *LedgerService) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error {
	if err := market.ValidAmount(amount); err != nil {
		return err
	}
	if fromID == toID {
		return domain.ErrInvalidTarget
	}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		users, err := tx.LockUsers(ctx, fromID, toID)
		if err != nil {
			return err
		}
		if users[fromID].Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}
		if _, err := tx.AddBalance(ctx, fromID, amount.Neg()); err != nil {
			return err
		}
		if _, err := tx.AddBalance(ctx, toID, amount); err != nil {
			return err
		}
		return audit(ctx, tx, fromID, domain.AuditActionTransfer, domain.AuditCategoryBalance, map[string]interface{}{
			"to_user_id": toID,
			"amount":     amount.String(),
		})
	})
	return observe(ctx, "transfer", err)
}

// AdminGive credits a user on behalf of an admin.
func (s *LedgerService) AdminGive(ctx context.Context, adminID, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := market.ValidAmount(amount); err != nil {
		return decimal.Zero, err
	}
	var balance decimal.Decimal
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		if balance, err = tx.AddBalance(ctx, userID, amount); err != nil {
			return err
		}
		return audit(ctx, tx, userID, domain.AuditActionAdminAddBalance, domain.AuditCategoryAdmin, map[string]interface{}{
			"admin_id": adminID,
			"amount":   amount.String(),
		})
	})
	if err != nil {
		return decimal.Zero, observe(ctx, "admin_give", err)
	}
	s.log.Info("admin credited user", "admin_id", adminID, "user_id", userID, "amount", amount.String())
	return balance, nil
}

// AdminSetBalance overwrites a user's balance.
func (s *LedgerService) AdminSetBalance(ctx context.Context, adminID, userID int64, value decimal.Decimal) error {
	if err := market.ValidValue(value); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		users, err := tx.LockUsers(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, userID, value); err != nil {
			return err
		}
		return audit(ctx, tx, userID, domain.AuditActionAdminSetBalance, domain.AuditCategoryAdmin, map[string]interface{}{
			"admin_id": adminID,
			"previous": users[userID].Balance.String(),
			"value":    value.String(),
		})
	})
	if err != nil {
		return observe(ctx, "admin_set_balance", err)
	}
	s.log.Info("admin set balance", "admin_id", adminID, "user_id", userID, "value", value.String())
	return nil
}

// AdminSetHouseBalance overwrites the house treasury.
func (s *LedgerService) AdminSetHouseBalance(ctx context.Context, adminID int64, value decimal.Decimal) error {
	if err := market.ValidValue(value); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		previous, err := tx.LockHouse(ctx)
		if err != nil {
			return err
		}
		if err := tx.SetHouseBalance(ctx, value); err != nil {
			return err
		}
		return audit(ctx, tx, adminID, domain.AuditActionAdminSetHouseBalance, domain.AuditCategoryAdmin, map[string]interface{}{
			"previous": previous.String(),
			"value":    value.String(),
		})
	})
	if err != nil {
		return observe(ctx, "admin_set_house_balance", err)
	}
	s.log.Info("admin set house balance", "admin_id", adminID, "value", value.String())
	return nil
}

func (s *LedgerService) HouseBalance(ctx context.Context) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		balance, err = tx.LockHouse(ctx)
		return err
	})
	return balance, err
}
