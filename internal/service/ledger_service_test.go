package service

import (
	"testing"

	"crypto_tycoon/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser_GrantsStartingBalanceOnce(t *testing.T) {
	e := newTestEnv(t, nil)

	u, err := e.ledger.EnsureUser(e.ctx, 1, "alice")
	require.NoError(t, err)
	decEqual(t, "1000", u.Balance)

	_, err = e.ledger.Debit(e.ctx, 1, d("250"))
	require.NoError(t, err)

	u, err = e.ledger.EnsureUser(e.ctx, 1, "alice_renamed")
	require.NoError(t, err)
	decEqual(t, "750", u.Balance)
	assert.Equal(t, "alice_renamed", u.Username)

	found, err := e.ledger.FindByUsername(e.ctx, "@alice_renamed")
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.ID)
}

func TestEnsureUser_RejectsZeroID(t *testing.T) {
	e := newTestEnv(t, nil)
	_, err := e.ledger.EnsureUser(e.ctx, 0, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreditDebit(t *testing.T) {
	e := newTestEnv(t, nil)
	e.user(t, 1, "100")

	bal, err := e.ledger.Credit(e.ctx, 1, d("0.5"))
	require.NoError(t, err)
	decEqual(t, "100.5", bal)

	_, err = e.ledger.Debit(e.ctx, 1, d("100.51"))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	decEqual(t, "100.5", e.balance(t, 1))

	_, err = e.ledger.Credit(e.ctx, 1, d("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = e.ledger.Credit(e.ctx, 1, d("1e-3000000"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = e.ledger.Debit(e.ctx, 1, d("1e20"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = e.ledger.Credit(e.ctx, 404, d("1"))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestTransfer(t *testing.T) {
	e := newTestEnv(t, nil)
	e.user(t, 1, "100")
	e.user(t, 2, "0")

	assert.ErrorIs(t, e.ledger.Transfer(e.ctx, 1, 1, d("10")), domain.ErrInvalidTarget)
	assert.ErrorIs(t, e.ledger.Transfer(e.ctx, 1, 2, d("0")), domain.ErrInvalidAmount)
	assert.ErrorIs(t, e.ledger.Transfer(e.ctx, 1, 2, d("101")), domain.ErrInsufficientFunds)
	assert.ErrorIs(t, e.ledger.Transfer(e.ctx, 1, 3, d("1")), domain.ErrUserNotFound)

	require.NoError(t, e.ledger.Transfer(e.ctx, 1, 2, d("40")))
	decEqual(t, "60", e.balance(t, 1))
	decEqual(t, "40", e.balance(t, 2))

	logs, err := e.audit.History(e.ctx, 1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, domain.AuditActionTransfer, logs[0].Action)
}

func TestAdminAdjustments(t *testing.T) {
	e := newTestEnv(t, nil)
	e.user(t, 1, "100")

	bal, err := e.ledger.AdminGive(e.ctx, e.adminID, 1, d("50"))
	require.NoError(t, err)
	decEqual(t, "150", bal)

	assert.ErrorIs(t, e.ledger.AdminSetBalance(e.ctx, e.adminID, 1, d("-1")), domain.ErrInvalidAmount)
	assert.ErrorIs(t, e.ledger.AdminSetBalance(e.ctx, e.adminID, 1, d("0.123456789")), domain.ErrInvalidAmount)
	assert.ErrorIs(t, e.ledger.AdminSetBalance(e.ctx, e.adminID, 2, d("1")), domain.ErrUserNotFound)

	require.NoError(t, e.ledger.AdminSetHouseBalance(e.ctx, e.adminID, d("42")))
	decEqual(t, "42", e.house(t))

	logs, err := e.audit.History(e.ctx, 1, 10)
	require.NoError(t, err)
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
		assert.Equal(t, domain.AuditCategoryAdmin, l.Category)
	}
	assert.Contains(t, actions, domain.AuditActionAdminAddBalance)
	assert.Contains(t, actions, domain.AuditActionAdminSetBalance)
}

func TestBootstrapKeepsExistingHouse(t *testing.T) {
	e := newTestEnv(t, nil)
	require.NoError(t, e.ledger.AdminSetHouseBalance(e.ctx, e.adminID, d("5")))
	require.NoError(t, e.ledger.Bootstrap(e.ctx))
	decEqual(t, "5", e.house(t))
}
