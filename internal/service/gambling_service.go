package service

import (
	"context"
	"log/slog"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/game"
	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GamblingConfig holds bet limits and the duel lifetime
type GamblingConfig struct {
	MinBet  decimal.Decimal
	MaxBet  decimal.Decimal
	DuelTTL time.Duration
}

const DefaultDuelTTL = 5 * time.Minute

// GamblingService runs duels, house dice and robberies.
type GamblingService struct {
	store  repository.Store
	duels  DuelBook
	roller game.Roller
	cfg    GamblingConfig
	now    func() time.Time
	log    *slog.Logger
}

// NewGamblingService creates a gambling engine. A nil roller means
// game.CryptoRoller.
func NewGamblingService(store repository.Store, duels DuelBook, roller game.Roller, cfg GamblingConfig) *GamblingService {
	if roller == nil {
		roller = game.CryptoRoller{}
	}
	if cfg.DuelTTL <= 0 {
		cfg.DuelTTL = DefaultDuelTTL
	}
	return &GamblingService{
		store:  store,
		duels:  duels,
		roller: roller,
		cfg:    cfg,
		now:    time.Now,
		log:    logger.With("component", "gambling"),
	}
}

// ValidateBet checks if bet is within allowed limits
func (s *GamblingService) ValidateBet(bet decimal.Decimal) error {
	if err := market.ValidAmount(bet); err != nil {
		return err
	}
	if !s.cfg.MinBet.IsZero() && bet.LessThan(s.cfg.MinBet) {
		return domain.ErrBetTooLow
	}
	if !s.cfg.MaxBet.IsZero() && bet.GreaterThan(s.cfg.MaxBet) {
		return domain.ErrBetTooHigh
	}
	return nil
}

// GetLimits returns current bet limits
func (s *GamblingService) GetLimits() GamblingConfig {
	return s.cfg
}

type DuelProposal struct {
	ChallengerID int64
	OpponentID   int64
	Stake        decimal.Decimal
	ChatID       int64
	MessageID    int
}

// ProposeDuel records a challenge. Nothing is escrowed; balances are checked
// again on acceptance.
func (s *GamblingService) ProposeDuel(ctx context.Context, p DuelProposal) (*domain.PendingDuel, error) {
	if err := s.ValidateBet(p.Stake); err != nil {
		return nil, err
	}
	if p.ChallengerID == p.OpponentID {
		return nil, domain.ErrInvalidTarget
	}

	err := s.store.View(ctx, func(tx repository.Tx) error {
		challenger, err := tx.GetUser(ctx, p.ChallengerID)
		if err != nil {
			return err
		}
		if _, err := tx.GetUser(ctx, p.OpponentID); err != nil {
			return err
		}
		if challenger.Balance.LessThan(p.Stake) {
			return domain.ErrInsufficientFunds
		}
		return nil
	})
	if err != nil {
		return nil, observe(ctx, "propose_duel", err)
	}

	now := s.now().UTC()
	d := &domain.PendingDuel{
		ID:           uuid.NewString(),
		ChallengerID: p.ChallengerID,
		OpponentID:   p.OpponentID,
		Stake:        p.Stake,
		ChatID:       p.ChatID,
		MessageID:    p.MessageID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.DuelTTL),
	}
	if err := s.duels.Put(ctx, d); err != nil {
		return nil, err
	}
	s.log.Debug("duel proposed", "duel_id", d.ID, "challenger_id", d.ChallengerID, "opponent_id", d.OpponentID)
	return d, nil
}

func (s *GamblingService) GetDuel(ctx context.Context, id string) (*domain.PendingDuel, error) {
	return s.duels.Get(ctx, id)
}

// CancelDuel withdraws a pending duel. Only the challenger may cancel.
func (s *GamblingService) CancelDuel(ctx context.Context, id string, userID int64) (*domain.PendingDuel, error) {
	d, err := s.duels.Cancel(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	GamesTotal.WithLabelValues("duel", "cancelled").Inc()
	return d, nil
}

// DuelOutcome is the settled result of an accepted duel.
type DuelOutcome struct {
	Duel              *domain.PendingDuel `json:"duel"`
	ChallengerRoll    int                 `json:"challenger_roll"`
	OpponentRoll      int                 `json:"opponent_roll"`
	WinnerID          int64               `json:"winner_id,omitempty"`
	LoserID           int64               `json:"loser_id,omitempty"`
	Tie               bool                `json:"tie"`
	ChallengerBalance decimal.Decimal     `json:"challenger_balance"`
	OpponentBalance   decimal.Decimal     `json:"opponent_balance"`
}

// AcceptDuel claims the duel for accepterID and settles it. A claimed duel
// that fails a balance check is over. When settlement fails for a system
// reason (busy or unavailable store) the duel is put back so the opponent
// can retry.
func (s *GamblingService) AcceptDuel(ctx context.Context, id string, accepterID int64) (*DuelOutcome, error) {
	d, err := s.duels.Claim(ctx, id, accepterID, s.now())
	if err != nil {
		return nil, err
	}

	var out *DuelOutcome
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		users, err := tx.LockUsers(ctx, d.ChallengerID, d.OpponentID)
		if err != nil {
			return err
		}
		if users[d.ChallengerID].Balance.LessThan(d.Stake) || users[d.OpponentID].Balance.LessThan(d.Stake) {
			return domain.ErrInsufficientFunds
		}

		round := game.RollRound(s.roller)
		out = &DuelOutcome{
			Duel:              d,
			ChallengerRoll:    round.A,
			OpponentRoll:      round.B,
			ChallengerBalance: users[d.ChallengerID].Balance,
			OpponentBalance:   users[d.OpponentID].Balance,
		}
		switch round.Winner() {
		case 1:
			out.WinnerID, out.LoserID = d.ChallengerID, d.OpponentID
		case -1:
			out.WinnerID, out.LoserID = d.OpponentID, d.ChallengerID
		default:
			out.Tie = true
		}

		if !out.Tie {
			if _, err := tx.AddBalance(ctx, out.LoserID, d.Stake.Neg()); err != nil {
				return err
			}
			if _, err := tx.AddBalance(ctx, out.WinnerID, d.Stake); err != nil {
				return err
			}
			if out.WinnerID == d.ChallengerID {
				out.ChallengerBalance = out.ChallengerBalance.Add(d.Stake)
				out.OpponentBalance = out.OpponentBalance.Sub(d.Stake)
			} else {
				out.ChallengerBalance = out.ChallengerBalance.Sub(d.Stake)
				out.OpponentBalance = out.OpponentBalance.Add(d.Stake)
			}
		}

		details := round.ToDetails()
		details["duel_id"] = d.ID
		details["stake"] = d.Stake.String()
		details["challenger_id"] = d.ChallengerID
		details["opponent_id"] = d.OpponentID
		details["winner_id"] = out.WinnerID
		for _, uid := range []int64{d.ChallengerID, d.OpponentID} {
			if err := audit(ctx, tx, uid, domain.AuditActionDuel, domain.AuditCategoryGame, details); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		GamesTotal.WithLabelValues("duel", "failed").Inc()
		if !domain.IsUserError(err) {
			s.restoreDuel(ctx, d)
		}
		return nil, observe(ctx, "accept_duel", err)
	}

	result := "decided"
	if out.Tie {
		result = "tie"
	}
	GamesTotal.WithLabelValues("duel", result).Inc()
	s.log.Info("duel settled",
		"duel_id", d.ID,
		"winner_id", out.WinnerID,
		"stake", d.Stake.String(),
	)
	return out, nil
}

func (s *GamblingService) restoreDuel(ctx context.Context, d *domain.PendingDuel) {
	if err := s.duels.Put(context.WithoutCancel(ctx), d); err != nil {
		s.log.Error("failed to restore duel", "duel_id", d.ID, "error", err)
	}
}

// HouseDiceOutcome is the result of a dice round against the house.
type HouseDiceOutcome struct {
	Stake        decimal.Decimal `json:"stake"`
	UserRoll     int             `json:"user_roll"`
	HouseRoll    int             `json:"house_roll"`
	Result       string          `json:"result"`
	Balance      decimal.Decimal `json:"balance"`
	HouseBalance decimal.Decimal `json:"house_balance"`
}

const (
	ResultWin  = "win"
	ResultLose = "lose"
	ResultTie  = "tie"
)

// PlayHouseDice rolls one die for the user and one for the house. The house
// must be able to cover the stake before anything is rolled.
func (s *GamblingService) PlayHouseDice(ctx context.Context, userID int64, stake decimal.Decimal) (*HouseDiceOutcome, error) {
	if err := s.ValidateBet(stake); err != nil {
		return nil, err
	}

	var out *HouseDiceOutcome
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		users, err := tx.LockUsers(ctx, userID)
		if err != nil {
			return err
		}
		house, err := tx.LockHouse(ctx)
		if err != nil {
			return err
		}
		balance := users[userID].Balance
		if balance.LessThan(stake) {
			return domain.ErrInsufficientFunds
		}
		if house.LessThan(stake) {
			return domain.ErrHouseInsolvent
		}

		round := game.RollRound(s.roller)
		out = &HouseDiceOutcome{
			Stake:        stake,
			UserRoll:     round.A,
			HouseRoll:    round.B,
			Result:       ResultTie,
			Balance:      balance,
			HouseBalance: house,
		}
		switch round.Winner() {
		case 1:
			out.Result = ResultWin
			if out.HouseBalance, err = tx.AddHouseBalance(ctx, stake.Neg()); err != nil {
				return err
			}
			if out.Balance, err = tx.AddBalance(ctx, userID, stake); err != nil {
				return err
			}
		case -1:
			out.Result = ResultLose
			if out.Balance, err = tx.AddBalance(ctx, userID, stake.Neg()); err != nil {
				return err
			}
			if out.HouseBalance, err = tx.AddHouseBalance(ctx, stake); err != nil {
				return err
			}
		}

		details := round.ToDetails()
		details["stake"] = stake.String()
		details["result"] = out.Result
		return audit(ctx, tx, userID, domain.AuditActionHouseDice, domain.AuditCategoryGame, details)
	})
	if err != nil {
		return nil, observe(ctx, "house_dice", err)
	}

	GamesTotal.WithLabelValues("house_dice", out.Result).Inc()
	return out, nil
}

// RobberyOutcome is the result of a robbery attempt.
type RobberyOutcome struct {
	Success bool            `json:"success"`
	Stolen  decimal.Decimal `json:"stolen"`
	Penalty decimal.Decimal `json:"penalty"`
	// PenaltyApplied is false when the attacker could not cover the penalty.
	// An applied penalty is paid to the victim, not burned.
	PenaltyApplied  bool            `json:"penalty_applied"`
	AttackerBalance decimal.Decimal `json:"attacker_balance"`
	VictimBalance   decimal.Decimal `json:"victim_balance"`
}

// AttemptRobbery tries to steal part of the victim's balance. A failed
// attempt pays the penalty to the victim when the attacker can afford it.
func (s *GamblingService) AttemptRobbery(ctx context.Context, attackerID, victimID int64) (*RobberyOutcome, error) {
	if attackerID == victimID {
		return nil, domain.ErrInvalidTarget
	}

	var out *RobberyOutcome
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		users, err := tx.LockUsers(ctx, attackerID, victimID)
		if err != nil {
			return err
		}
		attacker, victim := users[attackerID], users[victimID]

		roll := game.RollRobbery(s.roller, victim.Balance)
		out = &RobberyOutcome{
			Success:         roll.Success,
			Stolen:          roll.Stolen,
			Penalty:         roll.Penalty,
			AttackerBalance: attacker.Balance,
			VictimBalance:   victim.Balance,
		}

		from, to, amount := victimID, attackerID, roll.Stolen
		if !roll.Success {
			from, to, amount = attackerID, victimID, roll.Penalty
			out.PenaltyApplied = attacker.Balance.GreaterThanOrEqual(roll.Penalty)
			if !out.PenaltyApplied {
				amount = decimal.Zero
			}
		}
		if amount.IsPositive() {
			fromBal, err := tx.AddBalance(ctx, from, amount.Neg())
			if err != nil {
				return err
			}
			toBal, err := tx.AddBalance(ctx, to, amount)
			if err != nil {
				return err
			}
			if from == attackerID {
				out.AttackerBalance, out.VictimBalance = fromBal, toBal
			} else {
				out.AttackerBalance, out.VictimBalance = toBal, fromBal
			}
		}

		return audit(ctx, tx, attackerID, domain.AuditActionRobbery, domain.AuditCategoryGame, map[string]interface{}{
			"victim_id":       victimID,
			"success":         roll.Success,
			"stolen":          roll.Stolen.String(),
			"penalty":         roll.Penalty.String(),
			"penalty_applied": out.PenaltyApplied,
		})
	})
	if err != nil {
		return nil, observe(ctx, "robbery", err)
	}

	result := ResultLose
	if out.Success {
		result = ResultWin
	}
	GamesTotal.WithLabelValues("robbery", result).Inc()
	return out, nil
}
