package handlers

import (
	"net/http"

	"crypto_tycoon/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ActionRequest is the mini-app's single-endpoint command format.
type ActionRequest struct {
	Action string       `json:"action"`
	Params ActionParams `json:"params"`
}

type ActionParams struct {
	// Name is the coin ticker; Ticker is accepted as an alias.
	Name   string          `json:"name"`
	Ticker string          `json:"ticker"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
	Tier   string          `json:"tier"`
	Target string          `json:"target"`
	Item   string          `json:"item"`
	Word   string          `json:"word"`
}

func (p ActionParams) ticker() string {
	if p.Ticker != "" {
		return p.Ticker
	}
	return p.Name
}

// Action dispatches one mini-app action for the authenticated user.
func (h *Handler) Action(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}
	ctx := c.Request.Context()
	p := req.Params

	var (
		result any
		err    error
	)
	switch req.Action {
	case "create_coin":
		price := p.Price
		if price.IsZero() {
			price = decimal.NewFromInt(1)
		}
		result, err = h.Trade.CreateCoin(ctx, userID, p.ticker(), price, parseTier(p.Tier))
	case "buy":
		result, err = h.Trade.Buy(ctx, userID, p.ticker(), p.Amount)
	case "sell":
		result, err = h.Trade.Sell(ctx, userID, p.ticker(), p.Amount)
	case "dice":
		opponent, rerr := h.resolveUser(ctx, p.Target)
		if rerr != nil {
			err = rerr
			break
		}
		result, err = h.Gambling.ProposeDuel(ctx, service.DuelProposal{
			ChallengerID: userID,
			OpponentID:   opponent.ID,
			Stake:        p.Amount,
		})
	case "dice_bot":
		result, err = h.Gambling.PlayHouseDice(ctx, userID, p.Amount)
	case "rob":
		victim, rerr := h.resolveUser(ctx, p.Target)
		if rerr != nil {
			err = rerr
			break
		}
		result, err = h.Gambling.AttemptRobbery(ctx, userID, victim.ID)
	case "buy_item":
		result, err = h.Shop.Purchase(ctx, userID, p.Item, p.Word)
	case "give":
		if !h.isAdmin(userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		target, rerr := h.resolveUser(ctx, p.Target)
		if rerr != nil {
			err = rerr
			break
		}
		var bal decimal.Decimal
		bal, err = h.Ledger.AdminGive(ctx, userID, target.ID, p.Amount)
		result = gin.H{"user_id": target.ID, "balance": bal}
	default:
		badRequest(c, "unknown action")
		return
	}

	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"action": req.Action,
		"result": result,
	})
}
