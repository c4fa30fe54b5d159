package handlers

import (
	"net/http"

	"crypto_tycoon/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProposeDuelRequest struct {
	// Opponent is a user id or @username.
	Opponent string          `json:"opponent"`
	Stake    decimal.Decimal `json:"stake"`
}

type StakeRequest struct {
	Stake decimal.Decimal `json:"stake"`
}

type RobRequest struct {
	Target string `json:"target"`
}

// GameLimits returns bet limits for the client
func (h *Handler) GameLimits(c *gin.Context) {
	limits := h.Gambling.GetLimits()
	c.JSON(http.StatusOK, gin.H{
		"min_bet":  limits.MinBet,
		"max_bet":  limits.MaxBet,
		"duel_ttl": limits.DuelTTL.Seconds(),
	})
}

func (h *Handler) ProposeDuel(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ProposeDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}
	opponent, err := h.resolveUser(c.Request.Context(), req.Opponent)
	if err != nil {
		respondError(c, err)
		return
	}

	duel, err := h.Gambling.ProposeDuel(c.Request.Context(), service.DuelProposal{
		ChallengerID: userID,
		OpponentID:   opponent.ID,
		Stake:        req.Stake,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, duel)
}

func (h *Handler) GetDuel(c *gin.Context) {
	duel, err := h.Gambling.GetDuel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, duel)
}

func (h *Handler) AcceptDuel(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	out, err := h.Gambling.AcceptDuel(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CancelDuel(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	duel, err := h.Gambling.CancelDuel(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": duel.ID})
}

func (h *Handler) HouseDice(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req StakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}
	out, err := h.Gambling.PlayHouseDice(c.Request.Context(), userID, req.Stake)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Rob(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req RobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}
	victim, err := h.resolveUser(c.Request.Context(), req.Target)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.Gambling.AttemptRobbery(c.Request.Context(), userID, victim.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
