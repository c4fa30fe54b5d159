package handlers

import (
	"context"
	"strconv"
	"strings"

	"crypto_tycoon/internal/domain"
)

// resolveUser accepts a numeric id, "@name" or "name".
func (h *Handler) resolveUser(ctx context.Context, ref string) (*domain.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrInvalidTarget
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return h.Ledger.GetUser(ctx, id)
	}
	return h.Ledger.FindByUsername(ctx, strings.TrimPrefix(ref, "@"))
}
