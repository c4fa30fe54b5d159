package market

import (
	"regexp"
	"strings"

	"crypto_tycoon/internal/domain"
)

var tickerRe = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// NormalizeTicker upper-cases and validates a ticker symbol.
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$")))
	if !tickerRe.MatchString(t) {
		return "", domain.ErrInvalidTicker
	}
	return t, nil
}
