package bot

import (
	"errors"

	"crypto_tycoon/internal/domain"

	"github.com/shopspring/decimal"
)

var userMessages = []struct {
	err  error
	text string
}{
	{domain.ErrInvalidAmount, "❌ Невірна сума"},
	{domain.ErrInvalidTicker, "❌ Невірний тікер (1-10 латинських літер або цифр)"},
	{domain.ErrUnknownTier, "❌ Невідомий рівень. Доступні: Bronze, Silver, Gold"},
	{domain.ErrInvalidTarget, "❌ Невірна ціль"},
	{domain.ErrBetTooLow, "❌ Ставка замала"},
	{domain.ErrBetTooHigh, "❌ Ставка завелика"},
	{domain.ErrInvalidWord, "❌ Невірне слово-тригер"},
	{domain.ErrInsufficientFunds, "❌ Недостатньо коштів"},
	{domain.ErrInsufficientHoldings, "❌ Недостатньо токенів"},
	{domain.ErrHouseInsolvent, "🏦 Я банкрут, зачекайте поки хтось програє"},
	{domain.ErrCoinNotFound, "❌ Токен не знайдено"},
	{domain.ErrUserNotFound, "❌ Користувач не знайдений"},
	{domain.ErrDuelNotFound, "⌛ Парі вже не актуальне"},
	{domain.ErrItemNotFound, "❌ Товар не знайдено"},
	{domain.ErrTickerExists, "❌ Такий тікер уже існує"},
	{domain.ErrAlreadyOwned, "ℹ️ У вас це вже є"},
	{domain.ErrDuelExpired, "⌛ Час на парі вийшов"},
	{domain.ErrNotYourDuel, "🙅 Це не для вас!"},
	{domain.ErrBusy, "⏳ Забагато запитів, спробуйте ще раз"},
}

// errorText phrases an engine error for chat. System errors are not echoed.
func errorText(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.text
		}
	}
	return "⚠️ Сервіс тимчасово недоступний"
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
