package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/game"
	"crypto_tycoon/internal/repository/memstore"
	"crypto_tycoon/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chatID  = -100500
	adminTG = 999
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	raw      []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) MakeRequest(endpoint string, _ tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw = append(f.raw, endpoint)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// last returns the text of the most recent message or edit.
func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	switch m := f.sent[len(f.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.EditMessageTextConfig:
		return m.Text
	}
	t.Fatalf("unexpected chattable %T", f.sent[len(f.sent)-1])
	return ""
}

func (f *fakeSender) lastAnswer(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	cb, ok := f.requests[len(f.requests)-1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	return cb.Text
}

// lastButtons returns callback data of the most recent message keyboard.
func (f *fakeSender) lastButtons(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	var kb tgbotapi.InlineKeyboardMarkup
	switch m := f.sent[len(f.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		var ok bool
		kb, ok = m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		require.True(t, ok, "no keyboard")
	case tgbotapi.EditMessageTextConfig:
		require.NotNil(t, m.ReplyMarkup)
		kb = *m.ReplyMarkup
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

type botEnv struct {
	ctx    context.Context
	bot    *Bot
	out    *fakeSender
	ledger *service.LedgerService
	msgID  int
}

func newBotEnv(t *testing.T, roller game.Roller) *botEnv {
	t.Helper()
	store := memstore.New(memstore.Options{LockTimeout: 5 * time.Second, HouseSeed: decimal.NewFromInt(10000)})
	ledger := service.NewLedgerService(store, service.LedgerConfig{
		StartingBalance: decimal.NewFromInt(1000),
		HouseSeed:       decimal.NewFromInt(10000),
	})
	require.NoError(t, ledger.Bootstrap(context.Background()))

	out := &fakeSender{}
	b := newBot(out, Services{
		Ledger: ledger,
		Trade:  service.NewTradeService(store, nil, nil),
		Gambling: service.NewGamblingService(store, service.NewMemoryDuelBook(), roller, service.GamblingConfig{
			MinBet: decimal.NewFromInt(1),
			MaxBet: decimal.NewFromInt(1000000),
		}),
		Equity: service.NewEquityService(store),
		Shop:   service.NewShopService(store, nil),
	}, Config{AdminIDs: []int64{adminTG}, WebAppURL: "https://example.org/app"})
	return &botEnv{ctx: context.Background(), bot: b, out: out, ledger: ledger}
}

func (e *botEnv) send(id int64, username, text string) {
	e.msgID++
	msg := &tgbotapi.Message{
		MessageID: e.msgID,
		From:      &tgbotapi.User{ID: id, UserName: username},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	e.bot.HandleUpdate(e.ctx, tgbotapi.Update{Message: msg})
}

func (e *botEnv) press(id int64, username, data string) {
	e.bot.HandleUpdate(e.ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: id, UserName: username},
		Message: &tgbotapi.Message{MessageID: e.msgID, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}})
}

func TestStartHelpBalance(t *testing.T) {
	e := newBotEnv(t, nil)

	e.send(1, "alice", "/start")
	assert.Contains(t, e.out.last(t), "Привіт")

	e.send(1, "alice", "/help")
	assert.Contains(t, e.out.last(t), "/create_coin")

	e.send(1, "alice", "/balance")
	assert.Contains(t, e.out.last(t), "1000.00")

	e.send(1, "alice", "/nope")
	assert.Contains(t, e.out.last(t), "Невідома команда")
}

func TestDuelViaButtons(t *testing.T) {
	e := newBotEnv(t, game.Faces(6, 1))
	e.send(1, "alice", "hi")

	e.send(1, "alice", "/dice 100 @bob")
	assert.Contains(t, e.out.last(t), "Користувач не знайдений")

	e.send(2, "bob", "hello")
	e.send(1, "alice", "/dice 100 @bob")
	assert.Contains(t, e.out.last(t), "пропонує парі на 100.00")
	buttons := e.out.lastButtons(t)
	require.Len(t, buttons, 2)
	require.True(t, strings.HasPrefix(buttons[0], "duel:accept:"))

	e.press(1, "alice", buttons[0])
	assert.Equal(t, "🙅 Це не для вас!", e.out.lastAnswer(t))

	e.press(2, "bob", buttons[0])
	text := e.out.last(t)
	assert.Contains(t, text, "@alice виграв! (6 vs 1)")
	assert.Contains(t, text, "@alice тепер має 1100.00")
	assert.Contains(t, text, "@bob тепер має 900.00")

	e.press(2, "bob", buttons[0])
	assert.Equal(t, "⌛ Парі вже не актуальне", e.out.lastAnswer(t))
}

func TestDuelCancelButton(t *testing.T) {
	e := newBotEnv(t, nil)
	e.send(2, "bob", "hello")
	e.send(1, "alice", "/dice @bob 10")
	buttons := e.out.lastButtons(t)

	e.press(2, "bob", buttons[1])
	assert.Equal(t, "🙅 Це не для вас!", e.out.lastAnswer(t))

	e.press(1, "alice", buttons[1])
	assert.Equal(t, "✖️ Парі скасовано", e.out.last(t))
}

func TestAdminAndMarket(t *testing.T) {
	e := newBotEnv(t, nil)
	e.send(1, "alice", "hi")
	e.send(2, "bob", "hi")

	e.send(1, "alice", "/give @alice 100")
	assert.Equal(t, "⛔ Немає дозволу", e.out.last(t))

	e.send(adminTG, "boss", "/give @alice 20000")
	assert.Contains(t, e.out.last(t), "Баланс: 21000.00")

	e.send(1, "alice", "/create_coin moon 1")
	buttons := e.out.lastButtons(t)
	require.Len(t, buttons, 3)
	assert.Equal(t, "tier:1:MOON:1:bronze", buttons[0])

	e.press(2, "bob", buttons[0])
	assert.Equal(t, "🙅 Це не для вас!", e.out.lastAnswer(t))

	e.press(1, "alice", buttons[0])
	assert.Contains(t, e.out.last(t), "$MOON створено")

	e.send(2, "bob", "/buy MOON 10")
	assert.Contains(t, e.out.last(t), "Куплено 10 $MOON")

	e.send(2, "bob", "/sell MOON 11")
	assert.Equal(t, "❌ Недостатньо токенів", e.out.last(t))

	e.send(2, "bob", "/my_tokens")
	assert.Contains(t, e.out.last(t), "$MOON: 10 шт.")

	e.send(1, "alice", "/top royalties")
	assert.Contains(t, e.out.last(t), "1. @alice")

	e.send(1, "alice", "/top volume")
	assert.Contains(t, e.out.last(t), "1. $MOON")

	e.send(adminTG, "boss", "/admin_set_balance @bob 5")
	assert.Contains(t, e.out.last(t), "5.00")
	bal, err := e.ledger.GetBalance(e.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "5", bal.String())

	e.send(adminTG, "boss", "/admin_set_bot_balance 0")
	e.send(2, "bob", "/dice_bot 5")
	assert.Equal(t, "🏦 Я банкрут, зачекайте поки хтось програє", e.out.last(t))

	e.send(adminTG, "boss", "/report")
	assert.Contains(t, e.out.last(t), "$MOON")
}

func TestShopTriggerAndVIP(t *testing.T) {
	e := newBotEnv(t, nil)
	e.send(1, "alice", "hi")
	e.send(2, "bob", "hi")

	e.send(1, "alice", "/shop")
	buttons := e.out.lastButtons(t)
	assert.Equal(t, []string{"shop:cat:Effects", "shop:cat:Status"}, buttons)

	e.press(1, "alice", "shop:cat:Effects")
	assert.Equal(t, []string{"shop:buy:trigger_word", "shop:back"}, e.out.lastButtons(t))

	e.press(1, "alice", "shop:buy:trigger_word")
	assert.Contains(t, e.out.lastAnswer(t), "/buy_item trigger_word")

	e.send(1, "alice", "/buy_item trigger_word Moon")
	assert.Contains(t, e.out.last(t), "Куплено Trigger Word")

	e.send(2, "bob", "to the MOON!")
	assert.Equal(t, "🔥 Trigger activated!", e.out.last(t))

	e.send(adminTG, "boss", "/admin_set_balance @bob 10")
	e.send(2, "bob", "/buy_item vip")
	assert.Equal(t, "❌ Недостатньо коштів", e.out.last(t))
	assert.Empty(t, e.out.raw)

	e.send(adminTG, "boss", "/give @bob 1000")
	e.press(2, "bob", "shop:buy:vip")
	assert.Contains(t, e.out.last(t), "Куплено VIP")

	e.send(2, "bob", "gm")
	assert.Equal(t, []string{"setMessageReaction"}, e.out.raw)
}

func TestArgs(t *testing.T) {
	a, err := parseAmount("1,5")
	require.NoError(t, err)
	assert.Equal(t, "1.5", a.String())

	for _, bad := range []string{"", "0", "-3", "abc", "1e-3000000", "0,000000001"} {
		_, err := parseAmount(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, bad)
	}

	v, err := parseValue("0")
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	amount, name, err := amountAndMention([]string{"@bob", "25"})
	require.NoError(t, err)
	assert.Equal(t, "25", amount.String())
	assert.Equal(t, "bob", name)

	_, _, err = amountAndMention([]string{"25"})
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, err = parseMention("@")
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "❌ Недостатньо коштів", errorText(domain.ErrInsufficientFunds))
	assert.Equal(t, "⚠️ Сервіс тимчасово недоступний", errorText(domain.ErrStoreUnavailable))
}
