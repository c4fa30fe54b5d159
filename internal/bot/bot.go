package bot

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/service"
	"crypto_tycoon/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

type Services struct {
	Ledger   *service.LedgerService
	Trade    *service.TradeService
	Gambling *service.GamblingService
	Equity   *service.EquityService
	Shop     *service.ShopService
}

type Config struct {
	AdminIDs  []int64
	WebAppURL string
}

// Bot is the chat front end of the game.
type Bot struct {
	api    *tgbotapi.BotAPI
	out    Sender
	svc    Services
	cfg    Config
	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

var _ worker.Notifier = (*Bot)(nil)

func New(token string, svc Services, cfg Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b := newBot(api, svc, cfg)
	b.api = api
	b.log.Info("bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newBot(out Sender, svc Services, cfg Config) *Bot {
	return &Bot{
		out:    out,
		svc:    svc,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		log:    logger.With("component", "bot"),
	}
}

// Start starts listening for updates
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				b.HandleUpdate(ctx, upd)
			}(update)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return slices.Contains(b.cfg.AdminIDs, userID)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	user, err := b.svc.Ledger.EnsureUser(ctx, msg.From.ID, msg.From.UserName)
	if err != nil {
		b.log.Error("ensure user failed", "tg_id", msg.From.ID, "error", err)
		b.reply(msg, textReply(errorText(err)))
		return
	}

	if msg.IsCommand() {
		b.reply(msg, b.handleCommand(ctx, msg))
	} else if msg.Text != "" {
		b.checkTrigger(ctx, msg)
	}

	if user.VIP {
		b.react(msg, "🔥")
	}
}

func (b *Bot) checkTrigger(ctx context.Context, msg *tgbotapi.Message) {
	_, ok, err := b.svc.Shop.MatchTrigger(ctx, msg.Text)
	if err != nil {
		b.log.Warn("trigger lookup failed", "error", err)
		return
	}
	if ok {
		b.reply(msg, textReply("🔥 Trigger activated!"))
	}
}

// reply is a bot answer with an optional inline keyboard.
type reply struct {
	text   string
	markup *tgbotapi.InlineKeyboardMarkup
}

func textReply(text string) reply {
	return reply{text: text}
}

func (b *Bot) reply(msg *tgbotapi.Message, r reply) {
	if r.text == "" {
		return
	}
	m := tgbotapi.NewMessage(msg.Chat.ID, r.text)
	m.ReplyToMessageID = msg.MessageID
	if r.markup != nil {
		m.ReplyMarkup = *r.markup
	}
	if _, err := b.out.Send(m); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// SendText posts a plain message, used by the report worker.
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.out.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// react sets an emoji reaction. The Bot API method is newer than the client
// library, so it goes through MakeRequest.
func (b *Bot) react(msg *tgbotapi.Message, emoji string) {
	params := tgbotapi.Params{
		"chat_id":    strconv.FormatInt(msg.Chat.ID, 10),
		"message_id": strconv.Itoa(msg.MessageID),
		"reaction":   `[{"type":"emoji","emoji":"` + emoji + `"}]`,
	}
	if _, err := b.out.MakeRequest("setMessageReaction", params); err != nil {
		b.log.Debug("failed to set reaction", "error", err)
	}
}
