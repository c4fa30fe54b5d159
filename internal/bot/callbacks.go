package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data formats:
//
//	duel:accept:<id>  duel:cancel:<id>
//	tier:<user_id>:<ticker>:<price>:<tier>
//	shop:cat:<category>  shop:buy:<key>  shop:back
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil {
		return
	}
	if _, err := b.svc.Ledger.EnsureUser(ctx, q.From.ID, q.From.UserName); err != nil {
		b.answer(q, errorText(err))
		return
	}

	parts := strings.Split(q.Data, ":")
	switch parts[0] {
	case "duel":
		if len(parts) == 3 {
			b.duelCallback(ctx, q, parts[1], parts[2])
			return
		}
	case "tier":
		if len(parts) == 5 {
			b.tierCallback(ctx, q, parts[1:])
			return
		}
	case "shop":
		if len(parts) >= 2 {
			b.shopCallback(ctx, q, parts[1], strings.Join(parts[2:], ":"))
			return
		}
	}
	b.answer(q, "❓")
}

func (b *Bot) duelCallback(ctx context.Context, q *tgbotapi.CallbackQuery, action, id string) {
	switch action {
	case "accept":
		out, err := b.svc.Gambling.AcceptDuel(ctx, id, q.From.ID)
		if err != nil {
			b.answer(q, errorText(err))
			// the duel is gone; clear the buttons
			if !errors.Is(err, domain.ErrNotYourDuel) {
				b.edit(q, errorText(err), nil)
			}
			return
		}
		b.answer(q, "🎲")
		b.edit(q, b.duelResultText(ctx, out), nil)

	case "cancel":
		if _, err := b.svc.Gambling.CancelDuel(ctx, id, q.From.ID); err != nil {
			b.answer(q, errorText(err))
			return
		}
		b.answer(q, "Скасовано")
		b.edit(q, "✖️ Парі скасовано", nil)

	default:
		b.answer(q, "❓")
	}
}

func (b *Bot) duelResultText(ctx context.Context, out *service.DuelOutcome) string {
	d := out.Duel
	if out.Tie {
		return fmt.Sprintf("🎲 Нічия! %d vs %d. Гроші залишились при гравцях.", out.ChallengerRoll, out.OpponentRoll)
	}
	balances := map[int64]string{
		d.ChallengerID: money(out.ChallengerBalance),
		d.OpponentID:   money(out.OpponentBalance),
	}
	return fmt.Sprintf("🎲 Результат: %s виграв! (%d vs %d)\nЗабрано %s монет.\n%s тепер має %s монет.\n%s тепер має %s монет.",
		b.nameOf(ctx, out.WinnerID), out.ChallengerRoll, out.OpponentRoll, money(d.Stake),
		b.nameOf(ctx, out.WinnerID), balances[out.WinnerID],
		b.nameOf(ctx, out.LoserID), balances[out.LoserID])
}

func (b *Bot) nameOf(ctx context.Context, id int64) string {
	u, err := b.svc.Ledger.GetUser(ctx, id)
	if err != nil {
		return (&domain.User{ID: id}).DisplayName()
	}
	return u.DisplayName()
}

// tierCallback finishes /create_coin; only the user who asked may pick.
func (b *Bot) tierCallback(ctx context.Context, q *tgbotapi.CallbackQuery, args []string) {
	uid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || uid != q.From.ID {
		b.answer(q, errorText(domain.ErrNotYourDuel))
		return
	}
	tier, ok := domain.ParseTier(args[3])
	if !ok {
		b.answer(q, errorText(domain.ErrUnknownTier))
		return
	}
	r := b.createCoin(ctx, uid, args[1], args[2], tier)
	b.answer(q, "")
	b.edit(q, r.text, nil)
}

func (b *Bot) shopMenu() reply {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cat := range b.svc.Shop.Categories() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(cat, "shop:cat:"+cat)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return reply{text: "Оберіть категорію:", markup: &kb}
}

func (b *Bot) shopCallback(ctx context.Context, q *tgbotapi.CallbackQuery, action, arg string) {
	switch action {
	case "back":
		menu := b.shopMenu()
		b.answer(q, "")
		b.edit(q, menu.text, menu.markup)

	case "cat":
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, item := range b.svc.Shop.Catalog() {
			if item.Category != arg {
				continue
			}
			label := fmt.Sprintf("%s - %s монет", item.Name, money(item.Price))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, "shop:buy:"+item.Key)))
		}
		b.answer(q, "")
		if len(rows) == 0 {
			b.edit(q, "Немає товарів у цій категорії", nil)
			return
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Назад", "shop:back")))
		kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
		b.edit(q, fmt.Sprintf("Товари у %s:", arg), &kb)

	case "buy":
		item, err := b.svc.Shop.Item(arg)
		if err != nil {
			b.answer(q, errorText(err))
			return
		}
		if item.Kind == service.ItemEffect {
			b.answer(q, fmt.Sprintf("Надішліть /buy_item %s <слово>", item.Key))
			return
		}
		r := b.purchase(ctx, q.From.ID, item.Key, "")
		b.answer(q, r.text)
		b.edit(q, r.text, nil)

	default:
		b.answer(q, "❓")
	}
}

func (b *Bot) answer(q *tgbotapi.CallbackQuery, text string) {
	if _, err := b.out.Request(tgbotapi.NewCallback(q.ID, text)); err != nil {
		b.log.Debug("callback answer failed", "error", err)
	}
}

// edit replaces the text of the message the button belongs to.
func (b *Bot) edit(q *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if q.Message == nil || text == "" {
		return
	}
	var c tgbotapi.Chattable
	if markup != nil {
		c = tgbotapi.NewEditMessageTextAndMarkup(q.Message.Chat.ID, q.Message.MessageID, text, *markup)
	} else {
		c = tgbotapi.NewEditMessageText(q.Message.Chat.ID, q.Message.MessageID, text)
	}
	if _, err := b.out.Send(c); err != nil {
		b.log.Error("error editing message", "error", err)
	}
}
