package bot

import (
	"context"
	"fmt"
	"strings"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/internal/service"
	"crypto_tycoon/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) reply {
	args := strings.Fields(msg.CommandArguments())
	uid := msg.From.ID

	switch msg.Command() {
	case "start":
		return b.cmdStart()
	case "help":
		return textReply(helpText)
	case "balance":
		return b.cmdBalance(ctx, uid)
	case "create_coin":
		return b.cmdCreateCoin(ctx, uid, args)
	case "buy":
		return b.cmdTrade(ctx, uid, args, true)
	case "sell":
		return b.cmdTrade(ctx, uid, args, false)
	case "my_tokens":
		return b.cmdMyTokens(ctx, uid)
	case "top":
		return b.cmdTop(ctx, args)
	case "dice":
		return b.cmdDice(ctx, msg, args)
	case "dice_bot":
		return b.cmdDiceBot(ctx, uid, args)
	case "rob":
		return b.cmdRob(ctx, uid, args)
	case "shop":
		return b.shopMenu()
	case "buy_item":
		return b.cmdBuyItem(ctx, uid, args)
	case "give", "admin_set_balance", "admin_set_bot_balance", "report":
		if !b.isAdmin(uid) {
			return textReply("⛔ Немає дозволу")
		}
		return b.handleAdminCommand(ctx, msg.Command(), uid, args)
	default:
		return textReply("❓ Невідома команда. /help")
	}
}

const helpText = `🪙 Crypto-Tycoon & Casino

/balance - баланс і капітал
/create_coin <тікер> <ціна> [bronze|silver|gold] - випустити токен
/buy <тікер> <кількість> - купити токен
/sell <тікер> <кількість> - продати токен
/my_tokens - ваші токени
/top [balance|royalties|volume] - рейтинг
/dice <сума> @user - парі в кості
/dice_bot <сума> - кості проти бота
/rob @user - спробувати пограбувати
/shop - магазин
/buy_item <товар> [слово] - купити товар`

func (b *Bot) cmdStart() reply {
	r := textReply("Привіт! Я Crypto-Tycoon & Casino бот. /help - список команд.")
	if b.cfg.WebAppURL != "" {
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Відкрити Mini-App", b.cfg.WebAppURL),
		))
		r.markup = &kb
	}
	return r
}

func (b *Bot) cmdBalance(ctx context.Context, uid int64) reply {
	p, err := b.svc.Equity.Portfolio(ctx, uid)
	if err != nil {
		return textReply(errorText(err))
	}
	return textReply(fmt.Sprintf("💰 Баланс: %s\n📈 Капітал: %s", money(p.Balance), money(p.Equity)))
}

func (b *Bot) cmdCreateCoin(ctx context.Context, uid int64, args []string) reply {
	if len(args) < 2 || len(args) > 3 {
		return textReply("Використання: /create_coin <тікер> <ціна> [bronze|silver|gold]")
	}
	price, err := parseAmount(args[1])
	if err != nil {
		return textReply(errorText(err))
	}
	if len(args) == 2 {
		ticker, err := market.NormalizeTicker(args[0])
		if err != nil {
			return textReply(errorText(err))
		}
		return b.tierMenu(uid, ticker, price.String())
	}
	tier, ok := domain.ParseTier(args[2])
	if !ok {
		return textReply(errorText(domain.ErrUnknownTier))
	}
	return b.createCoin(ctx, uid, args[0], args[1], tier)
}

func (b *Bot) createCoin(ctx context.Context, uid int64, ticker, priceArg string, tier domain.Tier) reply {
	price, err := parseAmount(priceArg)
	if err != nil {
		return textReply(errorText(err))
	}
	coin, err := b.svc.Trade.CreateCoin(ctx, uid, ticker, price, tier)
	if err != nil {
		return textReply(errorText(err))
	}
	return textReply(fmt.Sprintf("🚀 Токен $%s створено! Рівень: %s, стартова ціна: %s",
		coin.Ticker, coin.Tier.Title(), money(coin.InitialPrice)))
}

func (b *Bot) tierMenu(uid int64, ticker, price string) reply {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, info := range b.svc.Trade.Tiers() {
		label := fmt.Sprintf("%s - %s", info.Tier.Title(), money(info.Cost))
		data := fmt.Sprintf("tier:%d:%s:%s:%s", uid, ticker, price, info.Tier)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return reply{text: fmt.Sprintf("Оберіть рівень для $%s:", ticker), markup: &kb}
}

func (b *Bot) cmdTrade(ctx context.Context, uid int64, args []string, buy bool) reply {
	verb := "sell"
	if buy {
		verb = "buy"
	}
	if len(args) != 2 {
		return textReply(fmt.Sprintf("Використання: /%s <тікер> <кількість>", verb))
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return textReply(errorText(err))
	}

	run := b.svc.Trade.Sell
	if buy {
		run = b.svc.Trade.Buy
	}
	res, err := run(ctx, uid, args[0], amount)
	if err != nil {
		return textReply(errorText(err))
	}

	action := "Продано"
	if buy {
		action = "Куплено"
	}
	return textReply(fmt.Sprintf("✅ %s %s $%s по %s (сума %s)\nНова ціна: %s\nБаланс: %s",
		action, res.Amount, res.Ticker, money(res.Price), money(res.Value), money(res.NewPrice), money(res.Balance)))
}

func (b *Bot) cmdMyTokens(ctx context.Context, uid int64) reply {
	p, err := b.svc.Equity.Portfolio(ctx, uid)
	if err != nil {
		return textReply(errorText(err))
	}
	if len(p.Positions) == 0 {
		return textReply("Немає токенів")
	}
	var sb strings.Builder
	sb.WriteString("💼 Ваші токени:\n")
	for _, pos := range p.Positions {
		fmt.Fprintf(&sb, "$%s: %s шт. × %s = %s\n", pos.Ticker, pos.Amount, money(pos.Price), money(pos.Value))
	}
	fmt.Fprintf(&sb, "\nКапітал: %s", money(p.Equity))
	return textReply(sb.String())
}

func (b *Bot) cmdTop(ctx context.Context, args []string) reply {
	kindArg := ""
	if len(args) > 0 {
		kindArg = strings.ToLower(args[0])
	}
	kind, ok := domain.ParseLeaderboardKind(kindArg)
	if !ok {
		return textReply("Використання: /top [balance|royalties|volume]")
	}
	rows, err := b.svc.Equity.Leaderboard(ctx, kind, 10)
	if err != nil {
		return textReply(errorText(err))
	}
	if len(rows) == 0 {
		return textReply("Рейтинг порожній")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Топ (%s):\n", kind)
	for _, row := range rows {
		name := "$" + row.Ticker
		if row.Ticker == "" {
			name = (&domain.User{ID: row.UserID, Username: row.Username}).DisplayName()
		}
		fmt.Fprintf(&sb, "%d. %s - %s\n", row.Rank, name, money(row.Value))
	}
	return textReply(strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) cmdDice(ctx context.Context, msg *tgbotapi.Message, args []string) reply {
	stake, name, err := amountAndMention(args)
	if err != nil {
		return textReply("Використання: /dice <сума> @user")
	}
	opponent, err := b.svc.Ledger.FindByUsername(ctx, name)
	if err != nil {
		return textReply(errorText(err))
	}

	duel, err := b.svc.Gambling.ProposeDuel(ctx, service.DuelProposal{
		ChallengerID: msg.From.ID,
		OpponentID:   opponent.ID,
		Stake:        stake,
		ChatID:       msg.Chat.ID,
		MessageID:    msg.MessageID,
	})
	if err != nil {
		return textReply(errorText(err))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎲 Прийняти парі", "duel:accept:"+duel.ID),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Скасувати", "duel:cancel:"+duel.ID),
	))
	challenger := (&domain.User{ID: msg.From.ID, Username: msg.From.UserName}).DisplayName()
	return reply{
		text:   fmt.Sprintf("%s пропонує парі на %s монет з %s!", challenger, money(stake), opponent.DisplayName()),
		markup: &kb,
	}
}

func (b *Bot) cmdDiceBot(ctx context.Context, uid int64, args []string) reply {
	if len(args) != 1 {
		return textReply("Використання: /dice_bot <сума>")
	}
	stake, err := parseAmount(args[0])
	if err != nil {
		return textReply(errorText(err))
	}
	out, err := b.svc.Gambling.PlayHouseDice(ctx, uid, stake)
	if err != nil {
		return textReply(errorText(err))
	}

	var verdict string
	switch out.Result {
	case service.ResultWin:
		verdict = "Ти виграв!"
	case service.ResultLose:
		verdict = "Ти програв!"
	default:
		verdict = "Нічия!"
	}
	return textReply(fmt.Sprintf("🎲 %s %d vs %d\nТвій баланс: %s", verdict, out.UserRoll, out.HouseRoll, money(out.Balance)))
}

func (b *Bot) cmdRob(ctx context.Context, uid int64, args []string) reply {
	if len(args) != 1 {
		return textReply("Використання: /rob @user")
	}
	name, err := parseMention(args[0])
	if err != nil {
		return textReply(errorText(err))
	}
	victim, err := b.svc.Ledger.FindByUsername(ctx, name)
	if err != nil {
		return textReply(errorText(err))
	}
	if victim.ID == uid {
		return textReply("❌ Не можна грабувати себе")
	}

	out, err := b.svc.Gambling.AttemptRobbery(ctx, uid, victim.ID)
	if err != nil {
		return textReply(errorText(err))
	}
	switch {
	case out.Success:
		return textReply(fmt.Sprintf("💰 Успіх! Ви вкрали %s монет у %s", money(out.Stolen), victim.DisplayName()))
	case out.PenaltyApplied:
		return textReply(fmt.Sprintf("🚨 Невдача! Штраф %s монет сплачено %s", money(out.Penalty), victim.DisplayName()))
	default:
		return textReply("🚨 Невдача! Але у вас недостатньо коштів для штрафу")
	}
}

func (b *Bot) cmdBuyItem(ctx context.Context, uid int64, args []string) reply {
	if len(args) < 1 {
		return textReply("Використання: /buy_item <товар> [слово]")
	}
	word := strings.Join(args[1:], " ")
	return b.purchase(ctx, uid, args[0], word)
}

func (b *Bot) purchase(ctx context.Context, uid int64, key, word string) reply {
	p, err := b.svc.Shop.Purchase(ctx, uid, key, word)
	if err != nil {
		return textReply(errorText(err))
	}
	return textReply(fmt.Sprintf("🛍 Куплено %s! Баланс: %s", p.Item.Name, money(p.Balance)))
}

func (b *Bot) handleAdminCommand(ctx context.Context, cmd string, adminID int64, args []string) reply {
	switch cmd {
	case "give":
		amount, name, err := amountAndMention(args)
		if err != nil {
			return textReply("Використання: /give @user <сума>")
		}
		target, err := b.svc.Ledger.FindByUsername(ctx, name)
		if err != nil {
			return textReply(errorText(err))
		}
		bal, err := b.svc.Ledger.AdminGive(ctx, adminID, target.ID, amount)
		if err != nil {
			return textReply(errorText(err))
		}
		return textReply(fmt.Sprintf("✅ Дано %s користувачу %s. Баланс: %s", money(amount), target.DisplayName(), money(bal)))

	case "admin_set_balance":
		if len(args) != 2 {
			return textReply("Використання: /admin_set_balance @user <сума>")
		}
		name, err := parseMention(args[0])
		if err != nil {
			return textReply(errorText(err))
		}
		value, err := parseValue(args[1])
		if err != nil {
			return textReply(errorText(err))
		}
		target, err := b.svc.Ledger.FindByUsername(ctx, name)
		if err != nil {
			return textReply(errorText(err))
		}
		if err := b.svc.Ledger.AdminSetBalance(ctx, adminID, target.ID, value); err != nil {
			return textReply(errorText(err))
		}
		return textReply(fmt.Sprintf("✅ Баланс %s встановлено: %s", target.DisplayName(), money(value)))

	case "admin_set_bot_balance":
		if len(args) != 1 {
			return textReply("Використання: /admin_set_bot_balance <сума>")
		}
		value, err := parseValue(args[0])
		if err != nil {
			return textReply(errorText(err))
		}
		if err := b.svc.Ledger.AdminSetHouseBalance(ctx, adminID, value); err != nil {
			return textReply(errorText(err))
		}
		return textReply(fmt.Sprintf("✅ Скарбницю бота встановлено: %s", money(value)))

	case "report":
		r, err := b.svc.Equity.MarketReport(ctx, 3)
		if err != nil {
			return textReply(errorText(err))
		}
		return textReply(worker.FormatReport(r))
	}
	return textReply("❓ Невідома команда. /help")
}
