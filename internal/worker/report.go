package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/service"

	redis "github.com/redis/go-redis/v9"
)

// ReportSource builds the market summary.
type ReportSource interface {
	MarketReport(ctx context.Context, n int) (*service.MarketReport, error)
}

// Notifier delivers a plain text message to a chat.
type Notifier interface {
	SendText(chatID int64, text string) error
}

// Reporter posts the morning market report once a day at Hour local time.
type Reporter struct {
	Source ReportSource
	Notify Notifier
	// Redis, when set, makes sure only one instance posts per day.
	Redis  redis.UniversalClient
	ChatID int64
	Hour   int
	TopN   int

	now func() time.Time
	log *slog.Logger
}

func NewReporter(src ReportSource, notify Notifier, rdb redis.UniversalClient, chatID int64, hour int) *Reporter {
	return &Reporter{
		Source: src,
		Notify: notify,
		Redis:  rdb,
		ChatID: chatID,
		Hour:   hour,
		TopN:   3,
		now:    time.Now,
		log:    logger.With("component", "report_worker"),
	}
}

// NextRun returns the first hour:00 strictly after now, in now's location.
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start blocks until ctx is cancelled.
func (r *Reporter) Start(ctx context.Context) {
	r.log.Info("market report worker started", "hour", r.Hour, "chat_id", r.ChatID)
	for {
		wait := NextRun(r.now(), r.Hour).Sub(r.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := r.RunOnce(ctx); err != nil {
			r.log.Error("market report failed", "error", err)
		}
	}
}

// RunOnce builds and sends today's report. With Redis configured a second
// call on the same day is a no-op; a failed attempt releases the day so a
// later run can retry.
func (r *Reporter) RunOnce(ctx context.Context) error {
	var claimed string
	if r.Redis != nil {
		key := "report_sent:" + r.now().Format("2006-01-02")
		ok, err := r.Redis.SetNX(ctx, key, "true", 36*time.Hour).Result()
		switch {
		case err != nil:
			r.log.Warn("report dedup unavailable", "error", err)
		case !ok:
			r.log.Debug("report already sent today", "key", key)
			return nil
		default:
			claimed = key
		}
	}

	if err := r.send(ctx); err != nil {
		if claimed != "" {
			if derr := r.Redis.Del(context.WithoutCancel(ctx), claimed).Err(); derr != nil {
				r.log.Warn("failed to release report key", "key", claimed, "error", derr)
			}
		}
		return err
	}
	return nil
}

func (r *Reporter) send(ctx context.Context) error {
	report, err := r.Source.MarketReport(ctx, r.TopN)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	if err := r.Notify.SendText(r.ChatID, FormatReport(report)); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	r.log.Info("market report sent", "chat_id", r.ChatID, "coins", report.Coins)
	return nil
}

// FormatReport renders the report as chat text.
func FormatReport(r *service.MarketReport) string {
	var b strings.Builder
	b.WriteString("🌅 Morning Market Report:\n\n")

	b.WriteString("Top Coins by Volume:\n")
	if len(r.TopCoins) == 0 {
		b.WriteString("—\n")
	}
	for _, c := range r.TopCoins {
		fmt.Fprintf(&b, "$%s: %s (price %s)\n", c.Ticker, c.TotalVolume.StringFixed(2), c.Price.StringFixed(2))
	}

	b.WriteString("\nTop Creators by Royalties:\n")
	if len(r.TopCreators) == 0 {
		b.WriteString("—\n")
	}
	for _, row := range r.TopCreators {
		name := "id" + fmt.Sprint(row.UserID)
		if row.Username != "" {
			name = "@" + row.Username
		}
		fmt.Fprintf(&b, "%s: %s\n", name, row.Value.StringFixed(2))
	}

	fmt.Fprintf(&b, "\nBot Treasury: %s coins", r.HouseBalance.StringFixed(2))
	return b.String()
}
