package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/repository"

	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	ItemEffect ItemKind = "effect"
	ItemVIP    ItemKind = "vip"
	ItemTitle  ItemKind = "title"
)

const (
	CategoryEffects = "Effects"
	CategoryStatus  = "Status"
)

const maxTriggerWordLen = 32

// ShopItem is a catalog entry.
type ShopItem struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Kind     ItemKind        `json:"kind"`
	Price    decimal.Decimal `json:"price"`
	// Duration is zero for permanent items.
	Duration time.Duration `json:"duration,omitempty"`
	// Title is applied to the buyer for ItemTitle.
	Title string `json:"title,omitempty"`
}

// DefaultCatalog returns the built-in shop items.
func DefaultCatalog() []ShopItem {
	return []ShopItem{
		{
			Key:      "trigger_word",
			Name:     "Trigger Word",
			Category: CategoryEffects,
			Kind:     ItemEffect,
			Price:    decimal.NewFromInt(500),
			Duration: 24 * time.Hour,
		},
		{
			Key:      "vip",
			Name:     "VIP",
			Category: CategoryStatus,
			Kind:     ItemVIP,
			Price:    decimal.NewFromInt(1000),
		},
		{
			Key:      "title_majesty",
			Name:     "Title: Ваша Величність",
			Category: CategoryStatus,
			Kind:     ItemTitle,
			Price:    decimal.NewFromInt(200),
			Title:    "Ваша Величність",
		},
		{
			Key:      "title_crypto_king",
			Name:     "Title: Крипто-король",
			Category: CategoryStatus,
			Kind:     ItemTitle,
			Price:    decimal.NewFromInt(300),
			Title:    "Крипто-король",
		},
	}
}

// ShopService sells cosmetic items. Prices are burned.
type ShopService struct {
	store   repository.Store
	catalog []ShopItem
	now     func() time.Time
	log     *slog.Logger
}

func NewShopService(store repository.Store, catalog []ShopItem) *ShopService {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &ShopService{
		store:   store,
		catalog: catalog,
		now:     time.Now,
		log:     logger.With("component", "shop"),
	}
}

func (s *ShopService) Catalog() []ShopItem {
	out := make([]ShopItem, len(s.catalog))
	copy(out, s.catalog)
	return out
}

func (s *ShopService) Item(key string) (ShopItem, error) {
	for _, it := range s.catalog {
		if it.Key == key {
			return it, nil
		}
	}
	return ShopItem{}, domain.ErrItemNotFound
}

// Categories returns catalog categories in catalog order.
func (s *ShopService) Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, it := range s.catalog {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	return out
}

// Purchase is the result of a successful purchase.
type Purchase struct {
	Item    ShopItem              `json:"item"`
	Balance decimal.Decimal       `json:"balance"`
	Granted *domain.InventoryItem `json:"granted,omitempty"`
}

// Purchase debits the item price and applies the item. word is the trigger
// word for effect items and ignored otherwise.
func (s *ShopService) Purchase(ctx context.Context, userID int64, key, word string) (*Purchase, error) {
	item, err := s.Item(key)
	if err != nil {
		return nil, err
	}
	if item.Kind == ItemEffect {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" || strings.HasPrefix(word, "/") || utf8.RuneCountInString(word) > maxTriggerWordLen {
			return nil, domain.ErrInvalidWord
		}
	}

	out := &Purchase{Item: item}
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		users, err := tx.LockUsers(ctx, userID)
		if err != nil {
			return err
		}
		u := users[userID]
		switch item.Kind {
		case ItemVIP:
			if u.VIP {
				return domain.ErrAlreadyOwned
			}
		case ItemTitle:
			if u.Title == item.Title {
				return domain.ErrAlreadyOwned
			}
		}
		if u.Balance.LessThan(item.Price) {
			return domain.ErrInsufficientFunds
		}
		if out.Balance, err = tx.AddBalance(ctx, userID, item.Price.Neg()); err != nil {
			return err
		}

		switch item.Kind {
		case ItemVIP:
			err = tx.SetVIP(ctx, userID, true)
		case ItemTitle:
			err = tx.SetTitle(ctx, userID, item.Title)
		case ItemEffect:
			now := s.now().UTC()
			inv := &domain.InventoryItem{
				UserID:    userID,
				Category:  item.Category,
				ItemName:  word,
				CreatedAt: now,
			}
			if item.Duration > 0 {
				exp := now.Add(item.Duration)
				inv.ExpiresAt = &exp
			}
			err = tx.AddInventory(ctx, inv)
			out.Granted = inv
		}
		if err != nil {
			return err
		}
		return audit(ctx, tx, userID, domain.AuditActionPurchase, domain.AuditCategoryShop, map[string]interface{}{
			"item":  item.Key,
			"price": item.Price.String(),
		})
	})
	if err != nil {
		return nil, observe(ctx, "purchase", err)
	}
	s.log.Info("item purchased", "user_id", userID, "item", item.Key)
	return out, nil
}

// Inventory lists the user's unexpired items.
func (s *ShopService) Inventory(ctx context.Context, userID int64) ([]*domain.InventoryItem, error) {
	var items []*domain.InventoryItem
	now := s.now()
	err := s.store.View(ctx, func(tx repository.Tx) error {
		all, err := tx.ListInventory(ctx, userID)
		if err != nil {
			return err
		}
		for _, it := range all {
			if it.Active(now) {
				items = append(items, it)
			}
		}
		return nil
	})
	return items, err
}

// MatchTrigger returns the first active trigger word contained in text.
// Commands never match.
func (s *ShopService) MatchTrigger(ctx context.Context, text string) (*domain.InventoryItem, bool, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || strings.HasPrefix(text, "/") {
		return nil, false, nil
	}
	var match *domain.InventoryItem
	err := s.store.View(ctx, func(tx repository.Tx) error {
		items, err := tx.ListActiveByCategory(ctx, CategoryEffects)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.ItemName != "" && strings.Contains(text, strings.ToLower(it.ItemName)) {
				match = it
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return match, match != nil, nil
}
