package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_trades_total",
			Help: "Executed trades by side",
		},
		[]string{"kind"},
	)
	TradeValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_trade_value_total",
			Help: "Sum of trade cost/proceeds by side",
		},
		[]string{"kind"},
	)
	CoinsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_coins_created_total",
			Help: "Coins minted by tier",
		},
		[]string{"tier"},
	)
	GamesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_games_total",
			Help: "Resolved games by type and result",
		},
		[]string{"game", "result"},
	)
	LedgerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_errors_total",
			Help: "Failed units of work by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(TradesTotal)
	prometheus.MustRegister(TradeValue)
	prometheus.MustRegister(CoinsCreated)
	prometheus.MustRegister(GamesTotal)
	prometheus.MustRegister(LedgerErrors)
}
