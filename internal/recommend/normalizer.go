package recommend

import (
	"context"
	"log/slog"
	"strings"
)

const usd = "USD"

// rateFetcher is the interface satisfied by destination.ExchangeClient.
type rateFetcher interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// Normalizer converts a budget into an approximate USD figure for prompt text.
type Normalizer struct {
	rates rateFetcher
	log   *slog.Logger
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer(rates rateFetcher, log *slog.Logger) *Normalizer {
	return &Normalizer{rates: rates, log: log.With("component", "recommend.normalizer")}
}

// ToUSD returns budget converted to USD. USD budgets are returned unchanged
// without a lookup; on lookup failure the literal budget is returned.
func (n *Normalizer) ToUSD(ctx context.Context, budget int64, currency string) float64 {
	amount := float64(budget)
	if strings.EqualFold(currency, usd) {
		return amount
	}

	rate, err := n.rates.Rate(ctx, currency, usd)
	if err != nil {
		n.log.Warn("currency conversion failed, using unconverted budget",
			"op", "exchange_rate", "currency", currency, "err", err)
		return amount
	}
	return amount * rate
}
