// Package recommend asks a generative model for destination candidates and
// attraction lists.
package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neexbeast/budgettrip/internal/destination"
	"github.com/neexbeast/budgettrip/internal/llm"
)

// Requester wraps the generative model with budget-tier prompts and
// tolerant response parsing.
type Requester struct {
	gen  llm.Generator
	norm *Normalizer
	log  *slog.Logger
}

// NewRequester constructs a Requester.
func NewRequester(gen llm.Generator, norm *Normalizer, log *slog.Logger) *Requester {
	return &Requester{gen: gen, norm: norm, log: log.With("component", "recommend.requester")}
}

// Recommend returns up to five candidates for the query. Any failure,
// including a panic in the model client, yields an empty list.
func (r *Requester) Recommend(ctx context.Context, q destination.BudgetQuery) (cands []destination.LocationCandidate) {
	q = q.Normalize()
	log := r.log.With("budget", q.Budget, "currency", q.Currency)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("recommendation panicked", "op", "recommend", "recover", rec)
			cands = []destination.LocationCandidate{}
		}
	}()

	usdApprox := r.norm.ToUSD(ctx, q.Budget, q.Currency)
	prompt := buildRecommendationPrompt(q.Budget, q.Currency, usdApprox)

	raw, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		log.Error("recommendation request failed", "op", "recommend", "err", err)
		return []destination.LocationCandidate{}
	}

	cands, err = parseCandidates(raw)
	if err != nil {
		log.Error("recommendation response unusable", "op", "recommend", "err", err)
		return []destination.LocationCandidate{}
	}

	log.Debug("recommendations received", "count", len(cands))
	return cands
}

// Attractions returns up to three attraction names for place, or the fixed
// fallback list on any failure. It never panics past its boundary.
func (r *Requester) Attractions(ctx context.Context, place string) (out []string) {
	log := r.log.With("candidate", place)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("attractions lookup panicked", "op", "attractions", "recover", fmt.Sprint(rec))
			out = destination.FallbackAttractions()
		}
	}()

	raw, err := r.gen.Generate(ctx, buildAttractionsPrompt(place))
	if err != nil {
		log.Warn("attractions request failed, using fallback", "op", "attractions", "err", err)
		return destination.FallbackAttractions()
	}

	items, err := parseAttractions(raw)
	if err != nil {
		log.Warn("attractions response unusable, using fallback", "op", "attractions", "err", err)
		return destination.FallbackAttractions()
	}
	return items
}
