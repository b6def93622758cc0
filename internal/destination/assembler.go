package destination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// weatherFetcher is the interface satisfied by WeatherClient.
type weatherFetcher interface {
	Fetch(ctx context.Context, place string) (*WeatherData, error)
}

// attractionLister returns a non-empty attraction list for a place. It never fails.
type attractionLister interface {
	Attractions(ctx context.Context, place string) []string
}

// locationResolver is the interface satisfied by Resolver.
type locationResolver interface {
	Resolve(ctx context.Context, cand LocationCandidate) (*ResolvedLocation, error)
}

// Assembler builds one Record per candidate.
type Assembler struct {
	resolver    locationResolver
	weather     weatherFetcher
	attractions attractionLister
	log         *slog.Logger
}

// NewAssembler constructs an Assembler.
func NewAssembler(resolver locationResolver, weather weatherFetcher, attractions attractionLister, log *slog.Logger) *Assembler {
	return &Assembler{
		resolver:    resolver,
		weather:     weather,
		attractions: attractions,
		log:         log.With("component", "destination.assembler"),
	}
}

// AssembleAll processes candidates one after another and returns the records
// that assembled, in candidate order. Skipped candidates are logged and omitted.
func (a *Assembler) AssembleAll(ctx context.Context, cands []LocationCandidate) []Record {
	records := make([]Record, 0, len(cands))
	for _, cand := range cands {
		out := a.Assemble(ctx, cand)
		if out.Skipped() {
			continue
		}
		records = append(records, *out.Record)
	}
	return records
}

// Assemble resolves the candidate, then fetches weather and attractions in
// parallel. It never returns an error: any failure yields a skipped Outcome.
func (a *Assembler) Assemble(ctx context.Context, cand LocationCandidate) (out Outcome) {
	out.Candidate = cand
	log := a.log.With("candidate", cand.Name, "type", string(cand.Type))

	defer func() {
		if r := recover(); r != nil {
			log.Error("assembly panicked", "op", "assemble", "recover", r)
			out.Record = nil
			out.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	loc, err := a.resolver.Resolve(ctx, cand)
	if err != nil {
		if errors.Is(err, ErrUnresolvable) {
			log.Info("candidate skipped", "op", "resolve", "reason", err)
		} else {
			log.Warn("candidate dropped", "op", "resolve", "err", err)
		}
		out.Reason = err.Error()
		return out
	}

	var (
		weather     *WeatherData
		attractions []string
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("weather fetch panicked: %v", r)
			}
		}()
		wd, fetchErr := a.weather.Fetch(gCtx, loc.DisplayName)
		if fetchErr != nil {
			return fmt.Errorf("weather for %s: %w", loc.DisplayName, fetchErr)
		}
		weather = wd
		return nil
	})

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				log.Error("attractions lookup panicked", "op", "attractions", "recover", r)
				attractions = nil
			}
		}()
		attractions = a.attractions.Attractions(gCtx, loc.DisplayName)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Warn("candidate dropped", "op", "enrich", "err", err)
		out.Reason = err.Error()
		return out
	}
	if weather == nil {
		out.Reason = "weather fetch returned no data"
		log.Warn("candidate dropped", "op", "weather", "reason", out.Reason)
		return out
	}
	if len(attractions) == 0 {
		attractions = FallbackAttractions()
	}

	out.Record = &Record{
		Name:        loc.DisplayName,
		Capital:     loc.Subtext,
		Flag:        loc.FlagURL,
		Currency:    loc.CurrencyName,
		LatLng:      [2]float64{loc.Coordinates.Lat, loc.Coordinates.Lon},
		Weather:     *weather,
		Attractions: attractions,
	}
	return out
}
