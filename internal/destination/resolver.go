package destination

import (
	"context"
	"fmt"
)

// countriesFetcher is the interface satisfied by CountriesClient.
type countriesFetcher interface {
	Fetch(ctx context.Context, country string) (*CountryData, error)
}

// geocoder is the interface satisfied by GeoClient.
type geocoder interface {
	Geocode(ctx context.Context, query string) (*Coordinates, error)
}

// Resolver turns a candidate into concrete coordinates, flag, and currency.
type Resolver struct {
	countries countriesFetcher
	geo       geocoder
}

// NewResolver constructs a Resolver from its two lookups.
func NewResolver(countries countriesFetcher, geo geocoder) *Resolver {
	return &Resolver{countries: countries, geo: geo}
}

// Resolve looks up the candidate's country, then geocodes the city or takes
// the capital's coordinates. Every step must succeed; a missing piece of data
// is reported as ErrUnresolvable, a transport failure as a plain error.
func (r *Resolver) Resolve(ctx context.Context, cand LocationCandidate) (*ResolvedLocation, error) {
	country, err := r.countries.Fetch(ctx, cand.CountryName())
	if err != nil {
		return nil, fmt.Errorf("country lookup for %s: %w", cand.Name, err)
	}

	loc := &ResolvedLocation{
		FlagURL:      country.FlagURL,
		CurrencyName: country.CurrencyName,
	}

	switch cand.Type {
	case TypeCity:
		coords, err := r.geo.Geocode(ctx, cand.Name+","+country.Alpha2)
		if err != nil {
			return nil, fmt.Errorf("geocoding %s: %w", cand.Name, err)
		}
		loc.DisplayName = cand.Name
		loc.Subtext = country.CommonName
		loc.Coordinates = *coords

	case TypeCountry:
		if country.Capital == "" || len(country.CapitalLatLng) < 2 {
			return nil, fmt.Errorf("country %s has no capital coordinates: %w", cand.Name, ErrUnresolvable)
		}
		loc.DisplayName = country.Capital
		loc.Subtext = country.Capital
		loc.Coordinates = Coordinates{Lat: country.CapitalLatLng[0], Lon: country.CapitalLatLng[1]}

	default:
		return nil, fmt.Errorf("candidate %s has unknown type %q: %w", cand.Name, cand.Type, ErrUnresolvable)
	}

	return loc, nil
}
