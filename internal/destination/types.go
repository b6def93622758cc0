package destination

import (
	"errors"
	"strings"
)

// LocationType distinguishes city candidates from country candidates.
type LocationType string

const (
	TypeCity    LocationType = "city"
	TypeCountry LocationType = "country"
)

// DefaultCurrency is used when a query carries no currency code.
const DefaultCurrency = "USD"

// BudgetQuery is a single request for suggestions.
// Budget is taken literally; sign and range are not validated.
type BudgetQuery struct {
	Budget   int64
	Currency string
}

// Normalize upper-cases the currency and applies the USD default.
func (q BudgetQuery) Normalize() BudgetQuery {
	c := strings.ToUpper(strings.TrimSpace(q.Currency))
	if c == "" {
		c = DefaultCurrency
	}
	return BudgetQuery{Budget: q.Budget, Currency: c}
}

// LocationCandidate is a place proposed by the generative model.
// Country is required when Type is TypeCity.
type LocationCandidate struct {
	Name    string       `json:"name"`
	Type    LocationType `json:"type"`
	Country string       `json:"country,omitempty"`
}

// CountryName returns the name to look the candidate up by.
func (c LocationCandidate) CountryName() string {
	if c.Type == TypeCountry {
		return strings.TrimSpace(c.Name)
	}
	return strings.TrimSpace(c.Country)
}

// CountryData is the subset of a country record the resolver needs.
type CountryData struct {
	CommonName    string
	Alpha2        string
	Capital       string
	CapitalLatLng []float64
	FlagURL       string
	CurrencyName  string
}

// Coordinates is a (lat, lon) pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// ResolvedLocation is the outcome of a successful resolution. There is no
// partially resolved location: a failed step yields an error instead.
type ResolvedLocation struct {
	DisplayName  string
	Subtext      string
	Coordinates  Coordinates
	FlagURL      string
	CurrencyName string
}

// WeatherData holds current conditions for a place.
type WeatherData struct {
	Temperature float64 `json:"temp"`
	Description string  `json:"description"`
}

// Record is one destination card in the response.
type Record struct {
	Name        string      `json:"name"`
	Capital     string      `json:"capital"`
	Flag        string      `json:"flag"`
	Currency    string      `json:"currency"`
	LatLng      [2]float64  `json:"latlng"`
	Weather     WeatherData `json:"weather"`
	Attractions []string    `json:"attractions"`
}

// Outcome is the per-candidate result of assembly: either Record is set, or
// the candidate was skipped and Reason says why.
type Outcome struct {
	Candidate LocationCandidate
	Record    *Record
	Reason    string
}

// Skipped reports whether the candidate produced no record.
func (o Outcome) Skipped() bool { return o.Record == nil }

// ErrUnresolvable marks a candidate that cannot be turned into a location:
// unknown country, geocode miss, or missing capital data.
var ErrUnresolvable = errors.New("location unresolvable")

// NotAvailable is the currency name used when a country lists none.
const NotAvailable = "N/A"

// FallbackAttractions is the list used whenever an attraction lookup fails.
func FallbackAttractions() []string {
	return []string{"Famous landmarks", "Local markets"}
}
