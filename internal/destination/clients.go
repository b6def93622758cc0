package destination

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// StatusError is returned by doGet when the upstream answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err wraps a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// doGet performs a GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", redact(rawURL), err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", redact(rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: redact(rawURL), StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", redact(rawURL), err)
	}

	return nil
}

// redact strips the query string so API keys never reach logs.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// ---- OpenWeatherMap current weather ----

// WeatherClient fetches current weather from OpenWeatherMap.
type WeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const owmDefaultURL = "https://api.openweathermap.org/data/2.5/weather"

// NewWeatherClient constructs a WeatherClient with the given API key.
func NewWeatherClient(apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: owmDefaultURL, client: newHTTPClient()}
}

// NewWeatherClientWithURL constructs a WeatherClient pointing at a custom base URL (for tests).
func NewWeatherClientWithURL(baseURL, apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type owmResponse struct {
	Main *struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Fetch retrieves current metric weather for a free-text place name.
func (c *WeatherClient) Fetch(ctx context.Context, place string) (*WeatherData, error) {
	endpoint := c.baseURL + "?q=" + url.QueryEscape(place) + "&appid=" + url.QueryEscape(c.apiKey) + "&units=metric"

	var raw owmResponse
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("openweathermap fetch for %s: %w", place, err)
	}
	if raw.Main == nil {
		return nil, fmt.Errorf("openweathermap fetch for %s: response has no temperature", place)
	}

	description := ""
	if len(raw.Weather) > 0 {
		description = raw.Weather[0].Description
	}

	return &WeatherData{
		Temperature: raw.Main.Temp,
		Description: description,
	}, nil
}

// ---- OpenWeatherMap direct geocoding ----

// GeoClient resolves place queries to coordinates via OpenWeatherMap geocoding.
type GeoClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const owmGeoDefaultURL = "https://api.openweathermap.org/geo/1.0/direct"

// NewGeoClient constructs a GeoClient with the given API key.
func NewGeoClient(apiKey string) *GeoClient {
	return &GeoClient{apiKey: apiKey, baseURL: owmGeoDefaultURL, client: newHTTPClient()}
}

// NewGeoClientWithURL constructs a GeoClient pointing at a custom base URL (for tests).
func NewGeoClientWithURL(baseURL, apiKey string) *GeoClient {
	return &GeoClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type owmGeoEntry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocode returns the first match for query, or ErrUnresolvable when there is none.
func (c *GeoClient) Geocode(ctx context.Context, query string) (*Coordinates, error) {
	endpoint := c.baseURL + "?q=" + url.QueryEscape(query) + "&limit=1&appid=" + url.QueryEscape(c.apiKey)

	var raw []owmGeoEntry
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("openweathermap geocode for %s: %w", query, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("geocode %s: no results: %w", query, ErrUnresolvable)
	}

	return &Coordinates{Lat: raw[0].Lat, Lon: raw[0].Lon}, nil
}

// ---- RestCountries ----

// CountriesClient fetches country info from RestCountries (no API key required).
type CountriesClient struct {
	baseURL string
	client  *http.Client
}

const countriesDefaultURL = "https://restcountries.com/v3.1/name"

// NewCountriesClient constructs a CountriesClient.
func NewCountriesClient() *CountriesClient {
	return &CountriesClient{baseURL: countriesDefaultURL, client: newHTTPClient()}
}

// NewCountriesClientWithURL constructs a CountriesClient pointing at a custom base URL (for tests).
func NewCountriesClientWithURL(baseURL string) *CountriesClient {
	return &CountriesClient{baseURL: baseURL, client: newHTTPClient()}
}

type restCountriesEntry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	CCA2        string   `json:"cca2"`
	Capital     []string `json:"capital"`
	CapitalInfo struct {
		LatLng []float64 `json:"latlng"`
	} `json:"capitalInfo"`
	Flags struct {
		PNG string `json:"png"`
		SVG string `json:"svg"`
	} `json:"flags"`
	Currencies currencySet `json:"currencies"`
}

type currency struct {
	Code string `json:"-"`
	Name string `json:"name"`
}

// currencySet keeps the currencies object in document order.
type currencySet []currency

func (s *currencySet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("currencies: expected object, got %v", tok)
	}

	var out currencySet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		code, _ := keyTok.(string)

		var cur currency
		if err := dec.Decode(&cur); err != nil {
			return fmt.Errorf("currencies[%s]: %w", code, err)
		}
		cur.Code = code
		out = append(out, cur)
	}
	*s = out
	return nil
}

// Fetch retrieves the country whose common or official name equals the trimmed
// country argument exactly. A missing record is reported as ErrUnresolvable.
func (c *CountriesClient) Fetch(ctx context.Context, country string) (*CountryData, error) {
	name := strings.TrimSpace(country)
	if name == "" {
		return nil, fmt.Errorf("restcountries: empty country name: %w", ErrUnresolvable)
	}
	endpoint := c.baseURL + "/" + url.PathEscape(name) + "?fullText=true"

	var raw []restCountriesEntry
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("restcountries: no country named %s: %w", name, ErrUnresolvable)
		}
		return nil, fmt.Errorf("restcountries fetch for %s: %w", name, err)
	}

	for _, entry := range raw {
		if entry.Name.Common != name && entry.Name.Official != name {
			continue
		}
		return toCountryData(entry), nil
	}

	return nil, fmt.Errorf("restcountries: no exact match for %s: %w", name, ErrUnresolvable)
}

func toCountryData(entry restCountriesEntry) *CountryData {
	capital := ""
	if len(entry.Capital) > 0 {
		capital = entry.Capital[0]
	}

	flag := entry.Flags.PNG
	if flag == "" {
		flag = entry.Flags.SVG
	}

	return &CountryData{
		CommonName:    entry.Name.Common,
		Alpha2:        entry.CCA2,
		Capital:       capital,
		CapitalLatLng: entry.CapitalInfo.LatLng,
		FlagURL:       flag,
		CurrencyName:  firstCurrencyName(entry.Currencies),
	}
}

// firstCurrencyName returns the first listed currency, or NotAvailable.
func firstCurrencyName(currencies currencySet) string {
	if len(currencies) == 0 {
		return NotAvailable
	}
	if currencies[0].Name != "" {
		return currencies[0].Name
	}
	return currencies[0].Code
}

// ---- ExchangeRate-API ----

// ExchangeClient looks up currency conversion rates (no API key required).
type ExchangeClient struct {
	baseURL string
	client  *http.Client
}

const exchangeDefaultURL = "https://open.er-api.com/v6/latest"

// NewExchangeClient constructs an ExchangeClient.
func NewExchangeClient() *ExchangeClient {
	return &ExchangeClient{baseURL: exchangeDefaultURL, client: newHTTPClient()}
}

// NewExchangeClientWithURL constructs an ExchangeClient pointing at a custom base URL (for tests).
func NewExchangeClientWithURL(baseURL string) *ExchangeClient {
	return &ExchangeClient{baseURL: baseURL, client: newHTTPClient()}
}

type erAPIResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// Rate returns how many units of to one unit of from buys.
func (c *ExchangeClient) Rate(ctx context.Context, from, to string) (float64, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(strings.ToUpper(from))

	var raw erAPIResponse
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		return 0, fmt.Errorf("exchange rate %s->%s: %w", from, to, err)
	}
	if raw.Result != "" && raw.Result != "success" {
		return 0, fmt.Errorf("exchange rate %s->%s: result %q", from, to, raw.Result)
	}

	rate, ok := raw.Rates[strings.ToUpper(to)]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("exchange rate %s->%s: rate missing", from, to)
	}

	return rate, nil
}
