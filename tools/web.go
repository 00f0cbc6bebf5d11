package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/toolgate/registry"
	"github.com/jonwraymond/toolgate/resilience"
)

// Default endpoints for the public APIs behind the web tools.
const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultCryptoURL    = "https://api.coingecko.com/api/v3/simple/price"
)

// WebConfig configures the outbound client shared by the weather and
// price tools.
type WebConfig struct {
	// GeocodingURL, ForecastURL and CryptoURL override the public
	// endpoints, mainly for tests.
	GeocodingURL string
	ForecastURL  string
	CryptoURL    string

	// Timeout bounds one attempt. Default: 10 seconds.
	Timeout time.Duration

	// MaxAttempts is how often a failed call is tried in total.
	// Default: 3.
	MaxAttempts int

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// WebClient calls the public APIs behind the weather and price tools.
// Every call runs behind a shared circuit breaker with bounded retries
// and a per-attempt deadline.
type WebClient struct {
	cfg        WebConfig
	httpClient *http.Client
	exec       *resilience.Executor
}

// NewWebClient builds a client, applying defaults for unset fields.
func NewWebClient(cfg WebConfig) *WebClient {
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = DefaultGeocodingURL
	}
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = DefaultForecastURL
	}
	if cfg.CryptoURL == "" {
		cfg.CryptoURL = DefaultCryptoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	exec := resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: 250 * time.Millisecond,
		})),
		resilience.WithTimeout(cfg.Timeout),
	)

	return &WebClient{cfg: cfg, httpClient: httpClient, exec: exec}
}

// Conditions is the current weather at a geocoded location.
type Conditions struct {
	Location     string
	CountryCode  string
	Latitude     float64
	Longitude    float64
	TemperatureC float64
	WindSpeedKmh float64
}

// CurrentWeather geocodes location by name and returns its current
// conditions. An unknown location is an error.
func (c *WebClient) CurrentWeather(ctx context.Context, location string) (*Conditions, error) {
	var geo struct {
		Results []struct {
			Name        string  `json:"name"`
			CountryCode string  `json:"country_code"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
		} `json:"results"`
	}
	params := url.Values{}
	params.Set("name", location)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")
	if err := c.getJSON(ctx, c.cfg.GeocodingURL, params, &geo); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", location, err)
	}
	if len(geo.Results) == 0 {
		return nil, fmt.Errorf("location %q could not be found", location)
	}

	hit := geo.Results[0]
	name := hit.Name
	if name == "" {
		name = location
	}

	var forecast struct {
		CurrentWeather *struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
		} `json:"current_weather"`
	}
	params = url.Values{}
	params.Set("latitude", strconv.FormatFloat(hit.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(hit.Longitude, 'f', -1, 64))
	params.Set("current_weather", "true")
	if err := c.getJSON(ctx, c.cfg.ForecastURL, params, &forecast); err != nil {
		return nil, fmt.Errorf("fetching forecast for %q: %w", location, err)
	}
	if forecast.CurrentWeather == nil {
		return nil, fmt.Errorf("no current weather data for %q", location)
	}

	return &Conditions{
		Location:     name,
		CountryCode:  hit.CountryCode,
		Latitude:     hit.Latitude,
		Longitude:    hit.Longitude,
		TemperatureC: forecast.CurrentWeather.Temperature,
		WindSpeedKmh: forecast.CurrentWeather.WindSpeed,
	}, nil
}

// BitcoinSpot returns the Bitcoin price in the given fiat currency.
// An unsupported currency is an error.
func (c *WebClient) BitcoinSpot(ctx context.Context, currency string) (float64, error) {
	currency = strings.ToLower(currency)

	var quote map[string]map[string]float64
	params := url.Values{}
	params.Set("ids", "bitcoin")
	params.Set("vs_currencies", currency)
	if err := c.getJSON(ctx, c.cfg.CryptoURL, params, &quote); err != nil {
		return 0, fmt.Errorf("fetching bitcoin price: %w", err)
	}

	price, ok := quote["bitcoin"][currency]
	if !ok {
		return 0, fmt.Errorf("no bitcoin price for currency %q, it may not be supported", currency)
	}
	return price, nil
}

// getJSON performs one resilient GET and decodes the JSON response.
func (c *WebClient) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	return c.exec.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// WeatherForecast returns the weather tool backed by client.
func WeatherForecast(client *WebClient) registry.Tool {
	return registry.Tool{
		Name:        "get_weather_forecast",
		Description: "Current weather for a location given by name, such as \"Paris, France\" or \"Tokyo\".",
		InputSchema: objectSchema(map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "Place name to look up.",
			},
		}, "location"),
		Effect: registry.EffectReadOnly,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			location := stringArg(args, "location", "")
			conditions, err := client.CurrentWeather(ctx, location)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"status":              "success",
				"location":            conditions.Location,
				"country_code":        conditions.CountryCode,
				"latitude":            fmt.Sprintf("%.4f", conditions.Latitude),
				"longitude":           fmt.Sprintf("%.4f", conditions.Longitude),
				"temperature_celsius": conditions.TemperatureC,
				"wind_speed_kmh":      conditions.WindSpeedKmh,
				"summary": fmt.Sprintf("Current weather for %s: Temperature is %g°C with wind speeds of %g km/h.",
					conditions.Location, conditions.TemperatureC, conditions.WindSpeedKmh),
			}, nil
		},
	}
}

// BitcoinPrice returns the price tool backed by client.
func BitcoinPrice(client *WebClient) registry.Tool {
	return registry.Tool{
		Name:        "get_bitcoin_price",
		Description: "Current Bitcoin price in a fiat currency such as usd, eur or jpy.",
		InputSchema: objectSchema(map[string]any{
			"currency": map[string]any{
				"type":        "string",
				"description": "Fiat currency code. Defaults to usd.",
			},
		}),
		Effect: registry.EffectReadOnly,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			currency := stringArg(args, "currency", "usd")
			price, err := client.BitcoinSpot(ctx, currency)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"status":   "success",
				"coin":     "Bitcoin",
				"currency": strings.ToUpper(currency),
				"price":    price,
			}, nil
		},
	}
}
