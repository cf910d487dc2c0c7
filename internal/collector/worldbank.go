// Package collector gathers upstream datasets into the raw data directory
// and writes the data catalog and collection report.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"infra-etl/internal/domain"
)

// Query window and page size for indicator requests. The window covers the
// years the transform stage keeps.
const (
	dateRange = "2010:2023"
	perPage   = 5000
)

// breakerTrip is the consecutive-failure count that opens the circuit.
const breakerTrip = 3

// Observation is one indicator value for a country and year.
type Observation struct {
	CountryName string
	CountryCode string
	Year        int
	Value       float64
}

// WorldBankClient fetches indicator observations from the World Bank API.
// Calls are rate limited client-side and wrapped in a circuit breaker so a
// dead upstream short-circuits the remaining indicators instead of timing
// out one by one.
type WorldBankClient struct {
	baseURL string
	http    *http.Client
	rl      *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewWorldBankClient creates a client for the given API base URL. rps is
// the sustained request rate.
func NewWorldBankClient(baseURL string, timeout time.Duration, rps float64, logger *slog.Logger) *WorldBankClient {
	return &WorldBankClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		rl:      rate.NewLimiter(rate.Limit(rps), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "worldbank",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTrip
			},
		}),
		logger: logger.With("component", "worldbank"),
	}
}

// FetchIndicator downloads all observations for one indicator in the query
// window. Rows without a value are dropped.
func (c *WorldBankClient) FetchIndicator(ctx context.Context, ind domain.Indicator) ([]Observation, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/country/all/indicator/%s?format=json&date=%s&per_page=%d",
		c.baseURL, url.PathEscape(ind.Code), dateRange, perPage)
	c.logger.Debug("fetching indicator", "indicator", ind.Code, "url", endpoint)

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ind.Code, err)
	}
	return parseObservations(body.([]byte))
}

func (c *WorldBankClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// The API responds with a two-element array: page metadata, then rows. The
// rows element is JSON null for unknown indicators.
type wbRow struct {
	Country struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"country"`
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

func parseObservations(body []byte) ([]Observation, error) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope) < 2 {
		return nil, fmt.Errorf("response carries no data element")
	}

	var rows []wbRow
	if err := json.Unmarshal(envelope[1], &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	var obs []Observation
	for _, r := range rows {
		if r.Value == nil {
			continue
		}
		year, err := strconv.Atoi(r.Date)
		if err != nil {
			// Quarterly and monthly observations use non-numeric dates.
			continue
		}
		obs = append(obs, Observation{
			CountryName: r.Country.Value,
			CountryCode: r.CountryISO3,
			Year:        year,
			Value:       *r.Value,
		})
	}
	return obs, nil
}
