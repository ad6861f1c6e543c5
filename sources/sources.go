package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/iCorv/covid-19-data-explorer/explorer"
)

// Data from Johns Hopkins University (https://github.com/CSSEGISandData/COVID-19)
const defaultBaseURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series"

// The five time series files we consume
const (
	fileGlobalConfirmed = "time_series_covid19_confirmed_global.csv"
	fileGlobalDeaths    = "time_series_covid19_deaths_global.csv"
	fileGlobalRecovered = "time_series_covid19_recovered_global.csv"
	fileUSConfirmed     = "time_series_covid19_confirmed_US.csv"
	fileUSDeaths        = "time_series_covid19_deaths_US.csv"
)

// Config holds the retrieval settings
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Retries  int
	CacheTTL time.Duration
}

// DefaultConfig returns the default retrieval settings
// the source files update once a day so an hour of caching is comfortable
func DefaultConfig() Config {
	return Config{
		BaseURL:  defaultBaseURL,
		Timeout:  30 * time.Second,
		Retries:  3,
		CacheTTL: time.Hour,
	}
}

// Client fetches the raw source tables over http.
// Responses are cached for the configured TTL keyed on a fingerprint of the
// url and the TTL window, so the pipeline itself can stay a pure function of
// its table arguments.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient returns a client for the source repository
func NewClient(config Config) *Client {

	// Use defaults for missing config values
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.Retries == 0 {
		config.Retries = DefaultConfig().Retries
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: cache.New(config.CacheTTL, config.CacheTTL*2),
	}
}

// FetchAll downloads the five source tables
func (c *Client) FetchAll(ctx context.Context) (explorer.Input, error) {

	var in explorer.Input
	var err error

	if in.GlobalConfirmed, err = c.fetchCSV(ctx, fileGlobalConfirmed); err != nil {
		return in, err
	}
	if in.GlobalDeaths, err = c.fetchCSV(ctx, fileGlobalDeaths); err != nil {
		return in, err
	}
	if in.GlobalRecovered, err = c.fetchCSV(ctx, fileGlobalRecovered); err != nil {
		return in, err
	}
	if in.USConfirmed, err = c.fetchCSV(ctx, fileUSConfirmed); err != nil {
		return in, err
	}
	if in.USDeaths, err = c.fetchCSV(ctx, fileUSDeaths); err != nil {
		return in, err
	}

	return in, nil
}

// fetchCSV downloads one source file into csv rows, serving from cache when
// the same fingerprint was fetched within the TTL window
func (c *Client) fetchCSV(ctx context.Context, name string) ([][]string, error) {

	url := c.config.BaseURL + "/" + name
	key := c.fingerprint(url)

	if rows, found := c.cache.Get(key); found {
		log.Printf("sources: cache hit for:%s", name)
		return rows.([][]string), nil
	}

	rows, err := c.downloadCSV(ctx, url)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, rows, cache.DefaultExpiration)

	return rows, nil
}

// downloadCSV fetches one url with bounded retries
func (c *Client) downloadCSV(ctx context.Context, url string) ([][]string, error) {

	var lastErr error
	for attempt := 0; attempt < c.config.Retries; attempt++ {
		if attempt > 0 {
			// Back off before retrying, respecting cancellation
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		rows, err := c.download(ctx, url)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		log.Printf("sources: fetch attempt %d failed for:%s error:%s", attempt+1, url, err)
	}

	return nil, fmt.Errorf("sources: failed to fetch:%s error:%w", url, lastErr)
}

func (c *Client) download(ctx context.Context, url string) ([][]string, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sources: unexpected status:%d for:%s", resp.StatusCode, url)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// fingerprint keys a retrieval by url and TTL window, so a new window forces
// a refetch even if the old entry has not been evicted yet
func (c *Client) fingerprint(url string) string {
	window := time.Now().UTC().Truncate(c.config.CacheTTL).Unix()
	return fmt.Sprintf("%s@%d", url, window)
}
