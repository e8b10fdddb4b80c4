// Package perenual looks up horticultural care facts for a species name
// through the Perenual species-list API.
//
// Answers, including "no such species", are cached in memory per name so
// that repeated identifications of the same plant do not spend the API's
// small free-tier quota.
package perenual

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dmitrijs2005/bloombuddy/internal/care"
	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/metrics"
)

const (
	DefaultBaseURL = "https://perenual.com/api"
	serviceName    = "perenual"
)

// Species is the first species-list match for a query.
type Species struct {
	ID             int        `json:"id"`
	CommonName     string     `json:"common_name"`
	ScientificName []string   `json:"scientific_name"`
	Cycle          string     `json:"cycle,omitempty"`
	Watering       care.Value `json:"watering"`
	Sunlight       care.Value `json:"sunlight"`
	Humidity       care.Value `json:"humidity"`
	Description    care.Value `json:"description"`
}

// Facts extracts the care attributes.
func (s *Species) Facts() *care.Facts {
	if s == nil {
		return nil
	}
	return &care.Facts{
		Sunlight:    s.Sunlight,
		Watering:    s.Watering,
		Humidity:    s.Humidity,
		Description: s.Description,
	}
}

type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	metrics    *metrics.Metrics
	logger     logging.Logger
}

// New creates a client. An empty APIKey is allowed: lookups then report no
// match without calling the API.
func New(cfg Config, m *metrics.Metrics, l logging.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if l == nil {
		l = logging.Nop{}
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		metrics:    m,
		logger:     l.With("module", serviceName),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.config.APIKey != "" }

type listResponse struct {
	Data []Species `json:"data"`
}

// Lookup returns the first species matching name, or nil when nothing
// matches, the API key is missing, or the API answers with a non-200 status.
// Only transport and decoding failures are errors.
func (c *Client) Lookup(ctx context.Context, name string) (*Species, error) {
	name = strings.TrimSpace(name)
	if name == "" || !c.Enabled() {
		return nil, nil
	}

	key := strings.ToLower(name)
	if cached, found := c.cache.Get(key); found {
		if sp, ok := cached.(*Species); ok {
			c.metrics.CacheHit()
			return sp, nil
		}
	}
	c.metrics.CacheMiss()

	sp, cacheable, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.cache.Set(key, sp, cache.DefaultExpiration)
	}
	return sp, nil
}

func (c *Client) fetch(ctx context.Context, name string) (*Species, bool, error) {
	q := url.Values{}
	q.Set("key", c.config.APIKey)
	q.Set("q", name)
	endpoint := c.config.BaseURL + "/species-list?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(serviceName, metrics.OutcomeError, time.Since(started))
		return nil, false, fmt.Errorf("%w: perenual request: %v", common.ErrorUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Quota exhaustion and the like: treated as "no match" but not
		// remembered, so a later call can succeed.
		_, _ = io.Copy(io.Discard, resp.Body)
		c.metrics.ObserveUpstream(serviceName, metrics.OutcomeError, time.Since(started))
		c.logger.Warn(ctx, "species lookup failed", "query", name, "status", resp.StatusCode)
		return nil, false, nil
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		c.metrics.ObserveUpstream(serviceName, metrics.OutcomeError, time.Since(started))
		return nil, false, fmt.Errorf("%w: decode perenual response: %v", common.ErrorUpstream, err)
	}

	if len(list.Data) == 0 {
		c.metrics.ObserveUpstream(serviceName, metrics.OutcomeNotFound, time.Since(started))
		return nil, true, nil
	}
	c.metrics.ObserveUpstream(serviceName, metrics.OutcomeOK, time.Since(started))

	sp := list.Data[0]
	return &sp, true, nil
}

// LookupFirst tries names in order and returns the first match. It stops at
// the first error.
func (c *Client) LookupFirst(ctx context.Context, names []string) (*Species, error) {
	for _, n := range names {
		sp, err := c.Lookup(ctx, n)
		if err != nil {
			return nil, err
		}
		if sp != nil {
			return sp, nil
		}
	}
	return nil, nil
}

// SearchNames builds the lookup order for an identified plant: the
// scientific name, each common name, then the genus. Empty entries are
// dropped.
func SearchNames(scientificName string, commonNames []string) []string {
	genus, _, _ := strings.Cut(strings.TrimSpace(scientificName), " ")

	out := make([]string, 0, len(commonNames)+2)
	for _, n := range append(append([]string{scientificName}, commonNames...), genus) {
		if strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	return out
}
