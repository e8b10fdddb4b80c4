// Package plantid is a client for the Plant.id identification API: it sends
// a base64-encoded photo and returns species suggestions ranked by
// confidence.
package plantid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.plant.id/v2"
	serviceName    = "plantid"
)

// ErrNoAPIKey is returned by New when no key is configured.
var ErrNoAPIKey = errors.New("plant.id API key not set")

// Suggestion is one candidate species.
type Suggestion struct {
	Name            string   `json:"name"`
	Probability     float64  `json:"probability"`
	CommonNames     []string `json:"commonNames,omitempty"`
	WikiDescription string   `json:"wikiDescription,omitempty"`
	WikiImageURL    string   `json:"wikiImageUrl,omitempty"`
}

// Genus is the first word of the scientific name.
func (s Suggestion) Genus() string {
	genus, _, _ := strings.Cut(strings.TrimSpace(s.Name), " ")
	return genus
}

// Confidence formats Probability as a percentage with one decimal, or ""
// when the API gave none.
func (s Suggestion) Confidence() string {
	if s.Probability == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f%%", s.Probability*100)
}

// Identification is the decoded API answer.
type Identification struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Top returns the most likely suggestion, or nil when there is none.
func (i *Identification) Top() *Suggestion {
	if i == nil || len(i.Suggestions) == 0 {
		return nil
	}
	s := i.Suggestions[0]
	return &s
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	config     Config
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// New creates a client. A zero BaseURL or Timeout falls back to defaults.
func New(cfg Config, m *metrics.Metrics) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
	}, nil
}

type apiRequest struct {
	Images       []string `json:"images"`
	PlantDetails []string `json:"plant_details"`
}

type apiResponse struct {
	Suggestions []struct {
		PlantName    string  `json:"plant_name"`
		Probability  float64 `json:"probability"`
		PlantDetails *struct {
			CommonNames     []string `json:"common_names"`
			WikiDescription *struct {
				Value string `json:"value"`
			} `json:"wiki_description"`
			WikiImage *struct {
				Value string `json:"value"`
			} `json:"wiki_image"`
		} `json:"plant_details"`
	} `json:"suggestions"`
}

// Identify sends one base64-encoded image (no data: prefix).
func (c *Client) Identify(ctx context.Context, imageBase64 string) (*Identification, error) {
	if imageBase64 == "" {
		return nil, fmt.Errorf("%w: empty image", common.ErrorValidation)
	}

	body, err := json.Marshal(apiRequest{
		Images:       []string{imageBase64},
		PlantDetails: []string{"common_names", "wiki_description", "wiki_image"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/identify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.config.APIKey)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(serviceName, metrics.OutcomeError, time.Since(started))
		return nil, fmt.Errorf("%w: plant.id request: %v", common.ErrorUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveUpstream(serviceName, metrics.OutcomeError, time.Since(started))
		return nil, fmt.Errorf("%w: read plant.id response: %v", common.ErrorUpstream, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.metrics.ObserveUpstream(serviceName, metrics.OutcomeError, time.Since(started))
		return nil, fmt.Errorf("%w: plant.id status %d: %s", common.ErrorUpstream, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		c.metrics.ObserveUpstream(serviceName, metrics.OutcomeError, time.Since(started))
		return nil, fmt.Errorf("%w: decode plant.id response: %v", common.ErrorUpstream, err)
	}
	c.metrics.ObserveUpstream(serviceName, metrics.OutcomeOK, time.Since(started))

	return toIdentification(apiResp), nil
}

func toIdentification(r apiResponse) *Identification {
	out := &Identification{Suggestions: make([]Suggestion, 0, len(r.Suggestions))}
	for _, s := range r.Suggestions {
		sug := Suggestion{Name: s.PlantName, Probability: s.Probability}
		if d := s.PlantDetails; d != nil {
			sug.CommonNames = d.CommonNames
			if d.WikiDescription != nil {
				sug.WikiDescription = d.WikiDescription.Value
			}
			if d.WikiImage != nil {
				sug.WikiImageURL = d.WikiImage.Value
			}
		}
		out.Suggestions = append(out.Suggestions, sug)
	}
	return out
}
