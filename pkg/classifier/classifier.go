// Package classifier talks to the external skill classification service.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"golang.org/x/time/rate"
)

// FallbackQualifier is the generic category used when the service cannot answer.
const FallbackQualifier = "Other"

// Classification is the classifier's verdict on a skill name.
type Classification struct {
	Qualifier   string   `json:"qualifier"`
	Qualifiers  []string `json:"qualifiers,omitempty"`
	Category    string   `json:"category,omitempty"`
	Blacklisted bool     `json:"blacklisted"`
}

// Fallback is the safe default: not blacklisted, generic category.
func Fallback() Classification {
	return Classification{Qualifier: FallbackQualifier, Category: FallbackQualifier}
}

type Config struct {
	URL     string
	Timeout time.Duration
	// RatePerSecond caps outbound calls. Zero disables limiting.
	RatePerSecond float64
}

// Client calls POST {url}/skill?qualifier=<name>.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  ectologger.Logger
}

func NewClient(cfg Config, logger ectologger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(1, int(cfg.RatePerSecond)))
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger,
	}
}

func (c *Client) Classify(ctx context.Context, name string) (Classification, error) {
	ctx, span := tracing.StartSpan(ctx, "ClassifierClient.Classify")
	defer span.End()

	if c.baseURL == "" {
		return Classification{}, fmt.Errorf("classifier url is not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Classification{}, fmt.Errorf("classifier rate limit: %w", err)
		}
	}

	reqURL := fmt.Sprintf("%s/skill?qualifier=%s", c.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		tracing.RecordError(span, err)
		return Classification{}, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Classification{}, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Classification
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Classification{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	return out, nil
}
