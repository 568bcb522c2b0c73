//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/feed_client.go -package=mocks . Fetcher

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/renugrid/internal/models"
)

const (
	DefaultBaseURL   = "https://api.thingspeak.com"
	DefaultChannelID = 3064301
	DefaultResults   = 30
	DefaultTimeout   = 10 * time.Second

	userAgent = "renugrid/1.0"
)

// Fetcher retrieves the most recent window of feed entries.
type Fetcher interface {
	// FetchBatch issues exactly one request. An empty feed is a valid,
	// empty batch; transport and status failures are *NetworkError.
	FetchBatch(ctx context.Context) (models.FeedBatch, error)
}

// ClientConfig describes which channel to read and how.
type ClientConfig struct {
	BaseURL   string
	ChannelID int64
	Results   int
	APIKey    string // read key, only needed for private channels
	Timeout   time.Duration
}

// FeedClient reads a ThingSpeak channel feed over HTTP.
type FeedClient struct {
	cfg    ClientConfig
	url    string
	client *http.Client
	logger *logrus.Logger
}

// NewFeedClient builds a client for the configured channel. A nil httpClient
// uses http.DefaultClient.
func NewFeedClient(cfg ClientConfig, httpClient *http.Client, logger *logrus.Logger) (*FeedClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Results <= 0 {
		cfg.Results = DefaultResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ChannelID <= 0 {
		return nil, fmt.Errorf("invalid channel id: %d", cfg.ChannelID)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	feedURL, err := buildFeedURL(cfg)
	if err != nil {
		return nil, err
	}

	return &FeedClient{
		cfg:    cfg,
		url:    feedURL,
		client: httpClient,
		logger: logger,
	}, nil
}

// URL returns the fully built feed endpoint.
func (c *FeedClient) URL() string {
	return c.url
}

func buildFeedURL(cfg ClientConfig) (string, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid base url %q: scheme and host required", cfg.BaseURL)
	}

	base.Path = fmt.Sprintf("%s/channels/%d/feeds.json", base.Path, cfg.ChannelID)

	q := url.Values{}
	q.Set("results", strconv.Itoa(cfg.Results))
	if cfg.APIKey != "" {
		q.Set("api_key", cfg.APIKey)
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}

// FetchBatch retrieves the latest entries, oldest first.
func (c *FeedClient) FetchBatch(ctx context.Context) (models.FeedBatch, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{StatusCode: resp.StatusCode}
	}

	var feedResp models.FeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feedResp); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.WithFields(logrus.Fields{
		"channel": c.cfg.ChannelID,
		"entries": len(feedResp.Feeds),
	}).Debug("Fetched feed")

	if len(feedResp.Feeds) == 0 {
		return models.FeedBatch{}, nil
	}
	return models.FeedBatch(feedResp.Feeds), nil
}

var _ Fetcher = (*FeedClient)(nil)
