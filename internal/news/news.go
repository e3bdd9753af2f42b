// Package news fetches recent AI headlines from the NewsAPI "everything"
// endpoint.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/retry"
)

const (
	defaultEndpoint = "https://newsapi.org/v2/everything"
	maxResponseSize = 1 << 20
	userAgent       = "DejiRyu/1.0"
)

// Article is one headline returned by the API.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type apiResponse struct {
	Status   string    `json:"status"`
	Articles []Article `json:"articles"`
}

// Client queries NewsAPI for articles matching the configured search query.
type Client struct {
	cfg      config.NewsConfig
	logger   *logger.Logger
	client   *http.Client
	endpoint string
	retryCfg retry.Config
}

// NewClient creates a news client. The HTTP timeout bounds a single request;
// transient failures are retried with backoff on top of it.
func NewClient(cfg config.NewsConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:      cfg,
		logger:   log,
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: defaultEndpoint,
	}
}

// Fetch returns up to PageSize recent articles, newest first. Without an API
// key no request is made and the result is empty, so the digest falls back to
// its no-news line.
func (c *Client) Fetch(ctx context.Context) ([]Article, error) {
	if c.cfg.APIKey == "" {
		c.logger.Warn("news api key not configured, skipping fetch")
		return nil, nil
	}

	var articles []Article
	err := retry.Do(ctx, c.retryCfg, func() error {
		var ferr error
		articles, ferr = c.fetch(ctx)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	return articles, nil
}

func (c *Client) fetch(ctx context.Context) ([]Article, error) {
	query := url.Values{}
	query.Set("q", c.cfg.Query)
	query.Set("language", c.cfg.Language)
	query.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	query.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	articles := parsed.Articles
	if c.cfg.PageSize > 0 && len(articles) > c.cfg.PageSize {
		articles = articles[:c.cfg.PageSize]
	}
	for i := range articles {
		articles[i].Description = StripHTML(articles[i].Description)
	}

	return articles, nil
}

// StripHTML flattens an HTML fragment into whitespace-normalized plain text.
// Article descriptions sometimes arrive with markup embedded.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<>") {
		return strings.TrimSpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("script, style").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}
