package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"newsrag/internal/port"
)

const defaultBaseURL = "https://newsapi.org/v2/top-headlines"

// NewsAPI developer plan allows 100 requests per day; half a request per
// second keeps a polling loop far under any burst limit.
const proactiveRate = 0.5

// Client fetches top headlines from NewsAPI.org.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithPageSize overrides the number of articles requested per category.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRateLimit overrides the proactive request rate in requests per
// second. Zero or negative disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		language: "en",
		pageSize: 20,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(proactiveRate), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type headlinesResponse struct {
	Status   string       `json:"status"`
	Message  string       `json:"message"`
	Articles []apiArticle `json:"articles"`
}

type apiArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"publishedAt"`
	Source      apiSource `json:"source"`
}

type apiSource struct {
	Name string `json:"name"`
}

// StatusError is a provider-level failure: the HTTP exchange succeeded
// but the payload reported status != "ok".
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %q", e.Status)
	}
	return fmt.Sprintf("provider returned status %q: %s", e.Status, e.Message)
}

// Headlines fetches the current page of top headlines for one category.
func (c *Client) Headlines(ctx context.Context, category string) ([]port.Headline, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("category", category)
	params.Set("language", c.language)
	params.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	params.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s headlines: %w", category, err)
	}
	defer resp.Body.Close()

	var payload headlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s headlines: %w", category, err)
	}

	if payload.Status != "ok" {
		return nil, &StatusError{Status: payload.Status, Message: payload.Message}
	}

	headlines := make([]port.Headline, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		headlines = append(headlines, port.Headline{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			SourceName:  a.Source.Name,
		})
	}

	return headlines, nil
}
