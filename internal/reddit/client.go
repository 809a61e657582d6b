// Package reddit fetches a listing from the Reddit JSON API and normalizes
// its entries into display-ready records.
package reddit

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

	"golang.org/x/time/rate"

	"github.com/pauljones0/reddit-rotator/internal/models"
	"github.com/pauljones0/reddit-rotator/internal/preview"
	"github.com/pauljones0/reddit-rotator/internal/util"
)

// maxBodyBytes bounds how much of a listing response is read.
const maxBodyBytes = 8 << 20

// Client performs one listing request per Fetch call.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimiter replaces the default request limiter.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.rateLimiter = l }
}

// New returns a client for baseURL. requestsPerMinute <= 0 disables the
// request limiter.
func New(baseURL, userAgent string, timeout time.Duration, requestsPerMinute int, opts ...Option) *Client {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListingURL builds the request target for req.
func (c *Client) ListingURL(req models.RefreshRequest) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	if !models.IsFrontpage(req.Source) {
		b.WriteString("/r/")
		b.WriteString(models.JoinSource(req.Source))
	}
	b.WriteString("/")
	b.WriteString(string(req.Listing))
	b.WriteString("/.json?")

	q := url.Values{}
	q.Set("raw_json", "1")
	q.Set("limit", strconv.Itoa(req.Count))
	b.WriteString(q.Encode())
	return b.String()
}

// Fetch requests the listing described by req and returns the surviving
// records in source order. An empty slice is a valid result.
func (c *Client) Fetch(ctx context.Context, req models.RefreshRequest) ([]models.PostRecord, error) {
	formatter, err := util.NewTitleFormatter(req.Rules, req.CharacterLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid title rules: %w", err)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	target := c.ListingURL(req)
	slog.Debug("Fetching listing", "url", target)

	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}

	var resp listingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &models.MalformedResponseError{Reason: "invalid JSON", Err: err}
	}
	if resp.Data == nil {
		return nil, &models.MalformedResponseError{Reason: "missing data object"}
	}
	if resp.Data.Children == nil {
		return nil, &models.MalformedResponseError{Reason: "missing children array"}
	}

	records := c.normalize(*resp.Data.Children, req, formatter)
	slog.Debug("Normalized listing", "entries", len(*resp.Data.Children), "records", len(records))
	return records, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &models.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.TransportError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &models.TransportError{Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, nil
}

func (c *Client) normalize(children []child, req models.RefreshRequest, formatter *util.TitleFormatter) []models.PostRecord {
	records := make([]models.PostRecord, 0, len(children))
	for _, ch := range children {
		post := ch.Data
		if post == nil || post.Stickied {
			continue
		}

		var imageURL string
		if post.hasImage() {
			imageURL = preview.Select(post.imageVariants(), req.Quality)
		}
		if req.DisplayType == models.DisplayImage && imageURL == "" {
			continue
		}

		records = append(records, models.PostRecord{
			Rank:        len(records) + 1,
			Title:       formatter.Format(post.Title),
			Score:       post.Score,
			NumComments: post.NumComments,
			Gilded:      post.Gilded,
			Author:      post.Author,
			Subreddit:   post.Subreddit,
			Thumbnail:   thumbnail(post.Thumbnail),
			ImageURL:    imageURL,
			Permalink:   util.AbsoluteURL(c.baseURL, post.Permalink),
			URL:         post.URL,
			Domain:      util.LinkDomain(post.URL),
			NSFW:        post.Over18,
		})
	}
	return records
}

// thumbnail drops placeholder values so records only carry real references.
func thumbnail(raw string) string {
	if defaultThumbnails[raw] {
		return ""
	}
	return raw
}
