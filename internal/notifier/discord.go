// Package notifier mirrors the visible post set into a Discord channel via
// a webhook. One message is posted and then edited on every push.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/reddit-rotator/internal/models"
	"github.com/pauljones0/reddit-rotator/internal/util"
)

const (
	colorCold    = 3092790  // #2F3136
	colorWarm    = 16753920 // #FFA500
	colorHot     = 16729344 // #FF4500
	colorVeryHot = 16711680 // #FF0000
	colorNSFW    = 10038562 // #992D22

	scoreThresholdWarm    = 100
	scoreThresholdHot     = 1000
	scoreThresholdVeryHot = 10000

	// Discord rejects messages with more embeds or longer titles.
	maxEmbeds       = 10
	maxEmbedTitle   = 256
	fallbackContent = "No posts available right now."
)

// errMessageGone is returned when the message being edited no longer exists.
var errMessageGone = errors.New("discord message not found")

// Client is a display surface backed by a Discord webhook.
type Client struct {
	webhookURL  string
	client      *http.Client
	rateLimiter *rate.Limiter
	maxRetries  int
	retryBase   time.Duration

	mu        sync.Mutex
	messageID string
}

func New(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		// Discord allows roughly 5 webhook requests per 2 seconds.
		rateLimiter: rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
		maxRetries:  3,
		retryBase:   time.Second,
	}
}

// Push renders the visible set and posts it, editing the previous message
// when there is one.
func (c *Client) Push(ctx context.Context, p models.DisplayPush) error {
	if c.webhookURL == "" {
		return nil
	}
	payload := buildPayload(p)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.messageID != "" {
		err := c.update(ctx, c.messageID, payload)
		if !errors.Is(err, errMessageGone) {
			return err
		}
		slog.Warn("Discord message was deleted, posting a new one", "message_id", c.messageID)
		c.messageID = ""
	}

	id, err := c.send(ctx, payload)
	if err != nil {
		return err
	}
	c.messageID = id
	return nil
}

// MessageID returns the ID of the message being edited, if any.
func (c *Client) MessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messageID
}

type discordWebhookPayload struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedMedia struct {
	URL string `json:"url,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Thumbnail   *discordEmbedMedia  `json:"thumbnail,omitempty"`
	Image       *discordEmbedMedia  `json:"image,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
}

type discordMessageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

func buildPayload(p models.DisplayPush) discordWebhookPayload {
	visible := p.Visible()

	var content strings.Builder
	if p.Header != "" {
		content.WriteString("**")
		content.WriteString(p.Header)
		content.WriteString("**")
		if len(p.Sets) > 1 {
			fmt.Fprintf(&content, " (%d/%d)", p.ActiveIndex+1, len(p.Sets))
		}
	}
	if len(visible) == 0 {
		if content.Len() > 0 {
			content.WriteString("\n")
		}
		content.WriteString(fallbackContent)
	}

	embeds := make([]discordEmbed, 0, min(len(visible), maxEmbeds))
	for i, post := range visible {
		if i == maxEmbeds {
			break
		}
		embeds = append(embeds, formatPostToEmbed(post, p.Toggles, p.DisplayType, p.PushedAt))
	}
	if !p.HasValidData && len(embeds) > 0 {
		embeds[len(embeds)-1].Footer = &discordEmbedFooter{Text: "Last refresh failed; showing previous posts"}
	}
	return discordWebhookPayload{Content: content.String(), Embeds: embeds}
}

func formatPostToEmbed(post models.PostRecord, toggles models.Toggles, mode models.DisplayMode, pushedAt time.Time) discordEmbed {
	var title string
	if toggles.Rank {
		title = "#" + strconv.Itoa(post.Rank) + " "
	}
	if toggles.Title {
		title += post.Title
	}
	limit := maxEmbedTitle - 3
	title = util.Truncate(strings.TrimSpace(title), &limit)

	var stats []string
	if toggles.Score {
		stats = append(stats, "⬆ "+util.FormatScore(post.Score))
	}
	if toggles.NumComments {
		stats = append(stats, "💬 "+strconv.Itoa(post.NumComments))
	}
	if toggles.Gilded && post.Gilded > 0 {
		stats = append(stats, "🏅 "+strconv.Itoa(post.Gilded))
	}
	if toggles.Author && post.Author != "" {
		stats = append(stats, "u/"+post.Author)
	}
	if toggles.Subreddit && post.Subreddit != "" {
		stats = append(stats, "r/"+post.Subreddit)
	}
	if post.Domain != "" {
		stats = append(stats, post.Domain)
	}

	embed := discordEmbed{
		Title:       title,
		URL:         post.Permalink,
		Description: strings.Join(stats, "  ·  "),
		Color:       getScoreColor(post.Score, post.NSFW),
	}
	if !pushedAt.IsZero() {
		embed.Timestamp = pushedAt.UTC().Format(time.RFC3339)
	}

	switch {
	case mode == models.DisplayImage && post.HasImage():
		embed.Image = &discordEmbedMedia{URL: post.ImageURL}
	case toggles.Thumbnail && post.Thumbnail != "":
		embed.Thumbnail = &discordEmbedMedia{URL: post.Thumbnail}
	}
	return embed
}

func getScoreColor(score int, nsfw bool) int {
	switch {
	case nsfw:
		return colorNSFW
	case score >= scoreThresholdVeryHot:
		return colorVeryHot
	case score >= scoreThresholdHot:
		return colorHot
	case score >= scoreThresholdWarm:
		return colorWarm
	default:
		return colorCold
	}
}

func (c *Client) send(ctx context.Context, payload discordWebhookPayload) (string, error) {
	parsedURL, err := url.Parse(c.webhookURL)
	if err != nil {
		return "", fmt.Errorf("invalid webhook URL: %w", err)
	}
	q := parsedURL.Query()
	q.Set("wait", "true")
	parsedURL.RawQuery = q.Encode()

	body, err := c.do(ctx, http.MethodPost, parsedURL.String(), payload)
	if err != nil {
		return "", fmt.Errorf("failed to send discord message: %w", err)
	}

	var msgResponse discordMessageResponse
	if err := json.Unmarshal(body, &msgResponse); err != nil {
		return "", fmt.Errorf("failed to decode discord response: %w", err)
	}
	slog.Debug("Posted discord message", "message_id", msgResponse.ID)
	return msgResponse.ID, nil
}

func (c *Client) update(ctx context.Context, messageID string, payload discordWebhookPayload) error {
	parsedBaseURL, err := url.Parse(c.webhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	patchURL := fmt.Sprintf("%s://%s%s/messages/%s", parsedBaseURL.Scheme, parsedBaseURL.Host, parsedBaseURL.Path, messageID)

	if _, err := c.do(ctx, http.MethodPatch, patchURL, payload); err != nil {
		return fmt.Errorf("failed to update discord message %s: %w", messageID, err)
	}
	return nil
}

// do sends payload, retrying 429 and 5xx responses with backoff.
func (c *Client) do(ctx context.Context, method, target string, payload discordWebhookPayload) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = util.RetryWithBackoff(ctx, c.maxRetries, c.retryBase, func(attempt int) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", util.ErrPermanent, err)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payloadBytes))
		if err != nil {
			return fmt.Errorf("%w: %v", util.ErrPermanent, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body = respBody
			return nil
		}

		if method == http.MethodPatch && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", util.ErrPermanent, errMessageGone)
		}

		wait := retryBackoff(resp, attempt)
		if wait == 0 {
			return fmt.Errorf("%w: discord status: %s, body: %s", util.ErrPermanent, resp.Status, string(respBody))
		}
		slog.Warn("Discord request failed, retrying", "status", resp.StatusCode, "attempt", attempt+1)
		if resp.StatusCode == http.StatusTooManyRequests && resp.Header.Get("Retry-After") != "" {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		return fmt.Errorf("discord status: %s", resp.Status)
	})
	return body, err
}

// retryBackoff returns how long to wait before retrying resp, or 0 when the
// response should not be retried.
func retryBackoff(resp *http.Response, attempt int) time.Duration {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
		return time.Duration(1<<attempt) * time.Second
	case resp.StatusCode >= 500:
		return time.Duration(1<<attempt) * time.Second
	default:
		return 0
	}
}
