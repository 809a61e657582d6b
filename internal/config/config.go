package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pauljones0/reddit-rotator/internal/models"
	"github.com/pauljones0/reddit-rotator/internal/util"
	"github.com/pauljones0/reddit-rotator/internal/validator"
)

const (
	defaultBaseURL   = "https://www.reddit.com"
	defaultUserAgent = "reddit-rotator/1.0"
)

// Config holds every recognized option. It is built once by Load and not
// mutated afterwards.
type Config struct {
	BaseURL              string                   `validate:"required,url"`
	Source               models.Source            `validate:"-"`
	Listing              models.ListingMode       `validate:"oneof=hot new rising top controversial best"`
	Count                int                      `validate:"min=1,max=100"`
	Show                 int                      `validate:"min=1"`
	UpdateInterval       time.Duration            `validate:"gt=0"`
	RotateInterval       time.Duration            `validate:"gt=0"`
	ForceImmediateUpdate bool                     `validate:"-"`
	CharacterLimit       *int                     `validate:"omitempty,min=0"`
	TitleReplacements    []models.ReplacementRule `validate:"dive"`
	DisplayType          models.DisplayMode       `validate:"oneof=headlines image"`
	ImageQuality         models.QualityTier       `validate:"oneof=low mid mid-high high"`
	HeaderType           models.HeaderType        `validate:"oneof=sentence chained"`
	Toggles              models.Toggles           `validate:"-"`

	FetchTimeout      time.Duration `validate:"gt=0"`
	UserAgent         string        `validate:"required"`
	RequestsPerMinute int           `validate:"min=1"`

	DiscordWebhookURL string `validate:"omitempty,url"`
	ConsoleDisplay    bool
	Port              string `validate:"required,numeric"`
	Debug             bool
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		BaseURL:              defaultBaseURL,
		Source:               models.Single("all"),
		Listing:              models.ListingHot,
		Count:                10,
		Show:                 5,
		UpdateInterval:       15 * time.Minute,
		RotateInterval:       30 * time.Second,
		ForceImmediateUpdate: true,
		DisplayType:          models.DisplayHeadlines,
		ImageQuality:         models.QualityMidHigh,
		HeaderType:           models.HeaderSentence,
		Toggles: models.Toggles{
			Header:      true,
			Rank:        true,
			Score:       true,
			NumComments: true,
			Gilded:      true,
			Title:       true,
		},
		FetchTimeout:      30 * time.Second,
		UserAgent:         defaultUserAgent,
		RequestsPerMinute: 30,
		Port:              "8080",
	}
}

// Load reads an optional .env file (ENV_FILE, default ".env") and then the
// process environment on top of Default.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		slog.Info("Loaded environment file", "path", envFile)
	}

	cfg := Default()
	p := envParser{}

	p.str("REDDIT_BASE_URL", &cfg.BaseURL)
	if v := os.Getenv("REDDIT_SUBREDDIT"); v != "" {
		cfg.Source = models.ParseSource(v)
	}
	if v := os.Getenv("REDDIT_LISTING"); v != "" {
		cfg.Listing = models.ListingMode(strings.ToLower(v))
	}
	p.integer("REDDIT_COUNT", &cfg.Count)
	p.integer("REDDIT_SHOW", &cfg.Show)
	p.duration("REDDIT_UPDATE_INTERVAL", &cfg.UpdateInterval)
	p.duration("REDDIT_ROTATE_INTERVAL", &cfg.RotateInterval)
	p.boolean("REDDIT_FORCE_IMMEDIATE_UPDATE", &cfg.ForceImmediateUpdate)
	if v := os.Getenv("REDDIT_CHARACTER_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			p.fail("REDDIT_CHARACTER_LIMIT", v, err)
		} else {
			cfg.CharacterLimit = &limit
		}
	}
	if v := os.Getenv("REDDIT_DISPLAY_TYPE"); v != "" {
		cfg.DisplayType = models.DisplayMode(v)
	}
	if v := os.Getenv("REDDIT_IMAGE_QUALITY"); v != "" {
		cfg.ImageQuality = models.QualityTier(v)
	}
	if v := os.Getenv("REDDIT_HEADER_TYPE"); v != "" {
		cfg.HeaderType = models.HeaderType(v)
	}

	p.boolean("REDDIT_SHOW_HEADER", &cfg.Toggles.Header)
	p.boolean("REDDIT_SHOW_RANK", &cfg.Toggles.Rank)
	p.boolean("REDDIT_SHOW_SCORE", &cfg.Toggles.Score)
	p.boolean("REDDIT_SHOW_NUM_COMMENTS", &cfg.Toggles.NumComments)
	p.boolean("REDDIT_SHOW_GILDED", &cfg.Toggles.Gilded)
	p.boolean("REDDIT_SHOW_AUTHOR", &cfg.Toggles.Author)
	p.boolean("REDDIT_SHOW_SUBREDDIT", &cfg.Toggles.Subreddit)
	p.boolean("REDDIT_SHOW_THUMBNAIL", &cfg.Toggles.Thumbnail)
	p.boolean("REDDIT_SHOW_TITLE", &cfg.Toggles.Title)
	showAll := false
	p.boolean("REDDIT_SHOW_ALL", &showAll)
	if showAll {
		cfg.Toggles = cfg.Toggles.ShowAll()
	}

	p.duration("REDDIT_FETCH_TIMEOUT", &cfg.FetchTimeout)
	p.str("REDDIT_USER_AGENT", &cfg.UserAgent)
	p.integer("REDDIT_REQUESTS_PER_MINUTE", &cfg.RequestsPerMinute)

	p.str("DISCORD_WEBHOOK_URL", &cfg.DiscordWebhookURL)
	if cfg.DiscordWebhookURL == "" {
		slog.Warn("DISCORD_WEBHOOK_URL not set, Discord display will be skipped")
	}
	p.boolean("CONSOLE_DISPLAY", &cfg.ConsoleDisplay)
	p.str("PORT", &cfg.Port)
	p.boolean("DEBUG", &cfg.Debug)

	if p.err != nil {
		return nil, p.err
	}

	rules, err := loadReplacements()
	if err != nil {
		return nil, err
	}
	if rules != nil {
		cfg.TitleReplacements = rules
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Show >= cfg.Count {
		slog.Warn("Show is not below count, rotation disabled", "show", cfg.Show, "count", cfg.Count)
	}
	return &cfg, nil
}

// Validate checks struct tags plus the rules tags cannot express.
func (c Config) Validate() error {
	if err := validator.New().ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Source == nil {
		return errors.New("invalid configuration: source is required")
	}
	if multi, ok := c.Source.(models.Multiple); ok {
		for i, name := range multi {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("invalid configuration: subreddit %d is empty", i)
			}
		}
	}
	if err := util.ValidateRules(c.TitleReplacements); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RotationEnabled reports whether more than one set can be produced.
func (c Config) RotationEnabled() bool {
	return c.Show < c.Count
}

// RefreshRequest returns the snapshot handed to the fetcher each cycle.
func (c Config) RefreshRequest() models.RefreshRequest {
	rules := make([]models.ReplacementRule, len(c.TitleReplacements))
	copy(rules, c.TitleReplacements)
	return models.RefreshRequest{
		Source:         c.Source,
		Listing:        c.Listing,
		Count:          c.Count,
		Quality:        c.ImageQuality,
		CharacterLimit: c.CharacterLimit,
		Rules:          rules,
		DisplayType:    c.DisplayType,
	}
}

// Header returns the header text, or "" when the header is toggled off.
func (c Config) Header() string {
	if !c.Toggles.Header {
		return ""
	}
	return util.HeaderText(c.Listing, c.Source, c.HeaderType)
}

func loadReplacements() ([]models.ReplacementRule, error) {
	raw := os.Getenv("REDDIT_TITLE_REPLACEMENTS")
	source := "REDDIT_TITLE_REPLACEMENTS"
	if path := os.Getenv("REDDIT_TITLE_REPLACEMENTS_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read title replacements file: %w", err)
		}
		raw = string(data)
		source = path
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var rules []models.ReplacementRule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, fmt.Errorf("invalid title replacements in %s: %w", source, err)
	}
	return rules, nil
}

// envParser collects the first parse failure so Load can report it once.
type envParser struct {
	err error
}

func (p *envParser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (p *envParser) str(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (p *envParser) integer(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = parsed
}

func (p *envParser) boolean(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = parsed
}

func (p *envParser) duration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = parsed
}
