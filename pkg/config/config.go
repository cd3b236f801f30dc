package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for feedreach
type Config struct {
	// Feed access settings (login page, search URL template)
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// Crawl phase settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Campaign phase settings
	Campaign CampaignConfig `yaml:"campaign" json:"campaign"`

	// SMTP transport settings
	SMTP SMTPConfig `yaml:"smtp" json:"smtp"`

	// Gmail API transport settings
	Gmail GmailConfig `yaml:"gmail" json:"gmail"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FeedConfig holds the upstream feed endpoints and identification
type FeedConfig struct {
	// LoginURL is the page holding the credential form
	LoginURL string `yaml:"login_url" json:"login_url"`
	// SearchURL is the content-search URL template; "{query}" is replaced
	// with the URL-escaped query text
	SearchURL string `yaml:"search_url" json:"search_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// CrawlConfig holds crawl loop settings
type CrawlConfig struct {
	Catalog       string        `yaml:"catalog" json:"catalog"`
	Output        string        `yaml:"output" json:"output"`
	Headless      bool          `yaml:"headless" json:"headless"`
	MaxScrolls    int           `yaml:"max_scrolls" json:"max_scrolls"`
	ScrollPause   time.Duration `yaml:"scroll_pause" json:"scroll_pause"`
	SettleDelay   time.Duration `yaml:"settle_delay" json:"settle_delay"`
	QueryDelay    time.Duration `yaml:"query_delay" json:"query_delay"`
	CategoryDelay time.Duration `yaml:"category_delay" json:"category_delay"`
	LoginTimeout  time.Duration `yaml:"login_timeout" json:"login_timeout"`
	LoginRetries  int           `yaml:"login_retries" json:"login_retries"`
	LoginBackoff  time.Duration `yaml:"login_backoff" json:"login_backoff"`
}

// TemplateConfig is one category's message template. The body may contain
// "{query}" which is substituted with the recipient's originating query.
type TemplateConfig struct {
	Subject string `yaml:"subject" json:"subject"`
	Body    string `yaml:"body" json:"body"`
}

// CampaignConfig holds send loop settings
type CampaignConfig struct {
	CSV             string                    `yaml:"csv" json:"csv"`
	SentLog         string                    `yaml:"sent_log" json:"sent_log"`
	Attachment      string                    `yaml:"attachment" json:"attachment"`
	Transport       string                    `yaml:"transport" json:"transport"`
	Sender          string                    `yaml:"sender" json:"sender"`
	Delay           time.Duration             `yaml:"delay" json:"delay"`
	Limit           int                       `yaml:"limit" json:"limit"`
	MaxRetries      int                       `yaml:"max_retries" json:"max_retries"`
	RetryDelay      time.Duration             `yaml:"retry_delay" json:"retry_delay"`
	DefaultCategory string                    `yaml:"default_category" json:"default_category"`
	Templates       map[string]TemplateConfig `yaml:"templates" json:"templates"`
}

// SMTPConfig holds SMTP transport configuration
type SMTPConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// GmailConfig holds Gmail API transport configuration
type GmailConfig struct {
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	TokenFile       string `yaml:"token_file" json:"token_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			LoginURL:  "https://www.linkedin.com/login",
			SearchURL: "https://www.linkedin.com/search/results/content/?datePosted=%22past-24h%22&keywords={query}&origin=FACETED_SEARCH",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Crawl: CrawlConfig{
			Catalog:       "queries.json",
			Output:        "mail.csv",
			Headless:      false,
			MaxScrolls:    15,
			ScrollPause:   2 * time.Second,
			SettleDelay:   3 * time.Second,
			QueryDelay:    5 * time.Second,
			CategoryDelay: 10 * time.Second,
			LoginTimeout:  10 * time.Second,
			LoginRetries:  3,
			LoginBackoff:  5 * time.Second,
		},
		Campaign: CampaignConfig{
			CSV:             "mail.csv",
			SentLog:         "sent_emails.log",
			Transport:       "smtp",
			Delay:           5 * time.Second,
			MaxRetries:      3,
			RetryDelay:      5 * time.Second,
			DefaultCategory: "entry_level_searches",
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 465,
		},
		Gmail: GmailConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("FEEDREACH_SEARCH_URL"); v != "" {
		c.Feed.SearchURL = v
	}
	if v := os.Getenv("FEEDREACH_USER_AGENT"); v != "" {
		c.Feed.UserAgent = v
	}
	if v := os.Getenv("FEEDREACH_CATALOG"); v != "" {
		c.Crawl.Catalog = v
	}
	if v := os.Getenv("FEEDREACH_OUTPUT"); v != "" {
		c.Crawl.Output = v
	}
	if v := os.Getenv("FEEDREACH_MAX_SCROLLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Crawl.MaxScrolls = n
		}
	}
	if v := os.Getenv("FEEDREACH_SENT_LOG"); v != "" {
		c.Campaign.SentLog = v
	}
	if v := os.Getenv("FEEDREACH_TRANSPORT"); v != "" {
		c.Campaign.Transport = v
	}
	if v := os.Getenv("FEEDREACH_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("FEEDREACH_SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SMTP.Port = n
		}
	}
	if v := os.Getenv("FEEDREACH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".feedreach.yaml",
		".feedreach.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "feedreach", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".feedreach.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Feed.LoginURL == "" {
		errs = append(errs, errors.New("feed login URL is required"))
	}
	if c.Feed.SearchURL == "" {
		errs = append(errs, errors.New("feed search URL is required"))
	} else if !strings.Contains(c.Feed.SearchURL, "{query}") {
		errs = append(errs, errors.New("feed search URL must contain the {query} placeholder"))
	}

	if c.Crawl.MaxScrolls <= 0 {
		errs = append(errs, errors.New("max scrolls must be positive"))
	}
	if c.Crawl.ScrollPause < 0 {
		errs = append(errs, errors.New("scroll pause cannot be negative"))
	}
	if c.Crawl.LoginRetries < 0 {
		errs = append(errs, errors.New("login retries cannot be negative"))
	}
	if c.Crawl.Output == "" {
		errs = append(errs, errors.New("crawl output path is required"))
	}

	if c.Campaign.Delay < 0 {
		errs = append(errs, errors.New("campaign delay cannot be negative"))
	}
	if c.Campaign.Limit < 0 {
		errs = append(errs, errors.New("campaign limit cannot be negative"))
	}
	if c.Campaign.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	switch strings.ToLower(c.Campaign.Transport) {
	case "smtp", "gmail":
	default:
		errs = append(errs, errors.New("transport must be smtp or gmail"))
	}
	if c.Campaign.SentLog == "" {
		errs = append(errs, errors.New("sent log path is required"))
	}

	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		errs = append(errs, errors.New("smtp port out of range"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["catalog"].(string); ok && v != "" {
		c.Crawl.Catalog = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Crawl.Output = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Crawl.Headless = v
	}
	if v, ok := flags["max-scrolls"].(int); ok && v > 0 {
		c.Crawl.MaxScrolls = v
	}
	if v, ok := flags["scroll-pause"].(time.Duration); ok && v > 0 {
		c.Crawl.ScrollPause = v
	}
	if v, ok := flags["query-delay"].(time.Duration); ok && v >= 0 {
		c.Crawl.QueryDelay = v
	}
	if v, ok := flags["category-delay"].(time.Duration); ok && v >= 0 {
		c.Crawl.CategoryDelay = v
	}
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Feed.SearchURL = v
	}
	if v, ok := flags["csv"].(string); ok && v != "" {
		c.Campaign.CSV = v
	}
	if v, ok := flags["attachment"].(string); ok && v != "" {
		c.Campaign.Attachment = v
	}
	if v, ok := flags["delay"].(time.Duration); ok && v >= 0 {
		c.Campaign.Delay = v
	}
	if v, ok := flags["limit"].(int); ok && v > 0 {
		c.Campaign.Limit = v
	}
	if v, ok := flags["sent-log"].(string); ok && v != "" {
		c.Campaign.SentLog = v
	}
	if v, ok := flags["transport"].(string); ok && v != "" {
		c.Campaign.Transport = v
	}
	if v, ok := flags["sender"].(string); ok && v != "" {
		c.Campaign.Sender = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".feedreach.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
