package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	xerrors "NewsAgent/internal/errors"
)

const (
	defaultTimezone       = "UTC"
	defaultLLMTimeout     = 12
	minLLMTimeout         = 10
	maxLLMTimeout         = 15
	defaultSMTPPort       = 587
	defaultInterval       = 24 * time.Hour
	defaultRetryDelayUnit = time.Second

	configPathEnv     = "NEWS_AGENT_CONFIG"
	smtpServerEnv     = "SMTP_SERVER"
	smtpPortEnv       = "SMTP_PORT"
	smtpUserEnv       = "SMTP_USER"
	smtpPasswordEnv   = "SMTP_PASSWORD"
	recipientEnv      = "NEWS_AGENT_RECIPIENT"
	openAIKeyEnv      = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	geminiKeyEnv      = "GEMINI_API_KEY"
	llmProviderEnv    = "LLM_PROVIDER"
	archiveDSNEnv     = "ARCHIVE_DSN"
	archiveDriverEnv  = "ARCHIVE_DRIVER"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
	memoryPathEnv     = "MEMORY_PATH"
)

// LLM providers understood by the application wiring.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging" toml:"logging"`
	LLM           LLMConfig          `yaml:"llm" toml:"llm"`
	Memory        MemoryConfig       `yaml:"memory" toml:"memory"`
	Workflow      WorkflowConfig     `yaml:"workflow" toml:"workflow"`
	Sites         []SiteConfig       `yaml:"sites" toml:"sites"`
	Mail          MailConfig         `yaml:"mail" toml:"mail"`
	Notifications NotificationConfig `yaml:"notifications" toml:"notifications"`
	Archive       ArchiveConfig      `yaml:"archive" toml:"archive"`
	Scheduler     SchedulerConfig    `yaml:"scheduler" toml:"scheduler"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// LLMConfig defines how to contact the hosted model.
type LLMConfig struct {
	Provider       string `yaml:"provider" toml:"provider"`
	Endpoint       string `yaml:"endpoint" toml:"endpoint"`
	Model          string `yaml:"model" toml:"model"`
	APIKey         string `yaml:"apiKey" toml:"apiKey"`
	SystemPrompt   string `yaml:"systemPrompt" toml:"systemPrompt"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" toml:"timeoutSeconds"`
}

// Timeout is the per-call deadline, kept inside 10..15 seconds.
func (l LLMConfig) Timeout() time.Duration {
	secs := l.TimeoutSeconds
	switch {
	case secs <= 0:
		secs = defaultLLMTimeout
	case secs < minLLMTimeout:
		secs = minLLMTimeout
	case secs > maxLLMTimeout:
		secs = maxLLMTimeout
	}
	return time.Duration(secs) * time.Second
}

// MemoryConfig points at the JSON memory document.
type MemoryConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// WorkflowConfig carries the fixed goal and the plan defaults.
type WorkflowConfig struct {
	Goal           string `yaml:"goal" toml:"goal"`
	Recipient      string `yaml:"recipient" toml:"recipient"`
	Subject        string `yaml:"subject" toml:"subject"`
	Filename       string `yaml:"filename" toml:"filename"`
	ArticleCount   int    `yaml:"articleCount" toml:"articleCount"`
	NewsURL        string `yaml:"newsUrl" toml:"newsUrl"`
	CacheSource    string `yaml:"cacheSource" toml:"cacheSource"`
	SampleFallback *bool  `yaml:"sampleFallback" toml:"sampleFallback"`
	RetryDelayUnit string `yaml:"retryDelayUnit" toml:"retryDelayUnit"`
}

// UseSampleFallback reports whether the fixed sample articles may stand in
// for a failed fetch. Unset means enabled.
func (w WorkflowConfig) UseSampleFallback() bool {
	return w.SampleFallback == nil || *w.SampleFallback
}

// RetryDelay is the unit a step's retry_delay is multiplied by.
func (w WorkflowConfig) RetryDelay() time.Duration {
	return parseDuration(w.RetryDelayUnit, defaultRetryDelayUnit)
}

// SiteConfig describes a single site with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name" toml:"name"`
	Scanner    string            `yaml:"scanner" toml:"scanner"`
	Categories []CategoryConfig  `yaml:"categories" toml:"categories"`
	Options    map[string]string `yaml:"options" toml:"options"`
}

// CategoryConfig holds the concrete listing page to crawl.
type CategoryConfig struct {
	Name string `yaml:"name" toml:"name"`
	URL  string `yaml:"url" toml:"url"`
}

// MailConfig holds the SMTP relay settings.
type MailConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	From     string `yaml:"from" toml:"from"`
}

// Missing lists the environment names of unset SMTP settings.
func (m MailConfig) Missing() []string {
	var missing []string
	if m.Host == "" {
		missing = append(missing, smtpServerEnv)
	}
	if m.Username == "" {
		missing = append(missing, smtpUserEnv)
	}
	if m.Password == "" {
		missing = append(missing, smtpPasswordEnv)
	}
	return missing
}

// Sender is the From address, defaulting to the SMTP user.
func (m MailConfig) Sender() string {
	if m.From != "" {
		return m.From
	}
	return m.Username
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram" toml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken" toml:"botToken"`
	ChatID   string `yaml:"chatId" toml:"chatId"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ArchiveConfig selects the SQL run archive. An empty driver disables it.
type ArchiveConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
}

// SchedulerConfig defines how often watch mode runs the workflow.
type SchedulerConfig struct {
	Interval string         `yaml:"interval" toml:"interval"`
	Timezone string         `yaml:"timezone" toml:"timezone"`
	location *time.Location `yaml:"-" toml:"-"`
}

// Every is the parsed interval, one day when unset or invalid.
func (s SchedulerConfig) Every() time.Duration {
	return parseDuration(s.Interval, defaultInterval)
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads .env, the config file (if any) and environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	return cfg
}

// Validate fails with a configuration error when SMTP settings are absent.
func (c Config) Validate() error {
	if missing := c.Mail.Missing(); len(missing) > 0 {
		return xerrors.New(xerrors.CodeConfiguration,
			"Missing SMTP settings in .env file: "+strings.Join(missing, ", "),
			xerrors.WithMetadata("missing", strings.Join(missing, ",")))
	}
	if c.LLM.APIKey == "" {
		log.Printf("config: no %s key set, model calls will degrade to defaults", c.LLM.Provider)
	}
	return nil
}

func readFile(path string) (Config, error) {
	var fileCfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, fmt.Errorf("cannot read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, &fileCfg)
	default:
		err = yaml.Unmarshal(raw, &fileCfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	switch c.LLM.Provider {
	case ProviderGemini:
		if v := os.Getenv(geminiKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
		defaults := defaultConfig().LLM
		if c.LLM.Model == defaults.Model {
			c.LLM.Model = "gemini-2.0-flash"
		}
		if c.LLM.Endpoint == defaults.Endpoint {
			c.LLM.Endpoint = ""
		}
	default:
		if v := os.Getenv(openAIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
		if v := os.Getenv(openAIModelEnv); v != "" {
			c.LLM.Model = v
		}
	}

	if v := os.Getenv(memoryPathEnv); v != "" {
		c.Memory.Path = v
	}
	if v := os.Getenv(recipientEnv); v != "" {
		c.Workflow.Recipient = v
	}

	if v := os.Getenv(smtpServerEnv); v != "" {
		c.Mail.Host = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Mail.Port = port
		} else {
			log.Printf("config: invalid %s %q, keeping %d", smtpPortEnv, v, c.Mail.Port)
		}
	}
	if v := os.Getenv(smtpUserEnv); v != "" {
		c.Mail.Username = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Mail.Password = v
	}

	if v := os.Getenv(archiveDriverEnv); v != "" {
		c.Archive.Driver = v
	}
	if v := os.Getenv(archiveDSNEnv); v != "" {
		c.Archive.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = strings.ToLower(override.LLM.Provider)
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}
	if override.LLM.TimeoutSeconds != 0 {
		base.LLM.TimeoutSeconds = override.LLM.TimeoutSeconds
	}

	if override.Memory.Path != "" {
		base.Memory.Path = override.Memory.Path
	}

	w := override.Workflow
	if w.Goal != "" {
		base.Workflow.Goal = w.Goal
	}
	if w.Recipient != "" {
		base.Workflow.Recipient = w.Recipient
	}
	if w.Subject != "" {
		base.Workflow.Subject = w.Subject
	}
	if w.Filename != "" {
		base.Workflow.Filename = w.Filename
	}
	if w.ArticleCount > 0 {
		base.Workflow.ArticleCount = w.ArticleCount
	}
	if w.NewsURL != "" {
		base.Workflow.NewsURL = w.NewsURL
	}
	if w.CacheSource != "" {
		base.Workflow.CacheSource = w.CacheSource
	}
	if w.SampleFallback != nil {
		base.Workflow.SampleFallback = w.SampleFallback
	}
	if w.RetryDelayUnit != "" {
		base.Workflow.RetryDelayUnit = w.RetryDelayUnit
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	if override.Mail.Host != "" {
		base.Mail.Host = override.Mail.Host
	}
	if override.Mail.Port != 0 {
		base.Mail.Port = override.Mail.Port
	}
	if override.Mail.Username != "" {
		base.Mail.Username = override.Mail.Username
	}
	if override.Mail.Password != "" {
		base.Mail.Password = override.Mail.Password
	}
	if override.Mail.From != "" {
		base.Mail.From = override.Mail.From
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Archive.Driver != "" {
		base.Archive = override.Archive
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	return base
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("config: invalid duration %q, using %s", raw, fallback)
		return fallback
	}
	return d
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			Provider:       ProviderOpenAI,
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			SystemPrompt:   "You are a news assistant. Answer exactly in the format the user asks for.",
			TimeoutSeconds: defaultLLMTimeout,
		},
		Memory: MemoryConfig{Path: "agent_memory.json"},
		Workflow: WorkflowConfig{
			Goal:           "Fetch the latest AI news, pick the most relevant articles and email me a summary",
			Subject:        "AI News & Robotics Summary",
			Filename:       "ai_news_articles.docx",
			ArticleCount:   3,
			NewsURL:        "https://www.artificialintelligence-news.com/artificial-intelligence-news/",
			CacheSource:    "ai_news",
			RetryDelayUnit: defaultRetryDelayUnit.String(),
		},
		Sites: []SiteConfig{
			{
				Name:       "artificialintelligence-news",
				Scanner:    "selectors",
				Categories: []CategoryConfig{{Name: "latest", URL: "https://www.artificialintelligence-news.com/artificial-intelligence-news/"}},
			},
			{
				Name:       "venturebeat-ai",
				Scanner:    "selectors",
				Categories: []CategoryConfig{{Name: "ai", URL: "https://venturebeat.com/ai/"}},
			},
			{
				Name:       "theverge-ai",
				Scanner:    "selectors",
				Categories: []CategoryConfig{{Name: "ai", URL: "https://www.theverge.com/ai-artificial-intelligence"}},
			},
			{
				Name:       "techcrunch-ai",
				Scanner:    "selectors",
				Categories: []CategoryConfig{{Name: "ai", URL: "https://techcrunch.com/category/artificial-intelligence/"}},
			},
		},
		Mail:      MailConfig{Port: defaultSMTPPort},
		Scheduler: SchedulerConfig{Interval: defaultInterval.String(), Timezone: defaultTimezone, location: tz},
	}
}
