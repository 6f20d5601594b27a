// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	DB        DBConfig        `mapstructure:"db"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior for both services.
type ServerConfig struct {
	ScrapePort    int `mapstructure:"scrape_port"`
	RecommendPort int `mapstructure:"recommend_port"`
}

// PubSubConfig names the broker and the topics events flow through.
type PubSubConfig struct {
	ProjectID            string `mapstructure:"project_id"`
	Endpoint             string `mapstructure:"endpoint"`
	TopicScrapeRaw       string `mapstructure:"topic_scrape_raw"`
	TopicScrapeProcessed string `mapstructure:"topic_scrape_processed"`
	TopicSourceCreated   string `mapstructure:"topic_source_created"`
	TopicNoteCreated     string `mapstructure:"topic_note_created"`
}

// ScraperConfig governs outbound fetch behavior.
type ScraperConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	MaxRetries     int    `mapstructure:"max_retries"`
	ISBNLookupURL  string `mapstructure:"isbn_lookup_url"`
}

// EmbeddingConfig selects the embedding model. An empty endpoint uses the
// local hashing model; otherwise a remote OpenAI-compatible backend.
type EmbeddingConfig struct {
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
	Endpoint  string `mapstructure:"endpoint"`
}

// RecommendConfig tunes the recommendation engine. MinInteractions is the
// activation threshold for collaborative filtering; it is declared here but
// unused while that strategy is stubbed.
type RecommendConfig struct {
	MinInteractions int `mapstructure:"min_interactions"`
}

// DBConfig controls the optional Postgres-backed source store. An empty DSN
// keeps the index memory-only.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	SourcesTable string `mapstructure:"sources_table"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.scrape_port", 8003)
	v.SetDefault("server.recommend_port", 8004)
	v.SetDefault("pubsub.project_id", "bayt-alhikmah")
	v.SetDefault("pubsub.topic_scrape_raw", "scrape.raw")
	v.SetDefault("pubsub.topic_scrape_processed", "scrape.processed")
	v.SetDefault("pubsub.topic_source_created", "source.created")
	v.SetDefault("pubsub.topic_note_created", "note.created")
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.user_agent", "Bayt-al-Hikmah-Bahith/1.0")
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.isbn_lookup_url", "https://openlibrary.org/isbn/%s")
	v.SetDefault("embedding.model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("embedding.dimension", 384)
	v.SetDefault("recommend.min_interactions", 5)
	v.SetDefault("db.sources_table", "sources")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.ScrapePort <= 0 {
		return fmt.Errorf("server.scrape_port must be > 0")
	}
	if c.Server.RecommendPort <= 0 {
		return fmt.Errorf("server.recommend_port must be > 0")
	}
	if c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id is required")
	}
	if c.PubSub.TopicScrapeRaw == "" {
		return fmt.Errorf("pubsub.topic_scrape_raw is required")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if !strings.Contains(c.Scraper.ISBNLookupURL, "%s") {
		return fmt.Errorf("scraper.isbn_lookup_url must contain a %%s verb")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be > 0")
	}
	if c.Recommend.MinInteractions < 0 {
		return fmt.Errorf("recommend.min_interactions must be >= 0")
	}
	return nil
}

// ScrapeTimeout converts the scraper timeout knob into a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}
