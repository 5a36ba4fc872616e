// Package config loads service configuration with viper and builds the
// zap logger.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/matcher"
	"github.com/postcode-matcher/internal/proximity"
	"github.com/postcode-matcher/internal/search"
)

type AppConfig struct {
	Port      string `mapstructure:"port"`
	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type DatasetConfig struct {
	Source          string        `mapstructure:"source"`
	CSVPath         string        `mapstructure:"csv_path"`
	DuckDBPath      string        `mapstructure:"duckdb_path"`
	DuckDBTable     string        `mapstructure:"duckdb_table"`
	PostgresDSN     string        `mapstructure:"postgres_dsn"`
	PostgresTable   string        `mapstructure:"postgres_table"`
	MongoURI        string        `mapstructure:"mongo_uri"`
	MongoDatabase   string        `mapstructure:"mongo_database"`
	MongoCollection string        `mapstructure:"mongo_collection"`
	ReloadInterval  time.Duration `mapstructure:"reload_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type MatchingConfig struct {
	FuzzyThreshold       float64 `mapstructure:"fuzzy_threshold"`
	PhoneticSimilarity   float64 `mapstructure:"phonetic_similarity"`
	DefaultLimit         int     `mapstructure:"default_limit"`
	MaxLimit             int     `mapstructure:"max_limit"`
	MaxSuggestions       int     `mapstructure:"max_suggestions"`
	EnableFuzzy          bool    `mapstructure:"enable_fuzzy"`
	EnablePhonetic       bool    `mapstructure:"enable_phonetic"`
	AutocompleteMinChars int     `mapstructure:"autocomplete_min_chars"`
}

type GeoConfig struct {
	DefaultRadiusKm   float64 `mapstructure:"default_radius_km"`
	MaxRadiusKm       float64 `mapstructure:"max_radius_km"`
	NeighbourRadiusKm float64 `mapstructure:"neighbour_radius_km"`
	MaxNeighbours     int     `mapstructure:"max_neighbours"`
	H3Resolution      int     `mapstructure:"h3_resolution"`
	GeohashPrecision  int     `mapstructure:"geohash_precision"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Size     int           `mapstructure:"size"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type MeilisearchConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	APIKey    string        `mapstructure:"api_key"`
	Index     string        `mapstructure:"index"`
	BatchSize int           `mapstructure:"batch_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Config is the full service configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Dataset     DatasetConfig     `mapstructure:"dataset"`
	Matching    MatchingConfig    `mapstructure:"matching"`
	Geo         GeoConfig         `mapstructure:"geo"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Meilisearch MeilisearchConfig `mapstructure:"meilisearch"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("dataset.source", "csv")
	v.SetDefault("dataset.csv_path", "data/australian_postcodes.csv")
	v.SetDefault("dataset.duckdb_path", "data/postcodes.duckdb")
	v.SetDefault("dataset.duckdb_table", "locations")
	v.SetDefault("dataset.postgres_dsn", "postgres://localhost:5432/postcodes?sslmode=disable")
	v.SetDefault("dataset.postgres_table", "locations")
	v.SetDefault("dataset.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("dataset.mongo_database", "postcodes")
	v.SetDefault("dataset.mongo_collection", "locations")
	v.SetDefault("dataset.reload_interval", "0s")
	v.SetDefault("dataset.timeout", "60s")

	v.SetDefault("matching.fuzzy_threshold", 0.70)
	v.SetDefault("matching.phonetic_similarity", 0.60)
	v.SetDefault("matching.default_limit", 10)
	v.SetDefault("matching.max_limit", 100)
	v.SetDefault("matching.max_suggestions", 5)
	v.SetDefault("matching.enable_fuzzy", true)
	v.SetDefault("matching.enable_phonetic", true)
	v.SetDefault("matching.autocomplete_min_chars", 2)

	v.SetDefault("geo.default_radius_km", 10.0)
	v.SetDefault("geo.max_radius_km", 500.0)
	v.SetDefault("geo.neighbour_radius_km", 8.0)
	v.SetDefault("geo.max_neighbours", 50)
	v.SetDefault("geo.h3_resolution", 7)
	v.SetDefault("geo.geohash_precision", 7)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 1000)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.prefix", "pcm:")

	v.SetDefault("meilisearch.enabled", false)
	v.SetDefault("meilisearch.url", "http://localhost:7700")
	v.SetDefault("meilisearch.api_key", "")
	v.SetDefault("meilisearch.index", "localities")
	v.SetDefault("meilisearch.batch_size", 1000)
	v.SetDefault("meilisearch.timeout", "30s")
}

// Load reads config/app.yaml (if present) and environment overrides.
// MATCHING_FUZZY_THRESHOLD overrides matching.fuzzy_threshold and so on.
// An explicit file path, when given, must exist.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Matching.FuzzyThreshold = clamp01(cfg.Matching.FuzzyThreshold)
	cfg.Matching.PhoneticSimilarity = clamp01(cfg.Matching.PhoneticSimilarity)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Dataset.Source {
	case "csv", "duckdb", "postgres", "mongo":
	default:
		errs = append(errs, fmt.Errorf("dataset.source: unknown source %q", c.Dataset.Source))
	}
	if c.Dataset.ReloadInterval < 0 {
		errs = append(errs, errors.New("dataset.reload_interval: must not be negative"))
	}
	if c.Matching.DefaultLimit < 1 {
		errs = append(errs, errors.New("matching.default_limit: must be at least 1"))
	}
	if c.Matching.MaxLimit < c.Matching.DefaultLimit {
		errs = append(errs, errors.New("matching.max_limit: must be >= matching.default_limit"))
	}
	if c.Matching.MaxSuggestions < 0 {
		errs = append(errs, errors.New("matching.max_suggestions: must not be negative"))
	}
	if c.Matching.AutocompleteMinChars < 1 {
		errs = append(errs, errors.New("matching.autocomplete_min_chars: must be at least 1"))
	}
	if c.Geo.MaxRadiusKm <= 0 {
		errs = append(errs, errors.New("geo.max_radius_km: must be positive"))
	}
	if c.Geo.DefaultRadiusKm <= 0 || c.Geo.DefaultRadiusKm > c.Geo.MaxRadiusKm {
		errs = append(errs, errors.New("geo.default_radius_km: must be within (0, max_radius_km]"))
	}
	if c.Geo.NeighbourRadiusKm <= 0 || c.Geo.NeighbourRadiusKm > c.Geo.MaxRadiusKm {
		errs = append(errs, errors.New("geo.neighbour_radius_km: must be within (0, max_radius_km]"))
	}
	if c.Geo.MaxNeighbours < 1 {
		errs = append(errs, errors.New("geo.max_neighbours: must be at least 1"))
	}
	if c.Geo.H3Resolution < 0 || c.Geo.H3Resolution > 15 {
		errs = append(errs, errors.New("geo.h3_resolution: must be within [0, 15]"))
	}
	if c.Geo.GeohashPrecision < 1 || c.Geo.GeohashPrecision > 12 {
		errs = append(errs, errors.New("geo.geohash_precision: must be within [1, 12]"))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, errors.New("cache.size: must not be negative"))
	}
	if c.Meilisearch.Enabled && c.Meilisearch.BatchSize < 1 {
		errs = append(errs, errors.New("meilisearch.batch_size: must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether app.env is production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// MatcherConfig returns the match engine tuning.
func (c *Config) MatcherConfig() matcher.Config {
	return matcher.Config{
		FuzzyThreshold:     c.Matching.FuzzyThreshold,
		PhoneticSimilarity: c.Matching.PhoneticSimilarity,
		MaxLimit:           c.Matching.MaxLimit,
		EnableFuzzy:        c.Matching.EnableFuzzy,
		EnablePhonetic:     c.Matching.EnablePhonetic,
	}
}

// ProximityConfig returns the radius query bounds.
func (c *Config) ProximityConfig() proximity.Config {
	return proximity.Config{
		MaxRadiusKm: c.Geo.MaxRadiusKm,
		MaxLimit:    c.Matching.MaxLimit,
	}
}

// SourceConfig returns the dataset source settings.
func (c *Config) SourceConfig() dataset.SourceConfig {
	return dataset.SourceConfig{
		Kind:            c.Dataset.Source,
		CSVPath:         c.Dataset.CSVPath,
		DuckDBPath:      c.Dataset.DuckDBPath,
		DuckDBTable:     c.Dataset.DuckDBTable,
		PostgresDSN:     c.Dataset.PostgresDSN,
		PostgresTable:   c.Dataset.PostgresTable,
		MongoURI:        c.Dataset.MongoURI,
		MongoDatabase:   c.Dataset.MongoDatabase,
		MongoCollection: c.Dataset.MongoCollection,
		Timeout:         c.Dataset.Timeout,
	}
}

// BuildOptions returns the snapshot derivation settings.
func (c *Config) BuildOptions() dataset.BuildOptions {
	return dataset.BuildOptions{
		H3Resolution:     c.Geo.H3Resolution,
		GeohashPrecision: c.Geo.GeohashPrecision,
	}
}

// SearchConfig returns the Meilisearch settings.
func (c *Config) SearchConfig() search.Config {
	return search.Config{
		URL:       c.Meilisearch.URL,
		APIKey:    c.Meilisearch.APIKey,
		Index:     c.Meilisearch.Index,
		BatchSize: c.Meilisearch.BatchSize,
		Timeout:   c.Meilisearch.Timeout,
	}
}

// NewLogger builds the process logger: production JSON output when
// app.env is production or log_format is json, development console
// output otherwise.
func NewLogger(c AppConfig) (*zap.Logger, error) {
	var zc zap.Config
	if c.Env == "production" || c.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if c.LogLevel != "" {
		level, err := zapcore.ParseLevel(c.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("app.log_level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
