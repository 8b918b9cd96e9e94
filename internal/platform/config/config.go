package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-wide configuration. It is built once in main and
// passed by reference; nothing mutates it after construction.
type Config struct {
	Addr string

	// Inference provider settings. Resolver and enricher may use different
	// models but share one OpenAI-compatible endpoint.
	ProviderBaseURL string
	ProviderAPIKey  string
	ResolverModel   string
	EnricherModel   string
	ProviderTimeout time.Duration

	// Storage. PostgresURL takes precedence; RedisURL is the lighter
	// alternative; with neither set the in-memory store is used.
	PostgresURL   string
	RedisURL      string
	RedisCacheTTL time.Duration

	// Optional audit event stream. Empty disables publishing.
	KafkaBrokers string

	// Jurisdictions is the fixed ISO 3166-1 alpha-2 set every enrichment
	// call covers.
	Jurisdictions []string

	RefreshConcurrency int
}

// DefaultJurisdictions is the per-jurisdiction coverage used when
// REGLENS_JURISDICTIONS is unset.
var DefaultJurisdictions = []string{
	"US", "CA", "GB", "DE", "FR", "NL", "PT", "ES", "IT", "CH",
	"AU", "NZ", "JP", "BR", "MX",
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() *Config {
	cfg := &Config{
		Addr:               envOr("REGLENS_ADDR", ":8080"),
		ProviderBaseURL:    envOr("REGLENS_PROVIDER_URL", "https://api.openai.com/v1"),
		ProviderAPIKey:     os.Getenv("REGLENS_PROVIDER_KEY"),
		ResolverModel:      envOr("REGLENS_RESOLVER_MODEL", "gpt-4o-mini"),
		EnricherModel:      envOr("REGLENS_ENRICHER_MODEL", "gpt-4o"),
		ProviderTimeout:    envDuration("REGLENS_PROVIDER_TIMEOUT", 30*time.Second),
		PostgresURL:        os.Getenv("REGLENS_POSTGRES_URL"),
		RedisURL:           os.Getenv("REGLENS_REDIS_URL"),
		RedisCacheTTL:      envDuration("REGLENS_REDIS_CACHE_TTL", 0),
		KafkaBrokers:       os.Getenv("REGLENS_KAFKA_BROKERS"),
		Jurisdictions:      DefaultJurisdictions,
		RefreshConcurrency: envInt("REGLENS_REFRESH_CONCURRENCY", 4),
	}

	if raw := os.Getenv("REGLENS_JURISDICTIONS"); raw != "" {
		var codes []string
		for _, c := range strings.Split(raw, ",") {
			c = strings.ToUpper(strings.TrimSpace(c))
			if len(c) == 2 {
				codes = append(codes, c)
			}
		}
		if len(codes) > 0 {
			cfg.Jurisdictions = codes
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
