package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	AllowedOrigin string
	// Catalog (upstream product API)
	CatalogBaseURL string
	CatalogTimeout time.Duration
	// Search behaviour
	SearchPageSize    int
	SearchMaxPageSize int
	SearchDebounce    time.Duration
	SearchSuggestions int
	SessionTTL        time.Duration
	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
	// Thumbnail optimiser
	ImageMaxWidth     int
	ImageQuality      float32
	ImageAllowedHosts []string
}

func LoadConfig() (*Config, error) {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		CatalogBaseURL: strings.TrimSuffix(getEnv("CATALOG_BASE_URL", "https://dummyjson.com"), "/"),
		CatalogTimeout: getDurationEnv("CATALOG_TIMEOUT", 10*time.Second),

		// Page defaults mirror the storefront grid: 20 per page, 400ms debounce, 6 suggestions
		SearchPageSize:    getIntEnv("SEARCH_PAGE_SIZE", 20),
		SearchMaxPageSize: getIntEnv("SEARCH_MAX_PAGE_SIZE", 100),
		SearchDebounce:    getDurationEnv("SEARCH_DEBOUNCE", 400*time.Millisecond),
		SearchSuggestions: getIntEnv("SEARCH_SUGGESTIONS", 6),
		SessionTTL:        getDurationEnv("SESSION_TTL", 30*time.Minute),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),

		ImageMaxWidth:     getIntEnv("IMAGE_MAX_WIDTH", 1200),
		ImageQuality:      float32(getFloatEnv("IMAGE_QUALITY", 80)),
		ImageAllowedHosts: getListEnv("IMAGE_ALLOWED_HOSTS", []string{"cdn.dummyjson.com"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.CatalogBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CATALOG_BASE_URL must be an absolute http(s) URL, got %q", c.CatalogBaseURL)
	}
	if c.SearchMaxPageSize < 1 {
		return fmt.Errorf("SEARCH_MAX_PAGE_SIZE must be positive, got %d", c.SearchMaxPageSize)
	}
	if c.SearchPageSize < 1 || c.SearchPageSize > c.SearchMaxPageSize {
		return fmt.Errorf("SEARCH_PAGE_SIZE must be within [1, %d], got %d", c.SearchMaxPageSize, c.SearchPageSize)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative, got %s", c.SearchDebounce)
	}
	if c.SearchSuggestions < 0 {
		return fmt.Errorf("SEARCH_SUGGESTIONS must not be negative, got %d", c.SearchSuggestions)
	}
	if c.ImageMaxWidth < 1 {
		return fmt.Errorf("IMAGE_MAX_WIDTH must be positive, got %d", c.ImageMaxWidth)
	}
	return nil
}

// CatalogHost is the host of the upstream catalog, always allowed for thumbnails.
func (c *Config) CatalogHost() string {
	u, err := url.Parse(c.CatalogBaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}
