package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	RedisAddr string `yaml:"redis_addr"`
	DBPath    string `yaml:"db_path"`

	PolicyPath string `yaml:"policy_path"`

	OpenAIAPIKey string `yaml:"openai_api_key"`

	RateLimitRequests int    `yaml:"rate_limit_requests"`
	RateLimitWindow   string `yaml:"rate_limit_window"`
	CacheTTL          string `yaml:"cache_ttl"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.RedisAddr, "REDIS_ADDR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.PolicyPath, "POLICY_PATH")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverrideInt(&cfg.RateLimitRequests, "RATE_LIMIT_REQUESTS")
	envOverride(&cfg.RateLimitWindow, "RATE_LIMIT_WINDOW")
	envOverride(&cfg.CacheTTL, "CACHE_TTL")

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.RateLimitRequests == 0 {
		cfg.RateLimitRequests = 5
	}
	if cfg.RateLimitWindow == "" {
		cfg.RateLimitWindow = "1m"
	}
	if cfg.CacheTTL == "" {
		cfg.CacheTTL = "1h"
	}

	return cfg
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid value for %s: %v", key, err)
		}
		*target = n
	}
}

func (c Config) rateLimitWindow() time.Duration {
	d, err := time.ParseDuration(c.RateLimitWindow)
	if err != nil {
		log.Fatalf("Invalid rate_limit_window %q: %v", c.RateLimitWindow, err)
	}
	return d
}

func (c Config) cacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		log.Fatalf("Invalid cache_ttl %q: %v", c.CacheTTL, err)
	}
	return d
}
