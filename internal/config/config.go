// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package config provides layered configuration loading via Koanf v2.
//
// Sources are merged in priority order (highest wins):
//
//  1. Environment variables with the SECURECROP_ prefix
//  2. Config file (config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Models    ModelsConfig    `koanf:"models"`
	Screening ScreeningConfig `koanf:"screening"`
	Weather   WeatherConfig   `koanf:"weather"`
	Guide     GuideConfig     `koanf:"guide"`
	Market    MarketConfig    `koanf:"market"`
	Notify    NotifyConfig    `koanf:"notify"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit"`
	RateWindow      time.Duration `koanf:"rate_window"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file; ":memory:" for ephemeral storage.
	Path string `koanf:"path"`
	// CachePath is the directory for the badger result cache.
	CachePath string `koanf:"cache_path"`
}

// LoggingConfig holds log settings passed to the logging package.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ModelsConfig locates the trained model artifacts.
type ModelsConfig struct {
	// Dir is the directory holding rf_model.json, nb_model.json,
	// scaler.json, label_encoder.json and anomaly_detector.json.
	Dir string `koanf:"dir"`
}

// ScreeningConfig tunes the security screening layer.
type ScreeningConfig struct {
	// ConfidenceThreshold is the minimum post-prediction confidence
	// before a LOW_CONFIDENCE audit entry is written.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
	// AnomalyContamination is the expected share of outliers used when
	// the anomaly detector is fitted lazily.
	AnomalyContamination float64 `koanf:"anomaly_contamination"`
	// AnomalyTrainingSamples is the synthetic sample count for lazy fitting.
	AnomalyTrainingSamples int `koanf:"anomaly_training_samples"`
	// AnomalySeed fixes the RNG seed so the fitted artifact is reproducible.
	AnomalySeed int64 `koanf:"anomaly_seed"`
}

// WeatherConfig holds OpenWeatherMap integration settings.
type WeatherConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	PollEnabled  bool          `koanf:"poll_enabled"`
	PollInterval time.Duration `koanf:"poll_interval"`
	// DefaultLat/DefaultLon are used when a request omits coordinates.
	DefaultLat float64 `koanf:"default_lat"`
	DefaultLon float64 `koanf:"default_lon"`
}

// GuideConfig holds the generative farming-guide integration settings.
type GuideConfig struct {
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	Timeout     time.Duration `koanf:"timeout"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
}

// MarketConfig holds Overpass place-search settings.
type MarketConfig struct {
	Endpoints     []string      `koanf:"endpoints"`
	Timeout       time.Duration `koanf:"timeout"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	DefaultRadius int           `koanf:"default_radius"`
	MaxRadius     int           `koanf:"max_radius"`
}

// NotifyConfig holds webhook notification settings.
type NotifyConfig struct {
	WebhookURL     string        `koanf:"webhook_url"`
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8642,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       120,
			RateWindow:      time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "securecrop.db",
			CachePath: "cache",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Models: ModelsConfig{
			Dir: "models",
		},
		Screening: ScreeningConfig{
			ConfidenceThreshold:    0.5,
			AnomalyContamination:   0.1,
			AnomalyTrainingSamples: 500,
			AnomalySeed:            42,
		},
		Weather: WeatherConfig{
			BaseURL:      "https://api.openweathermap.org/data/2.5",
			Timeout:      10 * time.Second,
			CacheTTL:     10 * time.Minute,
			PollEnabled:  false,
			PollInterval: time.Hour,
			DefaultLat:   3.1390, // Kuala Lumpur
			DefaultLon:   101.6869,
		},
		Guide: GuideConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.0-flash",
			Timeout:     30 * time.Second,
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		Market: MarketConfig{
			Endpoints: []string{
				"https://overpass-api.de/api/interpreter",
				"https://overpass.kumi.systems/api/interpreter",
				"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
			},
			Timeout:       25 * time.Second,
			CacheTTL:      10 * time.Minute,
			DefaultRadius: 10000,
			MaxRadius:     50000,
		},
		Notify: NotifyConfig{
			WebhookTimeout: 10 * time.Second,
		},
	}
}

// Validate checks the configuration for inconsistent or unusable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Models.Dir == "" {
		return fmt.Errorf("models.dir must not be empty")
	}
	if c.Screening.ConfidenceThreshold < 0 || c.Screening.ConfidenceThreshold > 1 {
		return fmt.Errorf("screening.confidence_threshold %.2f out of [0,1]",
			c.Screening.ConfidenceThreshold)
	}
	if c.Screening.AnomalyContamination <= 0 || c.Screening.AnomalyContamination >= 0.5 {
		return fmt.Errorf("screening.anomaly_contamination %.2f out of (0,0.5)",
			c.Screening.AnomalyContamination)
	}
	if c.Screening.AnomalyTrainingSamples < 10 {
		return fmt.Errorf("screening.anomaly_training_samples %d too small",
			c.Screening.AnomalyTrainingSamples)
	}
	if c.Market.DefaultRadius <= 0 || c.Market.DefaultRadius > c.Market.MaxRadius {
		return fmt.Errorf("market.default_radius %d out of (0,%d]",
			c.Market.DefaultRadius, c.Market.MaxRadius)
	}
	if len(c.Market.Endpoints) == 0 {
		return fmt.Errorf("market.endpoints must not be empty")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
