package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	GRPC     GRPCConfig
	Render   RenderConfig
	Timeline TimelineConfig
	Data     DataConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type GRPCConfig struct {
	Port int
}

type ServerConfig struct {
	Host          string
	Port          int
	RateLimitRPS  int
	AllowedOrigin string
}

type RenderConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

type TimelineConfig struct {
	FirstYear    int
	LastYear     int
	BaselineYear int
	ViewMode     string
}

type DataConfig struct {
	StatsPath      string
	PopulationPath string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "localhost"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:  getEnvInt("RATE_LIMIT_RPS", 20),
			AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Render: RenderConfig{
			Enabled: getEnvBool("RENDER_ENABLED", true),
			URL:     getEnv("RENDER_URL", "http://localhost:8000/landcover"),
			Timeout: getEnvDuration("RENDER_TIMEOUT", 60*time.Second),
		},
		Timeline: TimelineConfig{
			FirstYear:    getEnvInt("YEAR_FIRST", 2010),
			LastYear:     getEnvInt("YEAR_LAST", 2020),
			BaselineYear: getEnvInt("BASELINE_YEAR", 2010),
			ViewMode:     getEnv("VIEW_MODE", "landcover-burn"),
		},
		Data: DataConfig{
			StatsPath:      getEnv("STATS_PATH", "./data/land_cover_burned_area_stats.json"),
			PopulationPath: getEnv("POPULATION_PATH", "./data/yearly_affected_population.json"),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/landcover.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Timeline.LastYear < c.Timeline.FirstYear {
		return fmt.Errorf("year range is empty: %d..%d", c.Timeline.FirstYear, c.Timeline.LastYear)
	}
	if c.Timeline.BaselineYear < c.Timeline.FirstYear || c.Timeline.BaselineYear > c.Timeline.LastYear {
		return fmt.Errorf("baseline year %d outside %d..%d", c.Timeline.BaselineYear, c.Timeline.FirstYear, c.Timeline.LastYear)
	}
	if c.Timeline.ViewMode == "" {
		return fmt.Errorf("view mode is required")
	}

	if c.Render.Enabled && c.Render.URL == "" {
		return fmt.Errorf("render URL is required when rendering is enabled")
	}
	if c.Render.Timeout < 0 {
		return fmt.Errorf("render timeout must not be negative")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
