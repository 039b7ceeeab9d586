package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mayssameid/Clash-of-Digits/internal/arena"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Leaderboard struct {
		TTL string `yaml:"ttl"`
	} `yaml:"leaderboard"`
	Arena struct {
		TimeLimit      int    `yaml:"time_limit"`
		Tick           string `yaml:"tick"`
		ResolveDelay   string `yaml:"resolve_delay"`
		ThinkMin       string `yaml:"think_min"`
		ThinkMax       string `yaml:"think_max"`
		AutoAdvance    string `yaml:"auto_advance"`
		PersistTimeout string `yaml:"persist_timeout"`
	} `yaml:"arena"`
	API struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
		Debug          bool     `yaml:"debug"`
	} `yaml:"cors"`
	RateLimit struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		TrustProxy        bool    `yaml:"trust_proxy"`
	} `yaml:"rate_limit"`
}

// LoadDotEnv loads .env files into the process environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Default returns an empty config with environment overrides applied.
func Default() Config {
	cfg := Config{}
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("API_URL"); v != "" {
		c.API.URL = v
	}
}

// ArenaTiming converts the arena section; unset fields keep engine defaults.
func (c Config) ArenaTiming() arena.Timing {
	def := arena.DefaultTiming()
	t := arena.Timing{
		TimeLimit:      c.Arena.TimeLimit,
		Tick:           TTLDuration(c.Arena.Tick, def.Tick),
		ResolveDelay:   TTLDuration(c.Arena.ResolveDelay, def.ResolveDelay),
		ThinkMin:       TTLDuration(c.Arena.ThinkMin, def.ThinkMin),
		ThinkMax:       TTLDuration(c.Arena.ThinkMax, def.ThinkMax),
		AutoAdvance:    TTLDuration(c.Arena.AutoAdvance, 0),
		PersistTimeout: TTLDuration(c.Arena.PersistTimeout, def.PersistTimeout),
	}
	if t.TimeLimit <= 0 {
		t.TimeLimit = def.TimeLimit
	}
	return t
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
