package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Redis    RedisConfig    `json:"redis" mapstructure:"redis"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	LLM      LLMConfig      `json:"llm" mapstructure:"llm"`
	Chat     ChatConfig     `json:"chat" mapstructure:"chat"`
}

type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// RedisConfig addresses the session/message store. Addr is mandatory:
// the conversational path cannot run without it.
type RedisConfig struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
}

// DatabaseConfig is the optional durable sink (facts table, transcript
// flush on session end). An empty DSN disables it.
type DatabaseConfig struct {
	DSN string `json:"dsn" mapstructure:"dsn"`
}

type LLMConfig struct {
	APIKey  string        `json:"api_key" mapstructure:"api_key"`
	Model   string        `json:"model" mapstructure:"model"`
	BaseURL string        `json:"base_url,omitempty" mapstructure:"base_url"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

type ChatConfig struct {
	MaxItems        int           `json:"max_items" mapstructure:"max_items"`
	TTL             time.Duration `json:"ttl" mapstructure:"ttl"`
	TokenCeiling    int           `json:"token_ceiling" mapstructure:"token_ceiling"`
	TokenReserve    int           `json:"token_reserve" mapstructure:"token_reserve"`
	SummaryMaxChars int           `json:"summary_max_chars" mapstructure:"summary_max_chars"`
	PersonaLabel    string        `json:"persona_label" mapstructure:"persona_label"`
	Language        string        `json:"language" mapstructure:"language"`
}

var (
	ErrRedisAddrRequired = errors.New("redis address is required (set MONDAY_REDIS_ADDR)")
	ErrAPIKeyRequired    = errors.New("LLM API key is required (set MONDAY_OPENAI_API_KEY)")
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("chat.max_items", 1000)
	viper.SetDefault("chat.ttl", "720h")
	viper.SetDefault("chat.token_ceiling", 8000)
	viper.SetDefault("chat.token_reserve", 1000)
	viper.SetDefault("chat.summary_max_chars", 1200)
	viper.SetDefault("chat.persona_label", "monday")
	viper.SetDefault("chat.language", "ko")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; env vars and defaults carry the rest.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	if cfg.Redis.Addr == "" {
		return nil, ErrRedisAddrRequired
	}
	if cfg.LLM.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("MONDAY_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("MONDAY_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if addr := os.Getenv("MONDAY_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("MONDAY_REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}
	if db := os.Getenv("MONDAY_REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = n
		}
	}

	if dsn := os.Getenv("MONDAY_DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	} else if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if key := os.Getenv("MONDAY_OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if model := os.Getenv("MONDAY_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if base := os.Getenv("MONDAY_OPENAI_BASE_URL"); base != "" {
		cfg.LLM.BaseURL = base
	}

	if v := os.Getenv("MONDAY_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Chat.MaxItems = n
		}
	}
	if v := os.Getenv("MONDAY_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Chat.TTL = d
		}
	}
	if v := os.Getenv("MONDAY_PERSONA"); v != "" {
		cfg.Chat.PersonaLabel = v
	}
}
