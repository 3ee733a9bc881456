package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth modes.
const (
	AuthModeStatic   = "static"   // allow-list from VALID_API_KEYS
	AuthModeDatabase = "database" // peppered hash lookup in Postgres
	AuthModeDemo     = "demo"     // no key check, reduced text limit
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	TTS      TTSConfig
	Limits   LimitsConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Mode         string
	APIKeys      []string // static mode allow-list
	Pepper       string   // database mode key-hash pepper
	AdminToken   string
	APIKeyHeader string
}

type TTSConfig struct {
	EdgeBinPath   string
	EdgeTimeout   time.Duration
	RemoteURL     string
	RemoteMethod  string
	RemoteTimeout time.Duration
	OpenAIKey     string
	OpenAIModel   string
	MaxRetries    int
	BackoffBase   time.Duration
	BackoffOffset time.Duration
	MinAudioBytes int
}

type LimitsConfig struct {
	MaxTextChars     int // authenticated requests
	DemoMaxTextChars int // demo-mode requests
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("TTS_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_MAX_RETRIES: %w", err)
	}

	minAudio, err := getEnvInt("TTS_MIN_AUDIO_BYTES", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_MIN_AUDIO_BYTES: %w", err)
	}

	maxText, err := getEnvInt("MAX_TEXT_CHARS", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_TEXT_CHARS: %w", err)
	}

	demoMaxText, err := getEnvInt("DEMO_MAX_TEXT_CHARS", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid DEMO_MAX_TEXT_CHARS: %w", err)
	}

	edgeTimeout, err := getEnvDuration("TTS_EDGE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_EDGE_TIMEOUT: %w", err)
	}

	remoteTimeout, err := getEnvDuration("TTS_REMOTE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_REMOTE_TIMEOUT: %w", err)
	}

	backoffBase, err := getEnvDuration("TTS_BACKOFF_BASE", time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_BACKOFF_BASE: %w", err)
	}

	backoffOffset, err := getEnvDuration("TTS_BACKOFF_OFFSET", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_BACKOFF_OFFSET: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			Mode:         getEnv("AUTH_MODE", ""),
			APIKeys:      splitList(getEnv("VALID_API_KEYS", "")),
			Pepper:       getEnv("API_KEY_PEPPER", ""),
			AdminToken:   getEnv("ADMIN_TOKEN", ""),
			APIKeyHeader: getEnv("API_KEY_HEADER", "x-api-key"),
		},
		TTS: TTSConfig{
			EdgeBinPath:   getEnv("TTS_EDGE_BIN", "edge-tts"),
			EdgeTimeout:   edgeTimeout,
			RemoteURL:     getEnv("TTS_REMOTE_URL", ""),
			RemoteMethod:  getEnv("TTS_REMOTE_METHOD", "GET"),
			RemoteTimeout: remoteTimeout,
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("TTS_OPENAI_MODEL", ""),
			MaxRetries:    maxRetries,
			BackoffBase:   backoffBase,
			BackoffOffset: backoffOffset,
			MinAudioBytes: minAudio,
		},
		Limits: LimitsConfig{
			MaxTextChars:     maxText,
			DemoMaxTextChars: demoMaxText,
		},
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = inferAuthMode(cfg)
	}

	return cfg, nil
}

// inferAuthMode picks the strongest mode the configuration supports.
func inferAuthMode(cfg *Config) string {
	switch {
	case cfg.Database.URL != "" && cfg.Auth.Pepper != "":
		return AuthModeDatabase
	case len(cfg.Auth.APIKeys) > 0:
		return AuthModeStatic
	default:
		return AuthModeDemo
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate rejects configurations that would fail at request time.
// Demo mode is lenient on purpose: it is the degraded operating mode for
// environments with nothing configured.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeDatabase:
		var missing []string
		if c.Database.URL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if c.Auth.Pepper == "" {
			missing = append(missing, "API_KEY_PEPPER")
		}
		if len(missing) > 0 {
			return fmt.Errorf("auth mode %q requires: %s", c.Auth.Mode, strings.Join(missing, ", "))
		}
	case AuthModeStatic:
		if len(c.Auth.APIKeys) == 0 {
			return fmt.Errorf("auth mode %q requires VALID_API_KEYS", c.Auth.Mode)
		}
	case AuthModeDemo:
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
