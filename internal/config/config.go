package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackupLocal = "local"
	BackupRedis = "redis"

	SummaryNone   = "none"
	SummaryClaude = "claude"
)

type Config struct {
	ListenAddr       string
	DBPath           string
	PhotoPath        string
	BackupBackend    string
	BackupPath       string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	BackupTTL        time.Duration
	AutosaveInterval time.Duration
	ActivityTimeout  time.Duration
	JWTSecret        string
	JWTIssuer        string
	SummaryBackend   string
	ClaudeAPIKey     string
	ClaudeModel      string
	LogLevel         string
	LogFile          string
}

// Load reads the configuration from the environment. Variables from the
// file named by ENV_FILE (default .env) are applied first without
// overriding variables that are already set; a missing file is ignored.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		DBPath:         getEnv("DB_PATH", "/data/housecheck.db"),
		PhotoPath:      getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		BackupBackend:  getEnv("BACKUP_BACKEND", BackupLocal),
		BackupPath:     getEnv("BACKUP_LOCAL_PATH", "/data/backups"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", ""),
		SummaryBackend: getEnv("SUMMARY_BACKEND", SummaryNone),
		ClaudeAPIKey:   getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BackupTTL, err = getEnvDuration("BACKUP_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AutosaveInterval, err = getEnvDuration("AUTOSAVE_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ActivityTimeout, err = getEnvDuration("ACTIVITY_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server needs. The migrate and templates
// commands do not call it.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.BackupBackend {
	case BackupLocal, BackupRedis:
	default:
		return fmt.Errorf("unknown BACKUP_BACKEND %q", c.BackupBackend)
	}
	switch c.SummaryBackend {
	case SummaryNone:
	case SummaryClaude:
		if c.ClaudeAPIKey == "" {
			return errors.New("CLAUDE_API_KEY is required when SUMMARY_BACKEND=claude")
		}
	default:
		return fmt.Errorf("unknown SUMMARY_BACKEND %q", c.SummaryBackend)
	}
	if c.AutosaveInterval <= 0 {
		return errors.New("AUTOSAVE_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
