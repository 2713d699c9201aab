package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	// Telegram
	BotToken       string
	SuperAdminTgID int64

	// Application
	AppEnv      string
	AppPort     string
	HTTPEnabled bool
	LogLevel    string

	// Storage
	StorageDriver string
	DataFile      string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	// Rate Limiting
	RateLimitPerUser       int
	RateLimitPerRoom       int
	RateLimitWindowSeconds int

	// Game
	Game GameConfig

	// Admin
	BroadcastConcurrency int
}

// GameConfig holds the round tunables. It can be overlaid from a YAML file.
type GameConfig struct {
	RoundSeconds      int   `yaml:"round_seconds"`
	PacingSeconds     int   `yaml:"pacing_seconds"`
	BaseReward        int64 `yaml:"base_reward"`
	SpeedBonus        int64 `yaml:"speed_bonus"`
	SpeedBonusSeconds int   `yaml:"speed_bonus_seconds"`
	HintCost          int64 `yaml:"hint_cost"`
	MinParticipants   int   `yaml:"min_participants"`
	LeaderboardSize   int   `yaml:"leaderboard_size"`
}

func LoadConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorageConfig loads the configuration for offline tools, which only
// touch storage and run without a bot token.
func LoadStorageConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := &Config{
		BotToken: getEnv("BOT_TOKEN", ""),

		AppEnv:      getEnv("APP_ENV", "development"),
		AppPort:     getEnv("APP_PORT", "8080"),
		HTTPEnabled: getEnvBool("HTTP_ENABLED", false),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StorageDriver: getEnv("STORAGE_DRIVER", StorageFile),
		DataFile:      getEnv("DATA_FILE", "quiz_data.json"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "triviabot"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "triviabot_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisKey:      getEnv("REDIS_KEY", "trivia:document"),

		RateLimitPerUser:       getEnvInt("RATE_LIMIT_PER_USER", 20),
		RateLimitPerRoom:       getEnvInt("RATE_LIMIT_PER_ROOM", 120),
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),

		Game: GameConfig{
			RoundSeconds:      getEnvInt("ROUND_SECONDS", 20),
			PacingSeconds:     getEnvInt("PACING_SECONDS", 2),
			BaseReward:        getEnvInt64("BASE_REWARD", 10),
			SpeedBonus:        getEnvInt64("SPEED_BONUS", 5),
			SpeedBonusSeconds: getEnvInt("SPEED_BONUS_SECONDS", 5),
			HintCost:          getEnvInt64("HINT_COST", 5),
			MinParticipants:   getEnvInt("MIN_PARTICIPANTS", 2),
			LeaderboardSize:   getEnvInt("LEADERBOARD_SIZE", 3),
		},

		BroadcastConcurrency: getEnvInt("BROADCAST_CONCURRENCY", 8),
	}

	// The original deployment used ADMIN_ID; keep it as a fallback.
	superAdminStr := getEnv("SUPER_ADMIN_TELEGRAM_ID", getEnv("ADMIN_ID", ""))
	if superAdminStr != "" {
		id, err := strconv.ParseInt(superAdminStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SUPER_ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.SuperAdminTgID = id
	}

	if path := getEnv("GAME_CONFIG_PATH", ""); path != "" {
		if err := cfg.Game.LoadOverlay(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadOverlay replaces tunables with the non-zero values found in a YAML file.
func (g *GameConfig) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read game config: %w", err)
	}

	var overlay GameConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse game config: %w", err)
	}

	if overlay.RoundSeconds != 0 {
		g.RoundSeconds = overlay.RoundSeconds
	}
	if overlay.PacingSeconds != 0 {
		g.PacingSeconds = overlay.PacingSeconds
	}
	if overlay.BaseReward != 0 {
		g.BaseReward = overlay.BaseReward
	}
	if overlay.SpeedBonus != 0 {
		g.SpeedBonus = overlay.SpeedBonus
	}
	if overlay.SpeedBonusSeconds != 0 {
		g.SpeedBonusSeconds = overlay.SpeedBonusSeconds
	}
	if overlay.HintCost != 0 {
		g.HintCost = overlay.HintCost
	}
	if overlay.MinParticipants != 0 {
		g.MinParticipants = overlay.MinParticipants
	}
	if overlay.LeaderboardSize != 0 {
		g.LeaderboardSize = overlay.LeaderboardSize
	}
	return nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	return c.Game.Validate()
}

// ValidateStorage checks the storage settings only; offline commands such as
// import and export need it without a bot token.
func (c *Config) ValidateStorage() error {
	switch c.StorageDriver {
	case StorageFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the file storage driver")
		}
	case StorageMemory:
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis storage driver")
		}
	case StoragePostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

func (g GameConfig) Validate() error {
	if g.RoundSeconds <= 0 {
		return fmt.Errorf("ROUND_SECONDS must be positive")
	}
	if g.PacingSeconds < 0 {
		return fmt.Errorf("PACING_SECONDS must not be negative")
	}
	if g.BaseReward <= 0 {
		return fmt.Errorf("BASE_REWARD must be positive")
	}
	if g.SpeedBonus < 0 || g.SpeedBonusSeconds < 0 {
		return fmt.Errorf("SPEED_BONUS and SPEED_BONUS_SECONDS must not be negative")
	}
	if g.HintCost <= 0 {
		return fmt.Errorf("HINT_COST must be positive")
	}
	if g.MinParticipants < 1 {
		return fmt.Errorf("MIN_PARTICIPANTS must be at least 1")
	}
	if g.LeaderboardSize < 1 {
		return fmt.Errorf("LEADERBOARD_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.SuperAdminTgID == 0 {
		return fmt.Errorf("SUPER_ADMIN_TELEGRAM_ID must be set in production")
	}
	if c.StorageDriver == StorageMemory {
		return fmt.Errorf("STORAGE_DRIVER=memory loses all scores on restart and is not allowed in production")
	}
	if c.StorageDriver == StoragePostgres && c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetRateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (g GameConfig) RoundDuration() time.Duration {
	return time.Duration(g.RoundSeconds) * time.Second
}

func (g GameConfig) PacingPause() time.Duration {
	return time.Duration(g.PacingSeconds) * time.Second
}

func (g GameConfig) SpeedBonusWindow() time.Duration {
	return time.Duration(g.SpeedBonusSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
