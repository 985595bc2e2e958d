package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"fanpool/database"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// HTTP configuration
	HTTPAddr string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Redis configuration (optional, enables the distributed scan limiter and settlement lock)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS configuration (optional)
	NATSServers string

	// Discord announcer configuration (optional)
	DiscordToken     string
	DiscordGuildID   string
	DiscordChannelID string

	// Ledger configuration
	StartingBalance decimal.Decimal
	MinStakeAmount  decimal.Decimal
	PoolCurrency    string

	// Pool & fee configuration
	FeeCeilingPercent decimal.Decimal

	// StakeTierCoefficients maps stake tier (1..3) to its settlement coefficient.
	// A pool injection may override these per event.
	StakeTierCoefficients map[int]decimal.Decimal

	// ParticipationTiers maps participation type to the tier it earns.
	ParticipationTiers map[string]ParticipationTier

	// Participation configuration
	ScanRateLimitPerHour int

	// Settlement configuration
	SettlementLockTTL time.Duration

	// Environment
	Environment string // "development", "production" or "test"
	LogLevel    string
}

// ParticipationTier is the tier and multiplier earned by a participation type
type ParticipationTier struct {
	Tier       int
	Multiplier decimal.Decimal
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// RedisEnabled reports whether a Redis address has been configured
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is normal outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	config := &Config{
		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		NATSServers: os.Getenv("NATS_SERVERS"),

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID:   os.Getenv("DISCORD_GUILD_ID"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		PoolCurrency: getEnvWithDefault("POOL_CURRENCY", "PTS"),

		ScanRateLimitPerHour: 5,
		SettlementLockTTL:    2 * time.Minute,

		Environment: os.Getenv("ENVIRONMENT"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
	}

	var err error
	if config.StartingBalance, err = getDecimalWithDefault("STARTING_BALANCE", "1000"); err != nil {
		return nil, err
	}
	if config.MinStakeAmount, err = getDecimalWithDefault("MIN_STAKE_AMOUNT", "1"); err != nil {
		return nil, err
	}
	if config.FeeCeilingPercent, err = getDecimalWithDefault("FEE_CEILING_PERCENT", "20"); err != nil {
		return nil, err
	}

	if config.StakeTierCoefficients, err = ParseStakeTierCoefficients(getEnvWithDefault("STAKE_TIER_COEFFICIENTS", DefaultStakeTierCoefficients)); err != nil {
		return nil, fmt.Errorf("invalid STAKE_TIER_COEFFICIENTS: %w", err)
	}
	if config.ParticipationTiers, err = ParseParticipationTiers(getEnvWithDefault("PARTICIPATION_TIERS", DefaultParticipationTiers)); err != nil {
		return nil, fmt.Errorf("invalid PARTICIPATION_TIERS: %w", err)
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		if parsed, err := strconv.Atoi(db); err == nil {
			config.RedisDB = parsed
		}
	}
	if limit := os.Getenv("SCAN_RATE_LIMIT_PER_HOUR"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			config.ScanRateLimitPerHour = parsed
		}
	}
	if ttl := os.Getenv("SETTLEMENT_LOCK_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			config.SettlementLockTTL = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if config.DiscordToken != "" && config.DiscordChannelID == "" {
			return nil, fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDecimalWithDefault(key, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnvWithDefault(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	coefficients, _ := ParseStakeTierCoefficients(DefaultStakeTierCoefficients)
	tiers, _ := ParseParticipationTiers(DefaultParticipationTiers)
	return &Config{
		HTTPAddr:              ":0",
		Environment:           "test",
		LogLevel:              "debug",
		StartingBalance:       decimal.NewFromInt(1000),
		MinStakeAmount:        decimal.NewFromInt(1),
		PoolCurrency:          "PTS",
		FeeCeilingPercent:     decimal.NewFromInt(20),
		StakeTierCoefficients: coefficients,
		ParticipationTiers:    tiers,
		ScanRateLimitPerHour:  5,
		SettlementLockTTL:     time.Minute,
	}
}
