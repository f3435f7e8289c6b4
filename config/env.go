package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all environment configuration
type Config struct {
	// Database
	DatabaseHost     string `validate:"required"`
	DatabasePort     string `validate:"required,numeric"`
	PostgresUser     string `validate:"required"`
	PostgresPassword string
	DatabaseName     string `validate:"required"`

	// Authentication
	JWTSecret string `validate:"required"`

	// Kafka
	KafkaBroker       string `validate:"required,hostname_port"`
	ReportTopic       string `validate:"required"`
	NotificationTopic string `validate:"required"`
	JobTopic          string `validate:"required"`
	JobConsumerGroup  string `validate:"required"`

	// Discord - optional
	DiscordBotToken  string
	DiscordChannelID string `validate:"required_with=DiscordBotToken"`

	// Scoring
	VarianceTolerance float64 `validate:"gt=0"`
	AwardCatalogPath  string

	// Other
	ServerAddress string `validate:"required"`
}

var (
	appConfig *Config
	onceEnv   sync.Once
)

func loadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		DatabaseHost:     getEnvWithDefault("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnvWithDefault("DATABASE_PORT", "5432"),
		PostgresUser:     getEnvWithDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnvWithDefault("POSTGRES_PASSWORD", "postgres"),
		DatabaseName:     getEnvWithDefault("DATABASE_NAME", "postgres"),

		JWTSecret: getEnvWithDefault("JWT_SECRET", "dummyjwt"),

		KafkaBroker:       getEnvWithDefault("KAFKA_BROKER", "localhost:9092"),
		ReportTopic:       getEnvWithDefault("REPORT_TOPIC", "scorekeeper-reports"),
		NotificationTopic: getEnvWithDefault("NOTIFICATION_TOPIC", "scorekeeper-notifications"),
		JobTopic:          getEnvWithDefault("JOB_TOPIC", "scorekeeper-jobs"),
		JobConsumerGroup:  getEnvWithDefault("JOB_CONSUMER_GROUP", "scorekeeper-workers"),

		DiscordBotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		VarianceTolerance: getEnvAsFloat("VARIANCE_TOLERANCE", 5.0),
		AwardCatalogPath:  os.Getenv("AWARD_CATALOG_PATH"),

		ServerAddress: getEnvWithDefault("SERVER_ADDRESS", ":8000"),
	}
	if IsProduction() {
		config.JWTSecret = getEnv("JWT_SECRET")
	}
	return config
}

func Env() *Config {
	onceEnv.Do(func() {
		appConfig = loadConfig()
	})
	return appConfig
}

// Validate checks the loaded configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DatabaseHost, c.DatabasePort, c.PostgresUser, c.PostgresPassword, c.DatabaseName)
}

// Helper functions
func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" && IsProduction() {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var value float64
	_, err := fmt.Sscanf(valueStr, "%g", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// IsProduction returns true if running in production
func IsProduction() bool {
	return getEnvWithDefault("ENVIRONMENT", "development") == "production"
}

// IsDevelopment returns true if running in development
func IsDevelopment() bool {
	return !IsProduction()
}
