package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Order    OrderConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// StorageConfig selects the persistence backend. "memory" keeps everything
// in process; "postgres" uses the database settings below.
type StorageConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type OrderConfig struct {
	// EnforceStatusFlow restricts admin status updates to the legal
	// pending -> processing -> shipped -> delivered progression (cancellation
	// allowed before shipping). Off means any valid status may be written.
	EnforceStatusFlow bool
}

type SeedConfig struct {
	// Enabled populates an empty store with the default admin account and
	// base categories at startup
	Enabled       bool
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

func Load() *Config {
	// .env values become process env vars so viper.AutomaticEnv picks them up
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("STORAGE_DRIVER", "memory")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("ORDER_ENFORCE_STATUS_FLOW", true)
	viper.SetDefault("SEED_ENABLED", true)
	viper.SetDefault("SEED_ADMIN_USERNAME", "admin")
	viper.SetDefault("SEED_ADMIN_PASSWORD", "admin123")
	viper.SetDefault("SEED_ADMIN_EMAIL", "admin@shopsmart.local")

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Storage: StorageConfig{
			Driver: viper.GetString("STORAGE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			Enabled:  viper.GetBool("REDIS_ENABLED"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Order: OrderConfig{
			EnforceStatusFlow: viper.GetBool("ORDER_ENFORCE_STATUS_FLOW"),
		},
		Seed: SeedConfig{
			Enabled:       viper.GetBool("SEED_ENABLED"),
			AdminUsername: viper.GetString("SEED_ADMIN_USERNAME"),
			AdminPassword: viper.GetString("SEED_ADMIN_PASSWORD"),
			AdminEmail:    viper.GetString("SEED_ADMIN_EMAIL"),
		},
	}
}
