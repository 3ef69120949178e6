package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

/* ---------- raw structs ---------- */

type PostgresConfig struct {
	Host, User, Password, DBName, SSLMode string
	Port                                  int
}

type MongoConfig struct {
	URI, Database string
}

type RedisConfig struct {
	Addr, Password string
	DB             int
}

type SMTPConfig struct {
	Host, Username, Password, From string
	Port                           int
}

type DKIMConfig struct {
	Domain, Selector, KeyFile string
}

type OTPConfig struct {
	MaxRequests int
	Window      time.Duration
}

type Config struct {
	WebHost, JWTSecret, MunicipalityCSV, Storage, NATSURL string
	WebPort                                               int
	JWTTTL                                                time.Duration
	Postgres                                              PostgresConfig
	Mongo                                                 MongoConfig
	Redis                                                 RedisConfig
	SMTP                                                  SMTPConfig
	DKIM                                                  DKIMConfig
	OTP                                                   OTPConfig

	// OperatorToken unlocks the dataset re-import endpoint. Empty disables it.
	OperatorToken string
}

const (
	StorageExternal = "external"
	StorageMemory   = "memory"
)

// InMemory reports whether every repository should use the in-process store.
func (c Config) InMemory() bool { return c.Storage == StorageMemory }

/* ---------- loader ---------- */

// Load reads the optional config file set on viper, applies defaults and
// then the ECOFY_* environment overrides.
func Load() (Config, error) {
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8082)
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", 5432)
	viper.SetDefault("postgres.sslmode", "disable")
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "ecofy")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("dkim.selector", "mail")
	viper.SetDefault("jwt_ttl", "24h")
	viper.SetDefault("municipality_csv", "municipality_dataset.csv")
	viper.SetDefault("storage", StorageExternal)
	viper.SetDefault("otp.max_requests", 5)
	viper.SetDefault("otp.window", "15m")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	c := Config{
		WebHost:         viper.GetString("web.host"),
		WebPort:         viper.GetInt("web.port"),
		JWTSecret:       viper.GetString("jwt_secret"),
		JWTTTL:          viper.GetDuration("jwt_ttl"),
		MunicipalityCSV: viper.GetString("municipality_csv"),
		Storage:         viper.GetString("storage"),
		NATSURL:         viper.GetString("nats.url"),
		OperatorToken:   viper.GetString("operator_token"),
		Postgres: PostgresConfig{
			Host:     viper.GetString("postgres.host"),
			Port:     viper.GetInt("postgres.port"),
			User:     viper.GetString("postgres.user"),
			Password: viper.GetString("postgres.password"),
			DBName:   viper.GetString("postgres.name"),
			SSLMode:  viper.GetString("postgres.sslmode"),
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("mongo.uri"),
			Database: viper.GetString("mongo.database"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("smtp.host"),
			Port:     viper.GetInt("smtp.port"),
			Username: viper.GetString("smtp.username"),
			Password: viper.GetString("smtp.password"),
			From:     viper.GetString("smtp.from"),
		},
		DKIM: DKIMConfig{
			Domain:   viper.GetString("dkim.domain"),
			Selector: viper.GetString("dkim.selector"),
			KeyFile:  viper.GetString("dkim.key_file"),
		},
		OTP: OTPConfig{
			MaxRequests: viper.GetInt("otp.max_requests"),
			Window:      viper.GetDuration("otp.window"),
		},
	}

	// ---- OVERRIDE WITH ENV VARS ----
	if v := os.Getenv("ECOFY_STORAGE"); v != "" {
		c.Storage = v
	}
	if v := os.Getenv("ECOFY_WEB_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.WebPort)
	}
	if v := os.Getenv("ECOFY_POSTGRES_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("ECOFY_POSTGRES_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.Postgres.Port)
	}
	if v := os.Getenv("ECOFY_POSTGRES_USER"); v != "" {
		c.Postgres.User = v
	}
	if v := os.Getenv("ECOFY_POSTGRES_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("ECOFY_POSTGRES_NAME"); v != "" {
		c.Postgres.DBName = v
	}
	if v := os.Getenv("ECOFY_MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("ECOFY_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("ECOFY_NATS_URL"); v != "" {
		c.NATSURL = v
	}
	if v := os.Getenv("ECOFY_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("ECOFY_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("ECOFY_SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("ECOFY_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("ECOFY_MUNICIPALITY_CSV"); v != "" {
		c.MunicipalityCSV = v
	}
	if v := os.Getenv("ECOFY_OPERATOR_TOKEN"); v != "" {
		c.OperatorToken = v
	}

	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.Storage != StorageExternal && c.Storage != StorageMemory {
		return Config{}, fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.JWTSecret == "" {
		if !c.InMemory() {
			return Config{}, fmt.Errorf("jwt_secret is required")
		}
		c.JWTSecret = "dev-secret"
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.Username
	}

	return c, nil
}
