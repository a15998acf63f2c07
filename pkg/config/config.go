package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Beacon   BeaconConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	JWT      JWTConfig
	Admin    AdminConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type BeaconConfig struct {
	DefaultCallback   string
	PlaceholderPrefix string
	ContentSelector   string
	WeightOffline     float64
	WeightVisitor     float64
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Enabled     bool
	RedisHost   string
	RedisPort   string
	Password    string
	RedisDB     int
	CustomerTTL time.Duration
}

type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

type AdminConfig struct {
	Username     string
	PasswordHash string
}

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	SelectorStatic = "static"
	SelectorRanked = "ranked"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	requestTimeout, err := getDuration("SERVER_REQUEST_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	customerTTL, err := getDuration("REDIS_CUSTOMER_TTL", time.Minute)
	if err != nil {
		return nil, err
	}

	jwtTTL, err := getDuration("JWT_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}

	weightOffline, err := getFloat("BEACON_WEIGHT_OFFLINE", 0.7)
	if err != nil {
		return nil, err
	}

	weightVisitor, err := getFloat("BEACON_WEIGHT_VISITOR", 0.3)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "APE Beacon"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			RequestTimeout: requestTimeout,
		},
		Beacon: BeaconConfig{
			DefaultCallback:   getEnv("BEACON_DEFAULT_CALLBACK", "_ape.callback"),
			PlaceholderPrefix: getEnv("BEACON_PLACEHOLDER_PREFIX", "ape"),
			ContentSelector:   getEnv("BEACON_CONTENT_SELECTOR", SelectorStatic),
			WeightOffline:     weightOffline,
			WeightVisitor:     weightVisitor,
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", StoreMemory),
			SQLitePath: getEnv("STORE_SQLITE_PATH", "data/ape.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "ape_beacon"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:     getEnv("REDIS_ENABLED", "false") == "true",
			RedisHost:   getEnv("REDIS_HOST", "localhost"),
			RedisPort:   getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			RedisDB:     redisDB,
			CustomerTTL: customerTTL,
		},
		MQTT: MQTTConfig{
			BrokerURL:   getEnv("MQTT_BROKER_URL", ""),
			ClientID:    getEnv("MQTT_CLIENT_ID", "ape-beacon"),
			TopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "ape"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
			TTL:       jwtTTL,
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.Database.Password == "" {
			return errors.New("missing database password")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Beacon.ContentSelector {
	case SelectorStatic, SelectorRanked:
	default:
		return fmt.Errorf("unknown content selector %q", c.Beacon.ContentSelector)
	}

	if c.Admin.PasswordHash != "" && c.JWT.SecretKey == "" {
		return errors.New("missing jwt secret")
	}

	return nil
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return f, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}
