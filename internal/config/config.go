package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Service names accepted by Validate.
const (
	ServiceDirectory = "directory"
	ServiceChecklist = "checklist"
)

// Checklist store backends.
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
)

// Config aggregates runtime configuration for both services.
type Config struct {
	App          AppConfig
	Keycloak     KeycloakConfig
	Store        StoreConfig
	DynamoDB     DynamoDBConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Logger       LoggerConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	DirectoryPort         string
	ChecklistPort         string
	Version               string
	RequestTimeoutSeconds int
	CORSAllowedOrigins    string
}

// KeycloakConfig locates the identity provider realm and the confidential client
// used for password and client-credentials grants.
type KeycloakConfig struct {
	URL                string
	Realm              string
	ClientID           string
	ClientSecret       string
	HTTPTimeoutSeconds int
	CacheAdminToken    bool
}

// StoreConfig selects the checklist persistence backend.
type StoreConfig struct {
	Backend string
}

// DynamoDBConfig holds table access values. Credentials come from the SDK default chain.
type DynamoDBConfig struct {
	Region    string
	TableName string
	Endpoint  string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig bounds login attempts per client IP.
type RateLimitConfig struct {
	LoginPerSecond float64
	LoginBurst     int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	loginRate, err := strconv.ParseFloat(getEnv("LOGIN_RATE_PER_SECOND", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_PER_SECOND: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "planmeet"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			DirectoryPort:         getEnv("DIRECTORY_PORT", "5001"),
			ChecklistPort:         getEnv("CHECKLIST_PORT", "5002"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSAllowedOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Keycloak: KeycloakConfig{
			URL:                strings.TrimRight(os.Getenv("KEYCLOAK_URL"), "/"),
			Realm:              os.Getenv("KEYCLOAK_REALM"),
			ClientID:           os.Getenv("KEYCLOAK_CLIENT_ID"),
			ClientSecret:       os.Getenv("KEYCLOAK_CLIENT_SECRET"),
			HTTPTimeoutSeconds: getEnvAsInt("KEYCLOAK_HTTP_TIMEOUT_SECONDS", 0),
			CacheAdminToken:    getEnvAsBool("KEYCLOAK_ADMIN_TOKEN_CACHE", false),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("CHECKLIST_STORE", StoreDynamoDB)),
		},
		DynamoDB: DynamoDBConfig{
			Region:    getEnv("AWS_REGION", "us-east-1"),
			TableName: os.Getenv("DYNAMODB_TABLE_NAME"),
			Endpoint:  os.Getenv("DYNAMODB_ENDPOINT"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		RateLimit: RateLimitConfig{
			LoginPerSecond: loginRate,
			LoginBurst:     getEnvAsInt("LOGIN_RATE_BURST", 10),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Validate checks that the values required by the named service are present.
func (c *Config) Validate(service string) error {
	var errs []error
	if c.Keycloak.URL == "" {
		errs = append(errs, errors.New("KEYCLOAK_URL is required"))
	}
	if c.Keycloak.Realm == "" {
		errs = append(errs, errors.New("KEYCLOAK_REALM is required"))
	}

	switch service {
	case ServiceDirectory:
		if c.Keycloak.ClientID == "" {
			errs = append(errs, errors.New("KEYCLOAK_CLIENT_ID is required"))
		}
		if c.Keycloak.ClientSecret == "" {
			errs = append(errs, errors.New("KEYCLOAK_CLIENT_SECRET is required"))
		}
		if c.Keycloak.CacheAdminToken && c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when KEYCLOAK_ADMIN_TOKEN_CACHE is enabled"))
		}
	case ServiceChecklist:
		switch c.Store.Backend {
		case StoreDynamoDB:
			if c.DynamoDB.TableName == "" {
				errs = append(errs, errors.New("DYNAMODB_TABLE_NAME is required"))
			}
		case StorePostgres:
			if c.Postgres.DSN == "" {
				errs = append(errs, errors.New("POSTGRES_DSN is required"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown CHECKLIST_STORE %q", c.Store.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown service %q", service))
	}
	return errors.Join(errs...)
}

// DirectoryAddr returns the directory service bind address.
func (a AppConfig) DirectoryAddr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.DirectoryPort)
}

// ChecklistAddr returns the checklist service bind address.
func (a AppConfig) ChecklistAddr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.ChecklistPort)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IssuerURL is the realm issuer, matched against the iss claim.
func (k KeycloakConfig) IssuerURL() string {
	return fmt.Sprintf("%s/realms/%s", k.URL, k.Realm)
}

// TokenURL is the realm OpenID Connect token endpoint.
func (k KeycloakConfig) TokenURL() string {
	return k.IssuerURL() + "/protocol/openid-connect/token"
}

// CertsURL is the realm JWKS endpoint.
func (k KeycloakConfig) CertsURL() string {
	return k.IssuerURL() + "/protocol/openid-connect/certs"
}

// HTTPTimeout returns the outbound timeout; zero leaves the client default.
func (k KeycloakConfig) HTTPTimeout() time.Duration {
	if k.HTTPTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(k.HTTPTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
