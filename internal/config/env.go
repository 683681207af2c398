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

type Config struct {
	Port   string
	AppEnv string

	AIAPIKey string
	GenModel string

	ContentstackAPIBase         string
	ContentstackCDNBase         string
	ContentstackAPIKey          string
	ContentstackManagementToken string
	ContentstackDeliveryToken   string
	ContentstackEnvironment     string
	ContentstackLocale          string
	CMSWriteRate                float64
	CMSTimeout                  time.Duration

	ReadRetryAttempts int
	ReadRetryDelay    time.Duration

	IdpJWTSecret string
	IdpPublicKey string
	IdpIssuer    string

	MaxUploadMB         int
	ChunkSize           int
	IngestChunked       bool
	FAQWriteConcurrency int
	CORSOrigins         []string

	DatabaseURL         string
	DatabaseSSLRootCert string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	AwsEndpoint  string
	BucketName   string
}

// LoadConfig loads the environment variables (and a .env file when present)
// and returns the validated config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		AIAPIKey: getEnv("GEMINI_API_KEY", ""),
		GenModel: getEnv("GEN_MODEL", "gemini-1.5-flash"),

		ContentstackAPIBase:         getEnv("CONTENTSTACK_API_BASE", "https://api.contentstack.io/v3"),
		ContentstackCDNBase:         getEnv("CONTENTSTACK_CDN_BASE", "https://cdn.contentstack.io/v3"),
		ContentstackAPIKey:          getEnv("CONTENTSTACK_API_KEY", ""),
		ContentstackManagementToken: getEnv("CONTENTSTACK_MANAGEMENT_TOKEN", ""),
		ContentstackDeliveryToken:   getEnv("CONTENTSTACK_DELIVERY_TOKEN", ""),
		ContentstackEnvironment:     getEnv("CONTENTSTACK_ENVIRONMENT", "development"),
		ContentstackLocale:          getEnv("CONTENTSTACK_LOCALE", "en-us"),
		CMSWriteRate:                getEnvFloat("CMS_WRITE_RATE", 8),
		CMSTimeout:                  getEnvDuration("CMS_TIMEOUT", 30*time.Second),

		ReadRetryAttempts: getEnvInt("READ_RETRY_ATTEMPTS", 3),
		ReadRetryDelay:    getEnvDuration("READ_RETRY_DELAY", time.Second),

		IdpJWTSecret: getEnv("IDP_JWT_SECRET", ""),
		IdpPublicKey: getEnv("IDP_PUBLIC_KEY", ""),
		IdpIssuer:    getEnv("IDP_ISSUER", ""),

		MaxUploadMB:         getEnvInt("MAX_UPLOAD_MB", 32),
		ChunkSize:           getEnvInt("CHUNK_SIZE", 1000),
		IngestChunked:       getEnvBool("INGEST_CHUNKED", false),
		FAQWriteConcurrency: getEnvInt("FAQ_WRITE_CONCURRENCY", 4),
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseSSLRootCert: getEnv("SSL_CERT_PATH", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		AwsEndpoint:  getEnv("AWS_ENDPOINT", ""),
		BucketName:   getEnv("BUCKET_NAME", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	required := []struct{ key, value string }{
		{"GEMINI_API_KEY", c.AIAPIKey},
		{"CONTENTSTACK_API_KEY", c.ContentstackAPIKey},
		{"CONTENTSTACK_MANAGEMENT_TOKEN", c.ContentstackManagementToken},
		{"CONTENTSTACK_DELIVERY_TOKEN", c.ContentstackDeliveryToken},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s not set", r.key))
		}
	}
	if c.IdpJWTSecret == "" && c.IdpPublicKey == "" {
		errs = append(errs, errors.New("one of IDP_JWT_SECRET or IDP_PUBLIC_KEY must be set"))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, errors.New("CHUNK_SIZE must be positive"))
	}
	if c.ReadRetryAttempts < 1 {
		errs = append(errs, errors.New("READ_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.FAQWriteConcurrency < 1 {
		errs = append(errs, errors.New("FAQ_WRITE_CONCURRENCY must be at least 1"))
	}
	return errors.Join(errs...)
}

// ObjectStorageEnabled reports whether uploaded PDFs should be kept in S3.
func (c *Config) ObjectStorageEnabled() bool {
	return c.BucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// RecordIngestionRuns reports whether upload runs are kept in Postgres.
func (c *Config) RecordIngestionRuns() bool {
	return c.DatabaseURL != ""
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
