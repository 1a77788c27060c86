package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Secret material (SMTP password, AWS keys) is injected through the
// environment only; it is never hard-coded and never logged.
type Config struct {
	AppPort string
	AppEnv  string

	// StoreDriver selects the credential store: "dynamo" (default) or
	// "memory" (local development and tests).
	StoreDriver string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	Verify VerifyPolicy

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Credentials string
}

// VerifyPolicy holds the issuance policy knobs. Formats and TTLs are
// explicit configuration, not per-deployment forks.
type VerifyPolicy struct {
	DefaultFormat  string        // "token" | "code"
	DefaultTTL     time.Duration // applied when the request omits ttl_seconds
	TokenLength    int
	CodeLength     int
	LinkBaseURL    string        // base for rendered verification links
	ResendCooldown time.Duration // 0 disables the per-owner issue cooldown
	// InvalidatePrior deletes an owner's outstanding credentials when a new
	// one is issued. Off by default: multiple simultaneously valid
	// credentials per owner are allowed.
	InvalidatePrior bool
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		StoreDriver: getEnv("STORE_DRIVER", "dynamo"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Credentials: getEnv("DYNAMO_TABLE_CREDENTIALS", "verification_credentials"),
		},

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		Verify: VerifyPolicy{
			DefaultFormat:   getEnv("VERIFY_DEFAULT_FORMAT", "token"),
			DefaultTTL:      time.Duration(getEnvInt("VERIFY_DEFAULT_TTL_SECONDS", 120)) * time.Second,
			TokenLength:     getEnvInt("VERIFY_TOKEN_LENGTH", 22),
			CodeLength:      getEnvInt("VERIFY_CODE_LENGTH", 6),
			LinkBaseURL:     getEnv("VERIFY_LINK_BASE_URL", "http://localhost:3000"),
			ResendCooldown:  time.Duration(getEnvInt("VERIFY_RESEND_COOLDOWN_SECONDS", 0)) * time.Second,
			InvalidatePrior: getEnvBool("VERIFY_INVALIDATE_PRIOR", false),
		},

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
