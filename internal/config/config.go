package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Secrets (processor key, webhook secrets,
// email key, field encryption key) are required: a missing secret halts
// startup rather than silently disabling the behaviour it protects,
// so webhook signature verification can never be switched off by
// omission.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret string // secret used to verify platform-issued access tokens

	AMQPURL string // broker URL for listing/pricing/settlement events

	ProcessorBaseURL     string // payment processor API base URL
	ProcessorAPIKey      string // payment processor API key
	PaymentWebhookSecret string // signing secret for the payment-events webhook
	AccountWebhookSecret string // signing secret for the connected-account webhook

	EmailBaseURL string // email delivery API base URL
	EmailAPIKey  string // email delivery API key
	EmailSender  string // From address for buyer/seller notifications

	StorageBaseURL string // object storage API base URL
	StorageAPIKey  string // object storage API key

	IdentityBaseURL string // identity provider API base URL
	IdentityAPIKey  string // identity provider API key

	FieldEncryptionKey string // hex AES-256 key for banking fields

	OnboardingRefreshURL string // redirect when an onboarding link expires
	OnboardingReturnURL  string // redirect after onboarding completes

	FeeBps        int // percentage part of the markup, in basis points
	FeeFixedCents int // fixed part of the markup, in minor units
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret: must("JWT_SECRET"),

		AMQPURL: os.Getenv("RABBITMQ_URL"), // queue code falls back to the local default

		ProcessorBaseURL:     must("PROCESSOR_BASE_URL"),
		ProcessorAPIKey:      must("PROCESSOR_API_KEY"),
		PaymentWebhookSecret: must("PAYMENT_WEBHOOK_SECRET"),
		AccountWebhookSecret: must("ACCOUNT_WEBHOOK_SECRET"),

		EmailBaseURL: must("EMAIL_BASE_URL"),
		EmailAPIKey:  must("EMAIL_API_KEY"),
		EmailSender:  must("EMAIL_SENDER"),

		StorageBaseURL: must("STORAGE_BASE_URL"),
		StorageAPIKey:  must("STORAGE_API_KEY"),

		IdentityBaseURL: must("IDENTITY_BASE_URL"),
		IdentityAPIKey:  must("IDENTITY_API_KEY"),

		FieldEncryptionKey: must("FIELD_ENCRYPTION_KEY"),

		OnboardingRefreshURL: must("ONBOARDING_REFRESH_URL"),
		OnboardingReturnURL:  must("ONBOARDING_RETURN_URL"),

		FeeBps:        mustInt("FEE_BPS"),
		FeeFixedCents: mustInt("FEE_FIXED_CENTS"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
