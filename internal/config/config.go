package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	JWTSecret       string
	AccessTokenTTL  string
	RefreshTokenTTL string

	Log      string
	LogLevel string
	Env      string // dev|prod

	SMSProvider string // console|http
	SMSAPIURL   string
	SMSAPIKey   string
	SMSSender   string
	SMSTimeout  string

	RecoveryCleanupInterval string
	// per-IP recovery initiations per minute; 0 disables the limit
	RecoveryInitiateLimit   int
	CORSOrigins             []string
}

// LoadConfig reads .env (if present) and the environment, filling in defaults.
// It does not log: the logger is built from its result.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port:      def(os.Getenv("PORT"), "8080"),
		DbHost:    os.Getenv("DB_HOST"),
		DbPort:    def(os.Getenv("DB_PORT"), "5432"),
		DbUser:    os.Getenv("DB_USER"),
		DbPass:    os.Getenv("DB_PASSWORD"),
		DbName:    os.Getenv("DB_NAME"),
		DbSSLMode: def(os.Getenv("DB_SSLMODE"), "disable"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  def(os.Getenv("ACCESS_TOKEN_EXPIRY"), "15m"),
		RefreshTokenTTL: def(os.Getenv("REFRESH_TOKEN_EXPIRY"), "720h"),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "prod")),

		SMSProvider: strings.ToLower(def(os.Getenv("SMS_PROVIDER"), "console")),
		SMSAPIURL:   os.Getenv("SMS_API_URL"),
		SMSAPIKey:   os.Getenv("SMS_API_KEY"),
		SMSSender:   os.Getenv("SMS_SENDER"),
		SMSTimeout:  def(os.Getenv("SMS_TIMEOUT"), "10s"),

		RecoveryCleanupInterval: def(os.Getenv("RECOVERY_CLEANUP_INTERVAL"), "10m"),
		CORSOrigins:             splitList(def(os.Getenv("CORS_ORIGINS"), "*")),
	}

	limit, err := strconv.Atoi(def(os.Getenv("RECOVERY_INITIATE_LIMIT"), "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECOVERY_INITIATE_LIMIT: %w", err)
	}
	cfg.RecoveryInitiateLimit = limit

	return cfg, nil
}

// Validate returns non-fatal warnings, or an error when the service cannot start.
func (c *Config) Validate() (warnings []string, err error) {
	if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
		return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
	}

	// signs both access tokens and password reset tokens
	if strings.TrimSpace(c.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}

	for name, v := range map[string]string{
		"ACCESS_TOKEN_EXPIRY":       c.AccessTokenTTL,
		"REFRESH_TOKEN_EXPIRY":      c.RefreshTokenTTL,
		"SMS_TIMEOUT":               c.SMSTimeout,
		"RECOVERY_CLEANUP_INTERVAL": c.RecoveryCleanupInterval,
	} {
		if _, perr := time.ParseDuration(v); perr != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, perr)
		}
	}

	switch c.SMSProvider {
	case "console":
		if c.Env == "prod" {
			warnings = append(warnings, "SMS_PROVIDER=console in prod: verification codes only go to logs")
		}
	case "http":
		if c.SMSAPIURL == "" {
			return nil, fmt.Errorf("SMS_PROVIDER=http requires SMS_API_URL")
		}
		if c.SMSAPIKey == "" {
			warnings = append(warnings, "SMS_API_KEY is empty")
		}
	default:
		return nil, fmt.Errorf("unknown SMS_PROVIDER %q", c.SMSProvider)
	}

	if c.RecoveryInitiateLimit <= 0 {
		warnings = append(warnings, "RECOVERY_INITIATE_LIMIT disabled: recovery SMS is not throttled per IP")
	}

	if c.Port == "" {
		warnings = append(warnings, "PORT is empty, using default 8080")
	}

	return warnings, nil
}

// Durations parses the token TTLs. Only meaningful after Validate succeeded.
func (c *Config) Durations() (accessTTL, refreshTTL time.Duration) {
	accessTTL, _ = time.ParseDuration(c.AccessTokenTTL)
	refreshTTL, _ = time.ParseDuration(c.RefreshTokenTTL)
	return accessTTL, refreshTTL
}

// GetDSN returns the full DSN, password included.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe masks the password, for logs.
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
