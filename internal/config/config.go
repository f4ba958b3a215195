package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinJWTSecretLength is the shortest signing secret accepted at startup.
const MinJWTSecretLength = 32

var defaultAllowedOrigins = []string{
	"http://localhost:8080",
	"http://127.0.0.1:8080",
	"https://savannadesignsagency.com",
	"http://savannadesignsagency.com",
}

type Config struct {
	ProjectName string
	Environment string // ENV: production, development, etc.
	Port        string
	LogLevel    string

	MongoURI string
	MongoDB  string
	RedisURI string // optional; enables the shared login limiter

	JWTSecret      string
	AccessTokenTTL time.Duration

	AllowedOrigins []string

	UploadDir           string
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	Mail MailConfig
}

// MailConfig holds outbound SMTP settings.
type MailConfig struct {
	Host        string
	Port        int
	ImplicitTLS bool
	StartTLS    bool // upgrade plain connections; ignored with ImplicitTLS
	Username    string
	Password    string
	FromName    string
	To          string // operator address for submission notifications
}

// Enabled reports whether enough settings are present to send mail.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Username != "" && m.To != ""
}

// Addr returns host:port.
func (m MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// Load reads configuration from the environment. Secrets have no defaults;
// every missing or malformed setting is reported in the returned error.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		ProjectName:         getEnv("PROJECT_NAME", "WeFixIt API"),
		Environment:         strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
		Port:                getEnv("PORT", "8000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MongoURI:            getEnv("MONGO_URI", getEnv("MONGODB_URI", "")),
		MongoDB:             getEnv("MONGO_DB", "wefixit"),
		RedisURI:            getEnv("REDIS_URI", ""),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AllowedOrigins:      parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "wefixit/portfolio"),
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Username: getEnv("EMAIL_USER", ""),
			Password: os.Getenv("EMAIL_PASSWORD"),
			FromName: getEnv("EMAIL_FROM_NAME", "WeFixIt"),
			To:       getEnv("EMAIL_TO", ""),
		},
	}

	if cfg.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(cfg.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}

	minutes, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60)
	if err != nil {
		errs = append(errs, err)
	} else if minutes <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	cfg.AccessTokenTTL = time.Duration(minutes) * time.Minute

	if cfg.Mail.Port, err = getEnvInt("SMTP_PORT", 465); err != nil {
		errs = append(errs, err)
	}
	if cfg.Mail.ImplicitTLS, err = getEnvBool("SMTP_IMPLICIT_TLS", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.Mail.StartTLS, err = getEnvBool("SMTP_STARTTLS", true); err != nil {
		errs = append(errs, err)
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = append([]string(nil), defaultAllowedOrigins...)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// LoadDatabase reads only the MongoDB settings. Used by tools that do not
// serve HTTP and so have no signing secret.
func LoadDatabase() (*Config, error) {
	cfg := &Config{
		Environment: strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MongoURI:    getEnv("MONGO_URI", getEnv("MONGODB_URI", "")),
		MongoDB:     getEnv("MONGO_DB", "wefixit"),
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("invalid configuration: MONGO_URI is required")
	}
	return cfg, nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryEnabled reports whether all Cloudinary credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
