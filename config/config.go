package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadEnv loads a .env file when present. A missing file is not an error.
func LoadEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		logrus.WithField("path", path).Info("no env file found, using system environment")
	}
}

// Config returns the raw value of an environment variable.
func Config(key string) string {
	return os.Getenv(key)
}

type GitHubConfig struct {
	Token  string
	Owner  string
	Repo   string
	Branch string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type AppConfig struct {
	Env      string
	LogLevel string
	AppURL   string
	Port     int

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string
	StaffUsername     string
	StaffPasswordHash string

	StoreBackend string
	TicketsPath  string
	ClosuresPath string
	GitHub       GitHubConfig
	DB           DBConfig
	RedisAddr    string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	SMTP         SMTPConfig
	AdminEmail   string
	ContactEmail string
	SupportPhone string

	Cloudinary CloudinaryConfig
}

func Load() (*AppConfig, error) {
	return &AppConfig{
		Env:      getEnvOrDefault("APP_ENV", "development"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		AppURL:   getEnvOrDefault("APP_URL", "http://localhost:5173"),
		Port:     getEnvAsIntOrDefault("PORT", 8002),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminUsername:     getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		StaffUsername:     getEnvOrDefault("STAFF_USERNAME", "accueil"),
		StaffPasswordHash: os.Getenv("STAFF_PASSWORD_HASH"),

		StoreBackend: getEnvOrDefault("STORE_BACKEND", "github"),
		TicketsPath:  getEnvOrDefault("TICKETS_PATH", "data/tickets.json"),
		ClosuresPath: getEnvOrDefault("CLOSURES_PATH", "data/closures.json"),
		GitHub: GitHubConfig{
			Token:  os.Getenv("GITHUB_TOKEN"),
			Owner:  os.Getenv("GITHUB_OWNER"),
			Repo:   os.Getenv("GITHUB_REPO"),
			Branch: getEnvOrDefault("GITHUB_BRANCH", "main"),
		},
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvAsIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnvOrDefault("DB_NAME", "zipline"),
		},
		RedisAddr: os.Getenv("REDIS_ADDR"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            getEnvOrDefault("CURRENCY", "eur"),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvAsIntOrDefault("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),
		ContactEmail: os.Getenv("CONTACT_EMAIL"),
		SupportPhone: getEnvOrDefault("SUPPORT_PHONE", "04 79 00 00 00"),

		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
	}, nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func (c *SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

func (c *CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	logrus.Debugf("Environment variable %s is not set, using default value", key)
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.Warnf("Environment variable %s is not a number, using default value", key)
	}
	return defaultValue
}
