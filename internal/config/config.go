package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"APP_ENV,default=dev"`
	Port int    `env:"PORT,default=8080"`

	DBHost     string `env:"DB_HOST,default=127.0.0.1"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBUser     string `env:"DB_USER,default=schedulehub"`
	DBPassword string `env:"DB_PASSWORD,default=schedulehub"`
	DBName     string `env:"DB_NAME,default=schedulehub"`
	DBSSLMode  string `env:"DB_SSLMODE,default=disable"`
	DBURL      string `env:"DATABASE_URL"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS,default=10"`
	DBConnLifetimeMinutes int   `env:"DB_CONN_LIFETIME_MINUTES,default=30"`

	MigrateOnStart bool `env:"MIGRATE_ON_START,default=false"`

	JWTSecret           string `env:"JWT_SECRET,default=dev-secret-change-me"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES,default=15"`
	JWTRefreshTTLDays   int    `env:"JWT_REFRESH_TTL_DAYS,default=30"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME,default=Platform Admin"`

	// public app URL (billing portal return) and the auth callback base (verification links)
	AppURL  string `env:"APP_URL,default=http://localhost:3000"`
	AuthURL string `env:"AUTH_URL,default=http://localhost:8080"`

	StripeSecretKey    string `env:"STRIPE_SECRET_KEY"`
	GooglePlacesAPIKey string `env:"GOOGLE_PLACES_API_KEY"`
	PlacesBaseURL      string `env:"GOOGLE_PLACES_BASE_URL,default=https://maps.googleapis.com/maps/api/place"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM,default=no-reply@schedulehub.local"`

	OTELEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME,default=schedulehub-api"`

	OTELSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO,default=1"`

	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`

	// requests per minute per client on public auth and proxy routes
	PublicRateLimit int `env:"PUBLIC_RATE_LIMIT,default=30"`
}

// Load reads an optional .env file and decodes the environment into Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	err := envdecode.Decode(&cfg)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}

	return cfg, nil
}

func (c Config) buildDBURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLDays) * 24 * time.Hour
}

func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
