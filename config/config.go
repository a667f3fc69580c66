package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
	// TimeZone is where matching dates and times are interpreted.
	TimeZone string `env:"APP_TIMEZONE,default=Asia/Seoul"`

	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Supabase  SupabaseConfig
	Redis     RedisConfig
	Jobs      JobsConfig
	RateLimit RateLimitConfig
	Export    ExportConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT,default=8080"`
	AllowedOrigins  string        `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver   string `env:"STORE_DRIVER,default=postgres"`
	Host     string `env:"DB_HOST,default=localhost"`
	Port     string `env:"DB_PORT,default=5432"`
	User     string `env:"DB_USER,default=postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME,default=matching"`
	SSLMode  string `env:"DB_SSLMODE,default=disable"`
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"JWT_TTL,default=24h"`
	GoogleClientID string        `env:"GOOGLE_CLIENT_ID"`
}

type SupabaseConfig struct {
	URL    string `env:"SUPABASE_URL"`
	Key    string `env:"SUPABASE_KEY"`
	Bucket string `env:"SUPABASE_BUCKET,default=location-images"`
}

type RedisConfig struct {
	// Addr empty disables Redis; notifications are then only logged.
	Addr          string `env:"REDIS_ADDR"`
	Password      string `env:"REDIS_PASSWORD"`
	DB            int    `env:"REDIS_DB,default=0"`
	ChannelPrefix string `env:"REDIS_CHANNEL_PREFIX,default=notifications"`
}

type JobsConfig struct {
	RecruitCloserSpec string `env:"RECRUIT_CLOSER_SPEC,default=@every 1m"`
	RecruitCloserOn   bool   `env:"RECRUIT_CLOSER_ENABLED,default=true"`
}

type RateLimitConfig struct {
	MatchingsPerMin int `env:"RATE_MATCHINGS_PER_MIN,default=10"`
	AppliesPerMin   int `env:"RATE_APPLIES_PER_MIN,default=30"`
	Burst           int `env:"RATE_BURST,default=5"`
}

type ExportConfig struct {
	Dir string `env:"EXPORT_DIR,default=./exports"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.Driver != "postgres" && c.Database.Driver != "memory" {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.Database.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("APP_TIMEZONE: %w", err))
	}
	if len(c.AllowedOrigins()) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must list at least one origin"))
	}
	if c.RateLimit.MatchingsPerMin <= 0 || c.RateLimit.AppliesPerMin <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the configured zone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.Server.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c DatabaseConfig) DSN(tz string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, tz)
}
