// Package config loads service settings from config.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Auth     struct {
		JWTSecret   string        `mapstructure:"jwt_secret"`
		TokenTTL    time.Duration `mapstructure:"token_ttl"`
		AdminEmails []string      `mapstructure:"admin_emails"`
	} `mapstructure:"auth"`
	Assets struct {
		Driver         string `mapstructure:"driver"` // local | gcs
		Dir            string `mapstructure:"dir"`
		BaseURL        string `mapstructure:"base_url"`
		Bucket         string `mapstructure:"bucket"`
		PlaceholderURL string `mapstructure:"placeholder_url"`
	} `mapstructure:"assets"`
	Email struct {
		ResendAPIKey string `mapstructure:"resend_api_key"`
		From         string `mapstructure:"from"`
	} `mapstructure:"email"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Database holds PostgreSQL connection settings. URL wins when set.
type Database struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "clubevents")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_emails", []string{})
	v.SetDefault("assets.driver", "local")
	v.SetDefault("assets.dir", "./uploads")
	v.SetDefault("assets.base_url", "/assets")
	// The placeholder file is not shipped; with the local driver it must be
	// provisioned at <assets.dir>/images/placeholder.jpg.
	v.SetDefault("assets.placeholder_url", "/assets/images/placeholder.jpg")
	v.SetDefault("email.from", "Club Events <noreply@example.com>")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:5500"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads config.yaml (from . or ..) and applies environment overrides.
// An explicit path, when non-empty, replaces the search.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("..")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// explicit bindings
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("database.name", "DB_NAME")
	_ = v.BindEnv("database.sslmode", "DB_SSLMODE")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("auth.admin_emails", "AUTH_ADMIN_EMAILS", "ADMIN_EMAILS")
	_ = v.BindEnv("email.resend_api_key", "RESEND_API_KEY")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	// Comma-separated env values arrive as a single element.
	c.Auth.AdminEmails = splitList(c.Auth.AdminEmails)
	c.CORS.AllowedOrigins = splitList(c.CORS.AllowedOrigins)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret/JWT_SECRET required")
	}
	switch c.Assets.Driver {
	case "local":
		if c.Assets.Dir == "" {
			return errors.New("config: assets.dir required for local driver")
		}
	case "gcs":
		if c.Assets.Bucket == "" {
			return errors.New("config: assets.bucket required for gcs driver")
		}
	default:
		return fmt.Errorf("config: unknown assets.driver %q", c.Assets.Driver)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: auth.token_ttl must be positive")
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
