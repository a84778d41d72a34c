package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment modes accepted by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config holds the process configuration. It is built once by Load and
// must not be modified afterwards.
type Config struct {
	Port         int      `env:"PORT" validate:"min=1,max=65535"`
	Env          string   `env:"APP_ENV" validate:"oneof=development test production"`
	CORSOrigins  []string `env:"CORS_ORIGINS" validate:"min=1,dive,url"`
	JWTSecret    string   `env:"JWT_SECRET" validate:"required,min=10"`
	DatabaseURL  string   `env:"DATABASE_URL" validate:"required,url"`
	AMQPURL      string   `env:"AMQP_URL" validate:"omitempty,url"`
	AMQPExchange string   `env:"AMQP_EXCHANGE" validate:"required"`
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsTest reports whether the process runs in test mode.
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// Load reads the configuration from the environment, falling back to a
// .env file in the working directory and then to defaults. Any invalid
// value is reported as an error; callers are expected to abort startup.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("PORT", 3001)
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AMQP_EXCHANGE", "items")

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v.AutomaticEnv()
	for _, key := range []string{"PORT", "CORS_ORIGINS", "JWT_SECRET", "DATABASE_URL", "AMQP_URL", "AMQP_EXCHANGE"} {
		_ = v.BindEnv(key)
	}
	// NODE_ENV is accepted as an alias of APP_ENV.
	_ = v.BindEnv("APP_ENV", "APP_ENV", "NODE_ENV")

	cfg := &Config{
		Port:         v.GetInt("PORT"),
		Env:          strings.TrimSpace(v.GetString("APP_ENV")),
		CORSOrigins:  splitOrigins(v.GetString("CORS_ORIGINS")),
		JWTSecret:    v.GetString("JWT_SECRET"),
		DatabaseURL:  strings.TrimSpace(v.GetString("DATABASE_URL")),
		AMQPURL:      strings.TrimSpace(v.GetString("AMQP_URL")),
		AMQPExchange: strings.TrimSpace(v.GetString("AMQP_EXCHANGE")),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, e := range verrs {
		problems = append(problems, describe(e))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

func describe(e validator.FieldError) string {
	name := e.Field()
	// dive errors are reported as CORS_ORIGINS[1]
	if i := strings.IndexByte(name, '['); i > 0 && e.Tag() == "url" {
		return fmt.Sprintf("%s contains an invalid origin %q", name[:i], e.Value())
	}
	switch e.Tag() {
	case "required":
		return name + " is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, e.Param())
		}
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must list at least %s value", name, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, e.Param(), e.Value())
	case "url":
		return name + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed the '%s' check", name, e.Tag())
	}
}
