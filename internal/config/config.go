// Package config loads the service configuration from FD_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name, e.g. FD_BASE_URL.
const Prefix = "FD"

// Config holds the application configuration.
type Config struct {
	Addr        string `envconfig:"ADDR" default:":8080" validate:"required"`
	BaseURL     string `envconfig:"BASE_URL" validate:"required,url"`
	DatabaseURL string `envconfig:"DATABASE_URL" validate:"required"`

	// Storage selects the blob backend: "fs" (FilePath) or "minio".
	Storage     string `envconfig:"STORAGE" default:"fs" validate:"oneof=fs minio"`
	FilePath    string `envconfig:"FILE_PATH" default:"./files" validate:"required_if=Storage fs"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT" validate:"required_if=Storage minio"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" validate:"required_if=Storage minio"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" validate:"required_if=Storage minio"`
	Bucket      string `envconfig:"BUCKET" validate:"required_if=Storage minio"`

	// MaxUploadBytes caps request bodies on the upload routes; 0 disables.
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"67108864" validate:"gte=0"`
	// TrustProxy takes the client address from X-Real-IP / X-Forwarded-For.
	TrustProxy bool `envconfig:"TRUST_PROXY" default:"false"`
	// RateLimit is upload requests per second per client address; 0 disables.
	RateLimit float64 `envconfig:"RATE_LIMIT" default:"0" validate:"gte=0"`
	RateBurst int     `envconfig:"RATE_BURST" default:"10" validate:"gte=1"`
	Metrics   bool    `envconfig:"METRICS" default:"true"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	Env       string `envconfig:"ENV" default:"development"`

	Version string `envconfig:"VERSION" default:"dev"`
	Commit  string `envconfig:"COMMIT" default:"unknown"`
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ValidationErrors is returned by Load when one or more settings are invalid.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d error(s):", len(v))
	for i, err := range v {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return sb.String()
}

// Load reads envFiles (".env" when none are given; missing files are
// ignored), then the process environment, and validates the result.
// Variables already present in the environment win over file entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

// newValidator reports fields by their variable names rather than their Go
// names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("envconfig")
	})
	return v
}

// Validate checks cross-field rules, e.g. MinIO credentials when
// Storage is "minio".
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   Prefix + "_" + fe.Field(),
			Message: describe(fe),
		})
	}
	return out
}

// JSONLogs reports whether logs should be emitted as JSON.
func (c Config) JSONLogs() bool {
	return c.LogFormat == "json" || c.Env == "production"
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "required environment variable not set"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
