// Package config loads the provisioner configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/zhang1980s/web-stack-provisioner/awscloud"
	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// DefaultEnvFile is read when present; variables already set in the
// process environment win over the file.
const DefaultEnvFile = ".env"

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Config holds every setting read from the environment.
type Config struct {
	Region string `env:"AWS_REGION_NAME" envDefault:"us-east-1"`

	VPCID          string `env:"DEFAULT_VPC_ID,required"`
	DBName         string `env:"RDS_DB_NAME,required"`
	DBInstanceID   string `env:"DB_INSTANCE_IDENTIFIER,required"`
	MasterUsername string `env:"RDS_USERNAME,required"`
	MasterPassword string `env:"RDS_PASSWORD,required"`
	BucketName     string `env:"S3_BUCKET_NAME,required"`

	JournalTableName string `env:"JOURNAL_TABLE_NAME"`
	NotifyQueueURL   string `env:"NOTIFY_QUEUE_URL"`

	PollInterval  time.Duration `env:"READINESS_POLL_INTERVAL" envDefault:"100s"`
	MaxDelay      time.Duration `env:"READINESS_MAX_DELAY" envDefault:"0s"`
	BackoffFactor float64       `env:"READINESS_BACKOFF_FACTOR" envDefault:"1"`
	MaxAttempts   int           `env:"READINESS_MAX_ATTEMPTS" envDefault:"0"`
	Timeout       time.Duration `env:"READINESS_TIMEOUT" envDefault:"0s"`

	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	HTTPRetryMax int           `env:"HTTP_RETRY_MAX" envDefault:"3"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads envFile into the environment if it exists, parses the
// environment and validates the result. An empty envFile skips the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate performs the checks the struct tags cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	required := []struct{ name, value string }{
		{"AWS_REGION_NAME", cfg.Region},
		{"DEFAULT_VPC_ID", cfg.VPCID},
		{"RDS_DB_NAME", cfg.DBName},
		{"DB_INSTANCE_IDENTIFIER", cfg.DBInstanceID},
		{"RDS_USERNAME", cfg.MasterUsername},
		{"RDS_PASSWORD", cfg.MasterPassword},
		{"S3_BUCKET_NAME", cfg.BucketName},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s must not be empty", r.name)
		}
	}
	if !bucketNameRe.MatchString(cfg.BucketName) {
		return fmt.Errorf("S3_BUCKET_NAME %q is not a valid bucket name", cfg.BucketName)
	}
	if err := cfg.WaitPolicy().Validate(); err != nil {
		return fmt.Errorf("readiness settings: %w", err)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive (got %s)", cfg.HTTPTimeout)
	}
	if cfg.HTTPRetryMax < 0 {
		return fmt.Errorf("HTTP_RETRY_MAX must not be negative (got %d)", cfg.HTTPRetryMax)
	}
	return nil
}

// Params returns the per-run inputs of the provisioner.
func (c *Config) Params() provision.Params {
	return provision.Params{
		VPCID:          c.VPCID,
		DBName:         c.DBName,
		DBInstanceID:   c.DBInstanceID,
		MasterUsername: c.MasterUsername,
		MasterPassword: c.MasterPassword,
		BucketName:     c.BucketName,
	}
}

// WaitPolicy returns the readiness wait settings.
func (c *Config) WaitPolicy() provision.WaitPolicy {
	return provision.WaitPolicy{
		Delay:         c.PollInterval,
		MaxDelay:      c.MaxDelay,
		BackoffFactor: c.BackoffFactor,
		MaxAttempts:   c.MaxAttempts,
		Timeout:       c.Timeout,
	}
}

func (c *Config) HTTPClientOptions() awscloud.HTTPClientOptions {
	return awscloud.HTTPClientOptions{
		Timeout:  c.HTTPTimeout,
		RetryMax: c.HTTPRetryMax,
	}
}
