// Package config loads dashboard configuration from a .env file and the
// process environment. Environment variables always win over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/FabricioMatosSIlva/awswatch-go/pkg/awsclient"
)

// Config holds everything the composition root needs to build the monitors.
type Config struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	QueueNames           []string
	WorkPoolTable        string
	QueuePollInterval    time.Duration
	WorkPoolPollInterval time.Duration

	LogLevel   string
	LogFormat  string
	LogFile    string
	ListenAddr string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Region:               "eu-west-1",
		WorkPoolTable:        "dcxstg-dev-converter-work-pool",
		QueuePollInterval:    30 * time.Second,
		WorkPoolPollInterval: 5 * time.Second,
		LogLevel:             "info",
		LogFormat:            "auto",
		ListenAddr:           ":8501",
	}
}

// Load reads the .env file at envPath (missing file is not an error) and
// applies process-environment overrides on top of the defaults.
func Load(envPath string) (*Config, error) {
	fileVars := map[string]string{}
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			parsed, err := godotenv.Read(envPath)
			if err != nil {
				return nil, fmt.Errorf("parse env file %s: %w", envPath, err)
			}
			fileVars = parsed
			log.Debug().Str("path", envPath).Int("keys", len(fileVars)).Msg("Loaded env file")
		}
	}

	cfg := Defaults()
	lookup := func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fileVars[key]
	}

	if val := lookup("AWS_REGION"); val != "" {
		cfg.Region = val
	}
	cfg.Profile = lookup("AWS_PROFILE")
	cfg.AccessKeyID = lookup("AWS_ACCESS_KEY_ID")
	cfg.SecretAccessKey = lookup("AWS_SECRET_ACCESS_KEY")
	cfg.SessionToken = lookup("AWS_SESSION_TOKEN")

	if val := lookup("DYNAMODB_TABLE_NAME"); val != "" {
		cfg.WorkPoolTable = val
	}
	if val := lookup("AWSWATCH_QUEUE_NAMES"); val != "" {
		cfg.QueueNames = splitList(val)
	}
	if val := lookup("AWSWATCH_QUEUE_POLL_INTERVAL"); val != "" {
		if d, err := parseInterval(val); err == nil {
			cfg.QueuePollInterval = d
		} else {
			log.Warn().Str("value", val).Err(err).Msg("Ignoring invalid queue poll interval")
		}
	}
	if val := lookup("AWSWATCH_TABLE_POLL_INTERVAL"); val != "" {
		if d, err := parseInterval(val); err == nil {
			cfg.WorkPoolPollInterval = d
		} else {
			log.Warn().Str("value", val).Err(err).Msg("Ignoring invalid table poll interval")
		}
	}

	if val := lookup("AWSWATCH_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := lookup("AWSWATCH_LOG_FORMAT"); val != "" {
		cfg.LogFormat = val
	}
	cfg.LogFile = lookup("AWSWATCH_LOG_FILE")
	if val := lookup("AWSWATCH_LISTEN_ADDR"); val != "" {
		cfg.ListenAddr = val
	}

	return cfg, nil
}

// CredentialSource maps the loaded credentials to a resolution request.
// Priority: named profile, then explicit keys, then the ambient chain.
func (c *Config) CredentialSource() awsclient.CredentialSource {
	return awsclient.CredentialSource{
		Profile:         c.Profile,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
	}
}

// HasExplicitCredentials reports whether a profile or key pair was
// configured; when false the ambient chain is the only option.
func (c *Config) HasExplicitCredentials() bool {
	return c.Profile != "" || (c.AccessKeyID != "" && c.SecretAccessKey != "")
}

// parseInterval accepts either a bare number of seconds ("30") or a Go
// duration string ("30s", "1m").
func parseInterval(val string) (time.Duration, error) {
	if secs, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("interval must be positive, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", d)
	}
	return d, nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
