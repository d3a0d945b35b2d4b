// Package config loads the engine's runtime configuration from environment
// variables (optionally backed by a .env file), following the teacher's
// getEnv/getEnvAsX convention.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/saccr"
)

// Config holds every runtime setting the engine needs: the HTTP/cron
// surface, persistence location, and the default-substitution values of
// spec.md §6 that Validator falls back to when a netting set, counterparty,
// or collateral balance is missing.
type Config struct {
	Port     int
	DataDir  string
	LogLevel string
	LogPretty bool

	// RunSchedule is a cron expression (robfig/cron/v3 syntax) driving the
	// daily valuation job; empty registers no scheduled job.
	RunSchedule string

	DatabasePath string
	BaseCurrency string

	DefaultNettingSetThresholdRcv float64
	DefaultNettingSetMTARcv       float64
	DefaultNettingSetIAHeld       float64
	DefaultNettingSetMPORWeeks    int
	DefaultNettingSetCalculateIM  bool
	DefaultNettingSetCalculateVM  bool

	DefaultCollBalanceCcy string
	DefaultCollBalanceIM  float64
	DefaultCollBalanceVM  float64

	DefaultCounterpartyID      string
	DefaultCounterpartyIsCCP   bool
	DefaultCounterpartySACCRRW float64

	Alpha float64

	// S3/R2 report archive sink, mirroring the teacher's R2 backup
	// credentials; ReportS3Bucket empty disables the archive sink.
	ReportS3Bucket   string
	ReportS3Region   string
	ReportS3Endpoint string
	AWSAccessKeyID   string
	AWSSecretKey     string
}

// Load reads configuration from environment variables, applying the .env
// file in the working directory if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnvAsInt("PORT", 8080),
		DataDir:   getEnv("DATA_DIR", "./data"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		RunSchedule: getEnv("RUN_SCHEDULE", "0 1 * * *"),

		DatabasePath: getEnv("DATABASE_PATH", "./data/saccr.db"),
		BaseCurrency: getEnv("BASE_CURRENCY", "USD"),

		DefaultNettingSetThresholdRcv: getEnvAsFloat("DEFAULT_NETTINGSET_THRESHOLD_RCV", 0),
		DefaultNettingSetMTARcv:       getEnvAsFloat("DEFAULT_NETTINGSET_MTA_RCV", 0),
		DefaultNettingSetIAHeld:       getEnvAsFloat("DEFAULT_NETTINGSET_IA_HELD", 0),
		DefaultNettingSetMPORWeeks:    getEnvAsInt("DEFAULT_NETTINGSET_MPOR_WEEKS", 2),
		DefaultNettingSetCalculateIM:  getEnvAsBool("DEFAULT_NETTINGSET_CALCULATE_IM", true),
		DefaultNettingSetCalculateVM:  getEnvAsBool("DEFAULT_NETTINGSET_CALCULATE_VM", true),

		DefaultCollBalanceCcy: getEnv("DEFAULT_COLLBALANCE_CCY", ""),
		DefaultCollBalanceIM:  getEnvAsFloat("DEFAULT_COLLBALANCE_IM", 0),
		DefaultCollBalanceVM:  getEnvAsFloat("DEFAULT_COLLBALANCE_VM", 0),

		DefaultCounterpartyID:      getEnv("DEFAULT_COUNTERPARTY_ID", "DEFAULT"),
		DefaultCounterpartyIsCCP:   getEnvAsBool("DEFAULT_COUNTERPARTY_CCP", false),
		DefaultCounterpartySACCRRW: getEnvAsFloat("DEFAULT_COUNTERPARTY_SACCR_RW", 1.0),

		Alpha: getEnvAsFloat("ALPHA", 1.4),

		ReportS3Bucket:   getEnv("REPORT_S3_BUCKET", ""),
		ReportS3Region:   getEnv("REPORT_S3_REGION", "auto"),
		ReportS3Endpoint: getEnv("REPORT_S3_ENDPOINT", ""),
		AWSAccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	if cfg.DefaultCollBalanceCcy == "" {
		cfg.DefaultCollBalanceCcy = cfg.BaseCurrency
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.BaseCurrency == "" {
		return fmt.Errorf("BASE_CURRENCY is required")
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("ALPHA must be positive")
	}
	return nil
}

// SACCRDefaults translates the loaded configuration into saccr.Defaults.
// Kept here (rather than in package saccr) so saccr never depends on the
// environment.
func (c *Config) SACCRDefaults() saccr.Defaults {
	return saccr.Defaults{
		NettingSetThresholdRcv: c.DefaultNettingSetThresholdRcv,
		NettingSetMTARcv:       c.DefaultNettingSetMTARcv,
		NettingSetIAHeld:       c.DefaultNettingSetIAHeld,
		NettingSetMPORWeeks:    domain.MPORWeeks(c.DefaultNettingSetMPORWeeks),
		NettingSetCalculateIM:  c.DefaultNettingSetCalculateIM,
		NettingSetCalculateVM:  c.DefaultNettingSetCalculateVM,

		CollBalanceCcy: c.DefaultCollBalanceCcy,
		CollBalanceIM:  c.DefaultCollBalanceIM,
		CollBalanceVM:  c.DefaultCollBalanceVM,

		CounterpartyID:      domain.CounterpartyID(c.DefaultCounterpartyID),
		CounterpartyCCP:     c.DefaultCounterpartyIsCCP,
		CounterpartySACCRRW: c.DefaultCounterpartySACCRRW,

		Alpha: c.Alpha,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
