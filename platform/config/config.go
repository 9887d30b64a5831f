// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerSecond() float64
	GetRateLimitBurst() int
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetBulkJobResultTTL() time.Duration
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadAttachments() string
	IsMinIOEnabled() bool
}

// PipelineConfig provides the tunables of the lead pipeline.
type PipelineConfig interface {
	GetApprovalMinGroups() int
	GetBulkConcurrency() int
	GetBulkMaxAttempts() int
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	MigrationsDir              string
	JWTAccessSecret            string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	RateLimitPerSecond         float64
	RateLimitBurst             int
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
	BulkJobResultTTL           time.Duration
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinIOMaxFileSize           int64
	MinioBucketLeadAttachments string
	Pipeline                   PipelinePolicy
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string             { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool           { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string        { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool         { return c.CORSAllowCreds }
func (c *Config) GetRateLimitPerSecond() float64  { return c.RateLimitPerSecond }
func (c *Config) GetRateLimitBurst() int          { return c.RateLimitBurst }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetBulkJobResultTTL() time.Duration { return c.BulkJobResultTTL }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketLeadAttachments() string {
	return c.MinioBucketLeadAttachments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// PipelineConfig implementation
func (c *Config) GetApprovalMinGroups() int     { return c.Pipeline.ApprovalMinGroups }
func (c *Config) GetBulkConcurrency() int       { return c.Pipeline.BulkConcurrency }
func (c *Config) GetBulkMaxAttempts() int       { return c.Pipeline.BulkMaxAttempts }
func (c *Config) GetPhoneDefaultRegion() string { return c.Pipeline.PhoneDefaultRegion }

// Load reads configuration from environment variables and the optional
// pipeline policy file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		MigrationsDir:              getEnv("MIGRATIONS_DIR", "migrations"),
		JWTAccessSecret:            getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitPerSecond:         mustFloat(getEnv("RATE_LIMIT_PER_SECOND", "20")),
		RateLimitBurst:             mustInt(getEnv("RATE_LIMIT_BURST", "40")),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:           mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		BulkJobResultTTL:           mustDuration(getEnv("BULK_JOB_RESULT_TTL", "24h")),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:           mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "26214400")),
		MinioBucketLeadAttachments: getEnv("MINIO_BUCKET_LEAD_ATTACHMENTS", "lead-attachments"),
		Pipeline:                   DefaultPipelinePolicy(),
	}

	if path := getEnv("PIPELINE_POLICY_FILE", ""); path != "" {
		policy, err := LoadPipelinePolicy(path)
		if err != nil {
			return nil, err
		}
		cfg.Pipeline = policy
	}
	cfg.Pipeline = applyPipelineEnv(cfg.Pipeline)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func applyPipelineEnv(p PipelinePolicy) PipelinePolicy {
	if v := mustInt(getEnv("APPROVAL_MIN_GROUPS", "")); v > 0 {
		p.ApprovalMinGroups = v
	}
	if v := mustInt(getEnv("BULK_CONCURRENCY", "")); v > 0 {
		p.BulkConcurrency = v
	}
	if v := mustInt(getEnv("BULK_MAX_ATTEMPTS", "")); v > 0 {
		p.BulkMaxAttempts = v
	}
	if v := strings.TrimSpace(getEnv("PHONE_DEFAULT_REGION", "")); v != "" {
		p.PhoneDefaultRegion = strings.ToUpper(v)
	}
	return p
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
