// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default container-to-table mapping. The feed's primary tick container is
// the only artifact that lands in the warehouse; additional mappings come
// from the YAML mapping file when the feed's artifact set grows.
var defaultTables = map[string]string{
	"WEBPXTICK_DT": "WEBPXTICK_DT",
}

// Config holds the full configuration for the ingestion service. Built once
// by LoadFromEnv and passed to every component; never read from the
// environment past startup.
type Config struct {
	// Upstream feed.
	FeedURL      string        // catalog endpoint (default: the SGX infofeed)
	LinksURL     string        // artifact download base (default: links.sgx.com derivatives-historical)
	FeedTimeout  time.Duration // per catalog request (default 30s)
	FetchTimeout time.Duration // per artifact download (default 5m)
	FeedRPS      float64       // politeness limit against the feed host (default 2)
	RetryCount   int           // extra attempts for fetch and publish (default 2)

	// Local stores.
	RawDir       string // durable raw artifacts (default data/raw)
	ReferenceDir string // schema/structure artifacts (default data/reference)
	WarehouseDir string // partitioned warehouse root (default data/warehouse)
	StagingDir   string // transient downloads and extractions (default data/staging)
	MetaDBPath   string // SQLite version table (default file_versions.db)

	// Object store. Backend selects the implementation; empty disables
	// publishing. S3 fields are optional — nil when not configured.
	ObjectStoreBackend string // "s3", "azure", "gcs", or ""
	Bucket             string // default "datalake"
	RawPrefix          string // default "raw"
	ReferencePrefix    string // default "derivative_reference"
	WarehousePrefix    string // default "derivative_data"
	PublishTimeout     time.Duration
	S3KeyID            *string
	S3Secret           *string
	S3Endpoint         *string
	S3Region           *string
	AzureAccountName   string
	AzureAccountKey    string
	GCSCredentialsFile string

	// HTTP trigger layer.
	ListenAddr   string // default ":8080"
	ServiceToken string // required on mutating endpoints when set
	LogLevel     string // debug, info, warn, error (default "info")
	Env          string // "development" (default) or "production"

	// Scheduling.
	CronSpec         string // default "0 7 * * *" (daily at 07:00)
	SchedulerEnabled bool   // default true

	// Rate limiting for the trigger API.
	RateLimitRPS   float64 // sustained requests per second (default 20)
	RateLimitBurst int     // burst capacity (default 40)

	// CORS
	CORSAllowedOrigins []string // allowed origins (default: ["*"])

	// Container-to-table mapping, keyed by basename prefix. Seeded with the
	// built-in default and merged with the mapping file when one is set.
	Tables           map[string]string
	TableMappingFile string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the service is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasS3Config returns true if all required S3 fields are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil &&
		c.S3Endpoint != nil && c.S3Region != nil
}

// HasAzureConfig returns true if the Azure shared-key pair is set.
func (c *Config) HasAzureConfig() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

// TableFor resolves the warehouse table for a committed artifact name.
// Only zip containers whose basename starts with a configured mapping key
// belong in the warehouse; everything else is stored flat.
func (c *Config) TableFor(filename string) (string, bool) {
	base := filepath.Base(filename)
	if !strings.EqualFold(filepath.Ext(base), ".zip") {
		return "", false
	}
	for prefix, table := range c.Tables {
		if strings.HasPrefix(base, prefix) {
			return table, true
		}
	}
	return "", false
}

// LoadFromEnv loads configuration from environment variables.
// Object store variables are optional — the pipeline can run without them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		FeedURL:            os.Getenv("FEED_URL"),
		LinksURL:           os.Getenv("LINKS_URL"),
		RawDir:             os.Getenv("RAW_DIR"),
		ReferenceDir:       os.Getenv("REFERENCE_DIR"),
		WarehouseDir:       os.Getenv("WAREHOUSE_DIR"),
		StagingDir:         os.Getenv("STAGING_DIR"),
		MetaDBPath:         os.Getenv("META_DB_PATH"),
		ObjectStoreBackend: strings.ToLower(os.Getenv("OBJECT_STORE")),
		Bucket:             os.Getenv("BUCKET"),
		RawPrefix:          os.Getenv("RAW_PREFIX"),
		ReferencePrefix:    os.Getenv("REFERENCE_PREFIX"),
		WarehousePrefix:    os.Getenv("WAREHOUSE_PREFIX"),
		AzureAccountName:   os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:    os.Getenv("AZURE_ACCOUNT_KEY"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		ListenAddr:         os.Getenv("LISTEN_ADDR"),
		ServiceToken:       os.Getenv("SERVICE_TOKEN"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		Env:                os.Getenv("ENV"),
		CronSpec:           os.Getenv("CRON_SPEC"),
		SchedulerEnabled:   parseBoolEnvDefault("SCHEDULER_ENABLED", true),
		TableMappingFile:   os.Getenv("TABLE_MAPPING_FILE"),
	}

	// Timeouts and retry
	cfg.FeedTimeout = parseDurationEnv("FEED_TIMEOUT", 30*time.Second)
	cfg.FetchTimeout = parseDurationEnv("FETCH_TIMEOUT", 5*time.Minute)
	cfg.PublishTimeout = parseDurationEnv("PUBLISH_TIMEOUT", 2*time.Minute)
	cfg.RetryCount = 2
	if v := os.Getenv("RETRY_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RetryCount = n
		}
	}

	// Rate limiting
	if v := os.Getenv("FEED_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.FeedRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// S3 fields are optional — only set if present
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.FeedURL == "" {
		cfg.FeedURL = "https://api3.sgx.com/infofeed/Apps"
	}
	if cfg.LinksURL == "" {
		cfg.LinksURL = "https://links.sgx.com/1.0.0/derivatives-historical"
	}
	if cfg.RawDir == "" {
		cfg.RawDir = filepath.Join("data", "raw")
	}
	if cfg.ReferenceDir == "" {
		cfg.ReferenceDir = filepath.Join("data", "reference")
	}
	if cfg.WarehouseDir == "" {
		cfg.WarehouseDir = filepath.Join("data", "warehouse")
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = filepath.Join("data", "staging")
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "file_versions.db"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "datalake"
	}
	if cfg.RawPrefix == "" {
		cfg.RawPrefix = "raw"
	}
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = "derivative_reference"
	}
	if cfg.WarehousePrefix == "" {
		cfg.WarehousePrefix = "derivative_data"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.CronSpec == "" {
		cfg.CronSpec = "0 7 * * *"
	}
	if cfg.FeedRPS == 0 {
		cfg.FeedRPS = 2
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 40
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	// Container-to-table mapping
	cfg.Tables = make(map[string]string, len(defaultTables))
	for k, v := range defaultTables {
		cfg.Tables[k] = v
	}
	if cfg.TableMappingFile != "" {
		if err := loadTableMappings(cfg.TableMappingFile, cfg.Tables); err != nil {
			return nil, err
		}
	}

	switch cfg.ObjectStoreBackend {
	case "", "s3", "azure", "gcs", "none":
	default:
		return nil, fmt.Errorf("unsupported OBJECT_STORE %q: use s3, azure, gcs, or none", cfg.ObjectStoreBackend)
	}
	if cfg.ObjectStoreBackend == "none" {
		cfg.ObjectStoreBackend = ""
	}
	if cfg.ObjectStoreBackend == "s3" && !cfg.HasS3Config() {
		return nil, fmt.Errorf("OBJECT_STORE=s3 requires KEY_ID, SECRET, ENDPOINT, and REGION")
	}
	if cfg.ObjectStoreBackend == "azure" && !cfg.HasAzureConfig() {
		return nil, fmt.Errorf("OBJECT_STORE=azure requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
	}
	if cfg.ObjectStoreBackend == "gcs" && cfg.GCSCredentialsFile == "" {
		return nil, fmt.Errorf("OBJECT_STORE=gcs requires GCS_CREDENTIALS_FILE")
	}
	if cfg.ObjectStoreBackend == "" {
		cfg.Warnings = append(cfg.Warnings, "object store not configured — artifacts will only be stored locally (set OBJECT_STORE)")
	}
	if cfg.ServiceToken == "" {
		cfg.Warnings = append(cfg.Warnings, "SERVICE_TOKEN not set — the trigger endpoint is unauthenticated")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.ServiceToken == "" {
			return nil, fmt.Errorf("SERVICE_TOKEN must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// tableMappingFile is the YAML shape of the external mapping file:
//
//	tables:
//	  WEBPXTICK_DT: WEBPXTICK_DT
//	  NEWCONTAINER: NEW_TABLE
type tableMappingFile struct {
	Tables map[string]string `yaml:"tables"`
}

// loadTableMappings merges the mapping file into dst. Keys are container
// basename prefixes, values warehouse table names.
func loadTableMappings(path string, dst map[string]string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return fmt.Errorf("read table mapping %s: %w", path, err)
	}
	var f tableMappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse table mapping %s: %w", path, err)
	}
	for prefix, table := range f.Tables {
		prefix = strings.TrimSpace(prefix)
		table = strings.TrimSpace(table)
		if prefix == "" || table == "" {
			return fmt.Errorf("table mapping %s: empty prefix or table name", path)
		}
		dst[prefix] = table
	}
	return nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
