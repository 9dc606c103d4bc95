// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Handler names used as keys under handlers.* in the config file.
const (
	HandlerListApplications  = "list-applications"
	HandlerFilterOptions     = "filter-options"
	HandlerSearch            = "search-applications"
	HandlerSummary           = "collection-summary"
	HandlerUpdateFieldStatus = "update-field-status"
	HandlerApprovePayment    = "approve-payment"
	HandlerRecordPtpDate     = "record-ptp-date"
	HandlerLogContactCall    = "log-contact-call"
	HandlerListComments      = "list-comments"
	HandlerAddComment        = "add-comment"
	HandlerExport            = "export-collections"
	HandlerSavedFilters      = "saved-filters"
	HandlerRecentActivity    = "recent-activity"
)

const defaultHandlerTimeout = 30000

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// DATABASE_POSTGRES_HOST overrides database.postgres.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // go test runs from the package directory
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are conventionally provided as bare env vars.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Integrations.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Integrations.AWS.Region = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "collections-api"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.RateLimit == "" {
		cfg.Server.RateLimit = "100-S"
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = 1000
	}
	if cfg.Server.DefaultPageLimit == 0 {
		cfg.Server.DefaultPageLimit = 20
	}
	if cfg.Server.MaximumPageLimit == 0 {
		cfg.Server.MaximumPageLimit = 500
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Fetcher.CacheTTL == 0 {
		cfg.Fetcher.CacheTTL = 10000
	}
	if cfg.Fetcher.SequentialThreshold == 0 {
		cfg.Fetcher.SequentialThreshold = 500
	}
	if cfg.Fetcher.CommentLimit == 0 {
		cfg.Fetcher.CommentLimit = 200
	}
	if cfg.Fetcher.LookupTimeout == 0 {
		cfg.Fetcher.LookupTimeout = 15000
	}

	if cfg.Handlers == nil {
		cfg.Handlers = make(map[string]HandlerConfig)
	}
	for key, h := range cfg.Handlers {
		if h.Timeout == 0 {
			h.Timeout = defaultHandlerTimeout
		}
		cfg.Handlers[key] = h
	}

	if cfg.Preferences.TTL == 0 {
		cfg.Preferences.TTL = 30 * 24 * 60 * 60 * 1000
	}

	if cfg.Search.Index == "" {
		cfg.Search.Index = "collection-applications"
	}

	if cfg.Jobs.Timezone == "" {
		cfg.Jobs.Timezone = "Asia/Kolkata"
	}
	if cfg.Jobs.PtpDigest.Schedule == "" {
		cfg.Jobs.PtpDigest.Schedule = "0 9 * * *"
	}
	if cfg.Jobs.SearchReindex.Schedule == "" {
		cfg.Jobs.SearchReindex.Schedule = "0 2 * * *"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Search.Enabled && len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when search is enabled")
	}

	if _, err := time.LoadLocation(cfg.Jobs.Timezone); err != nil {
		return fmt.Errorf("jobs.timezone: %w", err)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if cfg.Jobs.PtpDigest.Enabled {
		if _, err := parser.Parse(cfg.Jobs.PtpDigest.Schedule); err != nil {
			return fmt.Errorf("jobs.ptp_digest.schedule: %w", err)
		}
		if len(cfg.Jobs.PtpDigest.Recipients) > 0 && !cfg.Integrations.AWS.SES.Enabled {
			return fmt.Errorf("jobs.ptp_digest.recipients requires integrations.aws.ses.enabled")
		}
	}
	if cfg.Jobs.SearchReindex.Enabled {
		if _, err := parser.Parse(cfg.Jobs.SearchReindex.Schedule); err != nil {
			return fmt.Errorf("jobs.search_reindex.schedule: %w", err)
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetHandlerConfig returns the per-operation settings, falling back to defaults.
func GetHandlerConfig(cfg *Config, name string) HandlerConfig {
	if h, exists := cfg.Handlers[name]; exists {
		return h
	}
	return HandlerConfig{Timeout: defaultHandlerTimeout}
}

// HandlerTimeout is shorthand for GetDuration(GetHandlerConfig(cfg, name).Timeout).
func HandlerTimeout(cfg *Config, name string) time.Duration {
	return GetDuration(GetHandlerConfig(cfg, name).Timeout)
}
