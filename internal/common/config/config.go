// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig                `mapstructure:"app"`
	Server       ServerConfig             `mapstructure:"server"`
	Database     DatabaseConfig           `mapstructure:"database"`
	Fetcher      FetcherConfig            `mapstructure:"fetcher"`
	Handlers     map[string]HandlerConfig `mapstructure:"handlers"`
	Preferences  PreferencesConfig        `mapstructure:"preferences"`
	Search       SearchConfig             `mapstructure:"search"`
	Jobs         JobsConfig               `mapstructure:"jobs"`
	Integrations IntegrationConfig        `mapstructure:"integrations"`
	Logging      LoggingConfig            `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address          string `mapstructure:"address"`
	ReadTimeout      int    `mapstructure:"read_timeout_ms"`
	WriteTimeout     int    `mapstructure:"write_timeout_ms"`
	ShutdownTimeout  int    `mapstructure:"shutdown_timeout_ms"`
	RateLimit        string `mapstructure:"rate_limit"` // ulule/limiter format, e.g. "100-S"
	MaxSessions      int    `mapstructure:"max_sessions"`
	DefaultPageLimit int    `mapstructure:"default_page_limit"`
	MaximumPageLimit int    `mapstructure:"maximum_page_limit"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single address shorthand
}

// GetAddresses returns Addresses, falling back to URL.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// --- Domain Sections ---

// FetcherConfig tunes the batch lookups behind the application list.
type FetcherConfig struct {
	CacheTTL            int  `mapstructure:"cache_ttl_ms"`
	CacheEnabled        bool `mapstructure:"cache_enabled"`
	SequentialThreshold int  `mapstructure:"sequential_threshold"`
	CommentLimit        int  `mapstructure:"comment_limit"`
	LookupTimeout       int  `mapstructure:"lookup_timeout_ms"`
}

// HandlerConfig holds per-endpoint settings, keyed by operation name.
type HandlerConfig struct {
	Timeout int `mapstructure:"timeout_ms"`
}

type PreferencesConfig struct {
	TTL int `mapstructure:"ttl_ms"`
}

type SearchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

type JobsConfig struct {
	Timezone      string             `mapstructure:"timezone"`
	PtpDigest     PtpDigestJobConfig `mapstructure:"ptp_digest"`
	SearchReindex ScheduledJobConfig `mapstructure:"search_reindex"`
}

type ScheduledJobConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type PtpDigestJobConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Schedule    string   `mapstructure:"schedule"`
	Recipients  []string `mapstructure:"recipients"`
	SMSTopicARN string   `mapstructure:"sms_topic_arn"`
}

// IntegrationConfig holds settings for outbound notification providers.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled bool `mapstructure:"enabled"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
