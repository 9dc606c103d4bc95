// internal/handlers/applications/search-applications/config.go
package searchapplications

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		Index:   "collection-applications",
	}
}
