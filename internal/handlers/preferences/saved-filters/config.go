// internal/handlers/preferences/saved-filters/config.go
package savedfilters

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
