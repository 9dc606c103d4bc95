// internal/handlers/applications/filter-options/config.go
package filteroptions

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
	}
}
