// internal/handlers/collections/collection-summary/config.go
package collectionsummary

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
