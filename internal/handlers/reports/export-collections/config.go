// internal/handlers/reports/export-collections/config.go
package exportcollections

import "time"

type Config struct {
	Timeout  time.Duration
	Location *time.Location
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  60 * time.Second,
		Location: time.UTC,
	}
}
