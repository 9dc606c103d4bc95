// internal/handlers/applications/list-applications/config.go
package listapplications

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
	Location     *time.Location
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultLimit: 20,
		MaxLimit:     500,
		Location:     time.UTC,
	}
}
