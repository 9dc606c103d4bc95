// internal/handlers/collections/update-field-status/config.go
package updatefieldstatus

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
