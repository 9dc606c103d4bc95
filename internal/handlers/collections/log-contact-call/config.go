// internal/handlers/collections/log-contact-call/config.go
package logcontactcall

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
