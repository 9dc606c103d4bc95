// internal/handlers/collections/record-ptp-date/config.go
package recordptpdate

import "time"

type Config struct {
	Timeout  time.Duration
	Location *time.Location
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		Location: time.UTC,
	}
}
