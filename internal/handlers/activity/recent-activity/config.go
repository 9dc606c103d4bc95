// internal/handlers/activity/recent-activity/config.go
package recentactivity

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultLimit    int
	MaxLimit        int
	DefaultDaysBack int
	MaxDaysBack     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		DefaultLimit:    50,
		MaxLimit:        500,
		DefaultDaysBack: 30,
		MaxDaysBack:     365,
	}
}
