// internal/workers/itsm/search-tickets/config.go
package searchtickets

import (
	"time"

	"snow-search/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Config{
		Timeout: timeout,
	}
}
