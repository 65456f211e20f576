// internal/workers/business/resolve-qr/config.go
package resolveqr

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}
