// internal/workers/business/activate-business/config.go
package activatebusiness

import "time"

type Config struct {
	Timeout time.Duration
	// NumberRetries bounds how many fresh business numbers are drawn when the
	// unique index rejects one.
	NumberRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		NumberRetries: 5,
	}
}
