// internal/workers/business/send-activation-notice/config.go
package sendactivationnotice

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	// DirectoryBaseURL prefixes the slug in the link sent to the owner.
	DirectoryBaseURL string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          15 * time.Second,
		EmailEnabled:     true,
		SMSEnabled:       true,
		DirectoryBaseURL: "https://business.example/b/",
	}
}
