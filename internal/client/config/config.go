package config

import "time"

// Config holds runtime settings for the somtik CLI.
//
// Fields:
//   - APIBaseURL: base URL of the backend platform (auth and row APIs).
//   - APIKey: publishable API key sent with every request.
//   - LocalDBPath: path of the local SQLite database used for session
//     persistence.
//   - ResendCooldown: minimum wait between verification-email resends.
type Config struct {
	APIBaseURL     string
	APIKey         string
	LocalDBPath    string
	ResendCooldown time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:54321"
	c.APIKey = ""
	c.LocalDBPath = "somtik.db"
	c.ResendCooldown = 60 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
