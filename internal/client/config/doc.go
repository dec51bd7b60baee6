// Package config loads runtime configuration for the somtik CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend platform
//	-k string   publishable API key
//	-d string   path of the local database file
//	-r int      resend cooldown (seconds)
//
// # JSON schema
//
//	{
//	  "api_base_url": "https://project.example.com",
//	  "api_key": "anon-key",
//	  "local_db_path": "somtik.db",
//	  "resend_cooldown_seconds": 60
//	}
//
// Primary API
//
//   - type Config                     — holds the backend endpoint, key, local DB path and resend cooldown
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
