package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/somtik/somtik-client/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. The resend
// cooldown is specified in whole seconds; after parsing, values are copied
// into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	APIBaseURL            string `json:"api_base_url"`
	APIKey                string `json:"api_key"`
	LocalDBPath           string `json:"local_db_path"`
	ResendCooldownSeconds int    `json:"resend_cooldown_seconds"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known fields into the provided Config.
//   - Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	fileName := flagx.JsonConfigFlags()
	if fileName == "" {
		return
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		panic(err)
	}

	jc := &JsonConfig{}
	if err := json.Unmarshal(data, jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.LocalDBPath != "" {
		cfg.LocalDBPath = jc.LocalDBPath
	}
	if jc.ResendCooldownSeconds > 0 {
		cfg.ResendCooldown = time.Duration(jc.ResendCooldownSeconds) * time.Second
	}
}
