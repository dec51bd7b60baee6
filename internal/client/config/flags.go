package config

import (
	"flag"
	"os"
	"time"

	"github.com/somtik/somtik-client/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend platform (default from Config)
//	-k string   publishable API key (default from Config)
//	-d string   path of the local database file (default from Config)
//	-r int      resend cooldown in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-d", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the backend platform")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "publishable API key")
	fs.StringVar(&cfg.LocalDBPath, "d", cfg.LocalDBPath, "path of the local database file")
	resendCooldown := fs.Int("r", int(cfg.ResendCooldown.Seconds()), "resend cooldown (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ResendCooldown = time.Duration(*resendCooldown) * time.Second
}
