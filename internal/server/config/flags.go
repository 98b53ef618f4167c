package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/portfolio/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-k string     database driver: postgres | sqlite
//	-d string     database DSN
//	-s string     access token secret
//	-S string     refresh token secret
//	-t duration   access token lifetime (e.g. 15m)
//	-r duration   refresh token lifetime (e.g. 168h)
//	-m string     admin inbox for new work requests
//	-redis string Redis URL for login throttling
//
// Arguments are filtered first so flags owned by other parsers (-c) pass through.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-k", "-d", "-s", "-S", "-t", "-r", "-m", "-redis"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "k", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessSecret, "s", config.AccessSecret, "access token secret")
	fs.StringVar(&config.RefreshSecret, "S", config.RefreshSecret, "refresh token secret")
	fs.DurationVar(&config.AccessTokenTTL, "t", config.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&config.RefreshTokenTTL, "r", config.RefreshTokenTTL, "refresh token lifetime")
	fs.StringVar(&config.AdminEmail, "m", config.AdminEmail, "admin inbox")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis url")

	return fs.Parse(args)
}
