package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/cli/config"
)

// loadConfig loads --config, or ./vgmlink.yaml when present.
func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.LoadOptional(c.String("config"))
}

// configVal reads a field from cfg, tolerating a nil config.
func configVal[T any](cfg *config.Config, get func(*config.Config) T) T {
	var zero T
	if cfg == nil {
		return zero
	}
	return get(cfg)
}

// resolveString returns the flag when set on the command line, then the
// config value when non-empty, then the flag default.
func resolveString(c *cli.Context, name, cfgVal string) string {
	if c.IsSet(name) || cfgVal == "" {
		return c.String(name)
	}
	return cfgVal
}

// resolveInt applies the same precedence as resolveString. Zero config
// values fall through to the flag default.
func resolveInt(c *cli.Context, name string, cfgVal int) int {
	if c.IsSet(name) || cfgVal == 0 {
		return c.Int(name)
	}
	return cfgVal
}

// resolveBool returns the flag when set, otherwise the config value.
func resolveBool(c *cli.Context, name string, cfgVal bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return cfgVal || c.Bool(name)
}

// resolveDuration applies the same precedence as resolveString.
func resolveDuration(c *cli.Context, name string, cfgVal time.Duration) time.Duration {
	if c.IsSet(name) || cfgVal == 0 {
		return c.Duration(name)
	}
	return cfgVal
}
