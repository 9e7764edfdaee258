package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "SUITERUN"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Name = &cli.StringFlag{
		Name:    "name",
		Value:   "",
		EnvVars: prefixEnvVars("NAME"),
		Usage:   "Run only tests whose name contains this substring (case-sensitive)",
	}
	NameRegexp = &cli.StringFlag{
		Name:    "name-regexp",
		Value:   "",
		EnvVars: prefixEnvVars("NAME_REGEXP"),
		Usage:   "Run only tests whose name matches this regular expression",
	}
	PauseAfterLoad = &cli.BoolFlag{
		Name:    "pause-after-load",
		Value:   false,
		EnvVars: prefixEnvVars("PAUSE_AFTER_LOAD"),
		Usage:   "Run suites one at a time, pausing after each load for debugger attachment",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: prefixEnvVars("CONCURRENCY"),
		Usage:   "Number of suites to run concurrently (0 = one per CPU)",
	}
	Platform = &cli.StringSliceFlag{
		Name:    "platform",
		EnvVars: prefixEnvVars("PLATFORM"),
		Usage:   "Platform(s) to run suites on (e.g. 'vm', 'chrome', 'node')",
	}
	DefaultTimeout = &cli.DurationFlag{
		Name:    "default-timeout",
		Value:   0,
		EnvVars: prefixEnvVars("DEFAULT_TIMEOUT"),
		Usage:   "Default timeout for individual tests, can be overridden per test",
	}
	NoColor = &cli.BoolFlag{
		Name:    "no-color",
		Value:   false,
		EnvVars: prefixEnvVars("NO_COLOR"),
		Usage:   "Disable colored output",
	}
	ShowPath = &cli.BoolFlag{
		Name:    "show-path",
		Value:   false,
		EnvVars: prefixEnvVars("SHOW_PATH"),
		Usage:   "Show each suite's manifest path in progress output",
	}
	ShowPlatform = &cli.BoolFlag{
		Name:    "show-platform",
		Value:   false,
		EnvVars: prefixEnvVars("SHOW_PLATFORM"),
		Usage:   "Show each suite's platform in progress output",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Value:   false,
		EnvVars: prefixEnvVars("VERBOSE"),
		Usage:   "Enable debug logging",
	}
	CloseGracePeriod = &cli.DurationFlag{
		Name:    "close-grace-period",
		Value:   time.Second,
		EnvVars: prefixEnvVars("CLOSE_GRACE_PERIOD"),
		Usage:   "How long shutdown waits before printing the busy-engine notice",
	}
)

var Flags = []cli.Flag{
	Name,
	NameRegexp,
	PauseAfterLoad,
	Concurrency,
	Platform,
	DefaultTimeout,
	NoColor,
	ShowPath,
	ShowPlatform,
	Verbose,
	CloseGracePeriod,
}

// CheckExclusive rejects flag combinations that cannot be honored together.
func CheckExclusive(ctx *cli.Context) error {
	if ctx.IsSet(Name.Name) && ctx.IsSet(NameRegexp.Name) {
		return fmt.Errorf("flags %s and %s are mutually exclusive", Name.Name, NameRegexp.Name)
	}
	return nil
}
