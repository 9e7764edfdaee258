package suiterun

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/suiterun/suiterun/flags"
	"github.com/suiterun/suiterun/types"
)

// DefaultCloseGracePeriod is how long Close waits before telling the user
// that in-flight tests are still draining.
const DefaultCloseGracePeriod = time.Second

// Config holds the orchestrator configuration. It is an immutable snapshot
// for the lifetime of one Orchestrator instance.
type Config struct {
	Paths          []string         // Files or directories to search for suites
	Pattern        *types.Pattern   // Optional test name filter
	PauseAfterLoad bool             // Run suites one at a time, pausing for debugger attachment
	Concurrency    int              // Number of suites to run concurrently (0 = one per CPU)
	Platforms      []types.Platform // Platforms suites are expected to run on
	DefaultTimeout time.Duration    // Default timeout for individual tests
	Color          bool             // Colorize progress output
	ShowPath       bool             // Show suite manifest paths in progress output
	ShowPlatform   bool             // Show suite platforms in progress output

	// CloseGracePeriod overrides DefaultCloseGracePeriod when non-zero.
	CloseGracePeriod time.Duration

	Log log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckExclusive(ctx); err != nil {
		return nil, err
	}

	paths := ctx.Args().Slice()
	if len(paths) == 0 {
		return nil, errors.New("at least one test path is required")
	}

	var pattern *types.Pattern
	if s := ctx.String(flags.NameRegexp.Name); s != "" {
		var err error
		pattern, err = types.NewRegexpPattern(s)
		if err != nil {
			return nil, err
		}
	} else if s := ctx.String(flags.Name.Name); s != "" {
		pattern = types.NewPattern(s)
	}

	var platforms []types.Platform
	for _, s := range ctx.StringSlice(flags.Platform.Name) {
		p, err := types.ParsePlatform(s)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}

	return &Config{
		Paths:            paths,
		Pattern:          pattern,
		PauseAfterLoad:   ctx.Bool(flags.PauseAfterLoad.Name),
		Concurrency:      ctx.Int(flags.Concurrency.Name),
		Platforms:        platforms,
		DefaultTimeout:   ctx.Duration(flags.DefaultTimeout.Name),
		Color:            !ctx.Bool(flags.NoColor.Name),
		ShowPath:         ctx.Bool(flags.ShowPath.Name),
		ShowPlatform:     ctx.Bool(flags.ShowPlatform.Name),
		CloseGracePeriod: ctx.Duration(flags.CloseGracePeriod.Name),
		Log:              logger,
	}, nil
}

func (c *Config) gracePeriod() time.Duration {
	if c.CloseGracePeriod > 0 {
		return c.CloseGracePeriod
	}
	return DefaultCloseGracePeriod
}

func (c *Config) logger() log.Logger {
	if c.Log == nil {
		return log.New()
	}
	return c.Log
}
