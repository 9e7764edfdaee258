package suiterun

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/suiterun/suiterun/flags"
	"github.com/suiterun/suiterun/types"
)

func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var cfg *Config
	var cfgErr error
	app := cli.NewApp()
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		cfg, cfgErr = NewConfig(ctx, log.NewLogger(log.DiscardHandler()))
		return nil
	}
	require.NoError(t, app.Run(append([]string{"suiterun"}, args...)))
	return cfg, cfgErr
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(t, "./suites")
	require.NoError(t, err)

	assert.Equal(t, []string{"./suites"}, cfg.Paths)
	assert.Nil(t, cfg.Pattern)
	assert.False(t, cfg.PauseAfterLoad)
	assert.Zero(t, cfg.Concurrency)
	assert.True(t, cfg.Color)
	assert.Equal(t, time.Second, cfg.CloseGracePeriod)
}

func TestNewConfigRequiresPaths(t *testing.T) {
	_, err := parseConfig(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one test path")
}

func TestNewConfigSubstringPattern(t *testing.T) {
	cfg, err := parseConfig(t, "--name", "serves", "./suites")
	require.NoError(t, err)
	require.NotNil(t, cfg.Pattern)
	assert.False(t, cfg.Pattern.IsRegexp())
	assert.True(t, cfg.Pattern.Match("server serves requests"))
}

func TestNewConfigRegexpPattern(t *testing.T) {
	cfg, err := parseConfig(t, "--name-regexp", "^serve", "./suites")
	require.NoError(t, err)
	require.NotNil(t, cfg.Pattern)
	assert.True(t, cfg.Pattern.IsRegexp())
	assert.True(t, cfg.Pattern.Match("serves requests"))
	assert.False(t, cfg.Pattern.Match("it serves requests"))
}

func TestNewConfigRejectsBadRegexp(t *testing.T) {
	_, err := parseConfig(t, "--name-regexp", "se(rve", "./suites")
	assert.Error(t, err)
}

func TestNewConfigExclusivePatternFlags(t *testing.T) {
	_, err := parseConfig(t, "--name", "a", "--name-regexp", "b", "./suites")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestNewConfigPlatforms(t *testing.T) {
	cfg, err := parseConfig(t, "--platform", "vm", "--platform", "chrome", "./suites")
	require.NoError(t, err)
	assert.Equal(t, []types.Platform{types.PlatformVM, types.PlatformChrome}, cfg.Platforms)
}

func TestNewConfigRejectsUnknownPlatform(t *testing.T) {
	_, err := parseConfig(t, "--platform", "commodore64", "./suites")
	assert.Error(t, err)
}

func TestNewConfigNoColor(t *testing.T) {
	cfg, err := parseConfig(t, "--no-color", "./suites")
	require.NoError(t, err)
	assert.False(t, cfg.Color)
}
