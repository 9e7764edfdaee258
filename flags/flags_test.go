package flags

import (
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, f := range Flags {
		name := f.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestHasEnvVar(t *testing.T) {
	for _, f := range Flags {
		flagName := f.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlag, ok := f.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "flag %s must support env vars", flagName)
			envVars := envFlag.GetEnvVars()
			require.Len(t, envVars, 1)
			assert.True(t, strings.HasPrefix(envVars[0], EnvVarPrefix+"_"))
		})
	}
}

func TestCheckExclusive(t *testing.T) {
	newCtx := func(args map[string]string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String(Name.Name, "", "")
		set.String(NameRegexp.Name, "", "")
		for k, v := range args {
			require.NoError(t, set.Set(k, v))
		}
		return cli.NewContext(cli.NewApp(), set, nil)
	}

	assert.NoError(t, CheckExclusive(newCtx(nil)))
	assert.NoError(t, CheckExclusive(newCtx(map[string]string{Name.Name: "foo"})))
	assert.Error(t, CheckExclusive(newCtx(map[string]string{
		Name.Name:       "foo",
		NameRegexp.Name: "^foo$",
	})))
}
