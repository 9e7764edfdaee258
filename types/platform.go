package types

import (
	"fmt"
	"strings"
)

// Platform identifies the execution target a suite runs on.
type Platform string

const (
	PlatformVM              Platform = "vm"
	PlatformNode            Platform = "node"
	PlatformChrome          Platform = "chrome"
	PlatformChromeHeadless  Platform = "chrome-headless"
	PlatformFirefox         Platform = "firefox"
	PlatformFirefoxHeadless Platform = "firefox-headless"
	PlatformSafari          Platform = "safari"
)

var allPlatforms = []Platform{
	PlatformVM,
	PlatformNode,
	PlatformChrome,
	PlatformChromeHeadless,
	PlatformFirefox,
	PlatformFirefoxHeadless,
	PlatformSafari,
}

// debugUnsupported is the fixed set of platforms that can never host an
// interactive debug pause. The VM target resumes on its own, and headless
// browsers expose no window to attach a debugger to. This set is independent
// of configuration.
var debugUnsupported = map[Platform]bool{
	PlatformVM:              true,
	PlatformChromeHeadless:  true,
	PlatformFirefoxHeadless: true,
}

// SupportsDebug reports whether a debug pause can be serviced on p.
func (p Platform) SupportsDebug() bool {
	return !debugUnsupported[p]
}

func (p Platform) String() string {
	return string(p)
}

// ParsePlatform validates a platform name from configuration input.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allPlatforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q (valid: %s)", s, platformList(allPlatforms))
}

func platformList(ps []Platform) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
