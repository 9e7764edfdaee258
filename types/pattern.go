package types

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern filters tests by name. It is either a case-sensitive substring
// match or a regular expression, depending on how it was constructed.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// NewPattern returns a literal substring pattern.
func NewPattern(source string) *Pattern {
	return &Pattern{source: source}
}

// NewRegexpPattern compiles source as a regular expression pattern.
func NewRegexpPattern(source string) (*Pattern, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern: %w", err)
	}
	return &Pattern{source: source, re: re}, nil
}

// Match reports whether a test name matches the pattern.
func (p *Pattern) Match(name string) bool {
	if p.re != nil {
		return p.re.MatchString(name)
	}
	return strings.Contains(name, p.source)
}

// IsRegexp reports the pattern's declared kind.
func (p *Pattern) IsRegexp() bool {
	return p.re != nil
}

// String returns the pattern source as entered by the user.
func (p *Pattern) String() string {
	return p.source
}
