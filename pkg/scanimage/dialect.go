package scanimage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blang/semver"
)

// Dialect is one firmware generation's header line format. Pattern must
// capture the attribute name in a group called "attr" and the raw value in
// a group called "value".
type Dialect struct {
	Label   string
	Version semver.Version
	Pattern *regexp.Regexp
}

func (d Dialect) String() string {
	return d.Label
}

// match returns the attribute and value of a header line, if the line
// belongs to this dialect.
func (d Dialect) match(line string) (attr, value string, ok bool) {
	m := d.Pattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[d.Pattern.SubexpIndex("attr")], m[d.Pattern.SubexpIndex("value")], true
}

// CompileDialect builds a Dialect from configuration. The version may be
// abbreviated ("5.2" is read as 5.2.0).
func CompileDialect(label, version, pattern string) (Dialect, error) {
	v, err := parseVersion(version)
	if err != nil {
		return Dialect{}, fmt.Errorf("dialect %q: %w", label, err)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Dialect{}, fmt.Errorf("dialect %q: %w", label, err)
	}
	if re.SubexpIndex("attr") < 0 || re.SubexpIndex("value") < 0 {
		return Dialect{}, fmt.Errorf("dialect %q: pattern needs named groups attr and value", label)
	}
	if label == "" {
		label = version
	}
	return Dialect{Label: label, Version: v, Pattern: re}, nil
}

func mustDialect(label, version, pattern string) Dialect {
	d, err := CompileDialect(label, version, pattern)
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultDialects returns the known dialects in the order the parser tries
// them. Each call returns a fresh slice.
func DefaultDialects() []Dialect {
	return []Dialect{
		mustDialect("4", "4", `^scanimage\.SI4\.(?P<attr>\w*)\s*=\s*(?P<value>.*\S)\s*$`),
		mustDialect("5", "5", `^scanimage\.SI\.(?P<attr>[\.\w]*)\s*=\s*(?P<value>.*\S)\s*$`),
		mustDialect("5.2", "5.2", `^SI\.(?P<attr>[\.\w]*)\s*=\s*(?P<value>.*\S)\s*$`),
	}
}

func parseVersion(s string) (semver.Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return semver.Version{}, fmt.Errorf("empty dialect version")
	}
	switch strings.Count(s, ".") {
	case 0:
		s += ".0.0"
	case 1:
		s += ".0"
	}
	return semver.Parse(s)
}
