// Package semver negotiates the bridge protocol version between host and UI surface.
package semver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:negotiate"

// SupportedProtocols lists the protocol versions this host speaks.
var SupportedProtocols = []string{"1.0.0", "1.1.0"}

var majorOnlyRegex = regexp.MustCompile(`^\d+$`)

// IsMajorOnly checks if a range is a major-only specifier (e.g., "1").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// Negotiate returns the highest supported version that satisfies the client's
// requested range. An empty range selects the highest supported version.
// A major-only range ("1") matches any version with that major.
func Negotiate(requested string, supported []string) (string, error) {
	requested = strings.TrimSpace(requested)

	versions := make([]*masterminds.Version, 0, len(supported))
	for _, s := range supported {
		v, err := masterminds.NewVersion(s)
		if err != nil {
			return "", fmt.Errorf("%s - invalid supported version %q: %w", logPrefix, s, err)
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("%s - no supported versions", logPrefix)
	}
	sort.Sort(sort.Reverse(masterminds.Collection(versions)))

	if requested == "" {
		return versions[0].String(), nil
	}
	if IsMajorOnly(requested) {
		requested = "^" + requested + ".0.0"
	}

	constraint, err := masterminds.NewConstraint(requested)
	if err != nil {
		return "", fmt.Errorf("%s - invalid protocol range %q: %w", logPrefix, requested, err)
	}
	for _, v := range versions {
		if constraint.Check(v) {
			return v.String(), nil
		}
	}
	return "", &UnsupportedError{Requested: requested, Supported: supported}
}

// UnsupportedError is returned when no supported version satisfies the requested range.
type UnsupportedError struct {
	Requested string
	Supported []string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("Protocol %s is not supported (host speaks %s)", e.Requested, strings.Join(e.Supported, ", "))
}
