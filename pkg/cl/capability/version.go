package capability

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Version is a supported OpenCL API generation. The zero value is not a
// valid version; it marks "never" in revision ranges.
type Version uint8

const (
	VersionNone Version = iota
	V10
	V11
	V12
	V20
	V21
	V22
)

// MinVersion and MaxVersion bound the supported range.
const (
	MinVersion = V10
	MaxVersion = V22
)

var versionNumbers = [...][2]int{
	V10: {1, 0},
	V11: {1, 1},
	V12: {1, 2},
	V20: {2, 0},
	V21: {2, 1},
	V22: {2, 2},
}

// Versions returns every supported version in ascending order.
func Versions() []Version {
	return []Version{V10, V11, V12, V20, V21, V22}
}

// Valid reports whether v is one of the six supported tags.
func (v Version) Valid() bool {
	return v >= MinVersion && v <= MaxVersion
}

// Major returns the major number, or 0 for an invalid version.
func (v Version) Major() int {
	if !v.Valid() {
		return 0
	}
	return versionNumbers[v][0]
}

// Minor returns the minor number, or 0 for an invalid version.
func (v Version) Minor() int {
	if !v.Valid() {
		return 0
	}
	return versionNumbers[v][1]
}

func (v Version) String() string {
	if !v.Valid() {
		return "none"
	}
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// MarshalText lets versions appear in YAML and JSON as "1.2".
func (v Version) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid version %d", uint8(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText accepts "1.2" as well as a full runtime version string.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

var (
	// ErrUnparseableVersion is returned when a version string does not carry
	// a major.minor pair.
	ErrUnparseableVersion = errors.New("unparseable OpenCL version string")
	// ErrVersionTooOld is returned for runtimes below MinVersion.
	ErrVersionTooOld = errors.New("OpenCL version below the supported minimum")
)

var (
	runtimeVersionRe = regexp.MustCompile(`^OpenCL\s+(\d+)\.(\d+)(?:\s|$)`)
	tagRe            = regexp.MustCompile(`^\s*(\d+)\.(\d+)\s*$`)
)

// ParseVersion extracts major and minor from a platform or device version
// string of the form "OpenCL <major>.<minor> <vendor-specific information>".
func ParseVersion(s string) (major, minor int, err error) {
	m := runtimeVersionRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnparseableVersion, s)
	}
	return atoiPair(m[1], m[2], s)
}

// ParseTag parses either a bare "major.minor" tag or a runtime version
// string, and floors it onto a supported version.
func ParseTag(s string) (Version, error) {
	if m := tagRe.FindStringSubmatch(s); m != nil {
		major, minor, err := atoiPair(m[1], m[2], s)
		if err != nil {
			return VersionNone, err
		}
		return Floor(major, minor)
	}
	return Negotiate(s)
}

func atoiPair(a, b, src string) (int, int, error) {
	major, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnparseableVersion, src)
	}
	minor, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnparseableVersion, src)
	}
	return major, minor, nil
}

// Floor maps a reported major.minor onto the greatest supported version that
// does not exceed it. It never rounds up: 1.3 becomes 1.2 and 3.0 becomes 2.2.
func Floor(major, minor int) (Version, error) {
	best := VersionNone
	for _, v := range Versions() {
		if v.Major() < major || (v.Major() == major && v.Minor() <= minor) {
			best = v
		}
	}
	if best == VersionNone {
		return VersionNone, fmt.Errorf("%w: %d.%d", ErrVersionTooOld, major, minor)
	}
	return best, nil
}

// Negotiate parses a runtime version string and floors it.
func Negotiate(runtimeVersion string) (Version, error) {
	major, minor, err := ParseVersion(runtimeVersion)
	if err != nil {
		return VersionNone, err
	}
	return Floor(major, minor)
}

// Clamp lowers v to limit when limit is a valid version below v.
func Clamp(v, limit Version) Version {
	if limit.Valid() && limit < v {
		return limit
	}
	return v
}

// Capabilities holds one flag per API generation. V12 is true when every
// 1.2 operation may be called.
type Capabilities struct {
	V10 bool
	V11 bool
	V12 bool
	V20 bool
	V21 bool
	V22 bool
}

// Flags returns the feature flags for version v.
func Flags(v Version) Capabilities {
	return Capabilities{
		V10: v >= V10,
		V11: v >= V11,
		V12: v >= V12,
		V20: v >= V20,
		V21: v >= V21,
		V22: v >= V22,
	}
}

// Has reports whether the flags include generation v.
func (c Capabilities) Has(v Version) bool {
	switch v {
	case V10:
		return c.V10
	case V11:
		return c.V11
	case V12:
		return c.V12
	case V20:
		return c.V20
	case V21:
		return c.V21
	case V22:
		return c.V22
	}
	return false
}
