// Package version provides software and transport protocol version
// information for the server.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the software version of this module.
const Current = "1.0"

// TransportProtocolVersion is the opc.tcp transport protocol version
// announced during connection establishment.
const TransportProtocolVersion uint32 = 0

// Version represents a parsed "major.minor" software version.
type Version struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Version{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// BuildInfo returns the product description reported at startup.
func BuildInfo(applicationName string) string {
	return fmt.Sprintf("%s %s (opc.tcp protocol %d)", applicationName, Current, TransportProtocolVersion)
}
