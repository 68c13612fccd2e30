// Package region defines the closed set of deployment regions and the router
// that maps a user's home region to the regional database that owns their rows.
package region

import (
	"fmt"
	"strings"
)

// Region is a deployment partition code (4 characters: 3 letters + 1 digit).
// A user's home region is assigned at signup and immutable afterwards.
type Region string

const (
	IND1 Region = "IND1"
	USA1 Region = "USA1"
	DEU1 Region = "DEU1"
)

// All lists every supported region.
var All = []Region{IND1, USA1, DEU1}

// Parse canonicalizes s (case-insensitive) to a supported Region.
// Returns an error for codes outside the supported set.
func Parse(s string) (Region, error) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range All {
		if r == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unsupported region %q", s)
}

// Valid reports whether r is one of the supported regions.
func (r Region) Valid() bool {
	for _, known := range All {
		if r == known {
			return true
		}
	}
	return false
}

func (r Region) String() string { return string(r) }
