package enums

import "fmt"

// Region selects which regional archive deployment a run talks to.
type Region string

const (
	RegionNA    Region = "na"
	RegionEU    Region = "eu"
	RegionChina Region = "china"
)

var validRegions = []Region{
	RegionNA,
	RegionEU,
	RegionChina,
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Region.
func (r Region) IsValid() bool {
	for _, candidate := range validRegions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRegion converts raw input into a Region.
func ParseRegion(value string) (Region, error) {
	for _, candidate := range validRegions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid region %q", value)
}

// Regions returns the known regions in display order.
func Regions() []Region {
	out := make([]Region, len(validRegions))
	copy(out, validRegions)
	return out
}
