package repository

// Region identifies one tracked geographic scope.
type Region string

const (
	RegionEurope      Region = "europe"
	RegionMiddleEast  Region = "middle_east"
	RegionAsiaPacific Region = "asia_pacific"

	// ScopeGlobal is the cross-region scope; not a Region but shares the
	// scope namespace on signals and composites.
	ScopeGlobal = "global"
)

// AllRegions returns the fixed region set in stable order.
func AllRegions() []Region {
	return []Region{RegionEurope, RegionMiddleEast, RegionAsiaPacific}
}

// IsValidRegion returns true if r is a tracked region.
func IsValidRegion(r Region) bool {
	switch r {
	case RegionEurope, RegionMiddleEast, RegionAsiaPacific:
		return true
	default:
		return false
	}
}

// countryRegions maps ISO country codes of the monitored countries to
// their tracked region. Countries outside the set carry no region.
var countryRegions = map[string]Region{
	"UA": RegionEurope,
	"PL": RegionEurope,
	"EE": RegionEurope,
	"LT": RegionEurope,
	"FI": RegionEurope,
	"IL": RegionMiddleEast,
	"IR": RegionMiddleEast,
	"LB": RegionMiddleEast,
	"SA": RegionMiddleEast,
	"TW": RegionAsiaPacific,
	"KR": RegionAsiaPacific,
	"JP": RegionAsiaPacific,
	"PH": RegionAsiaPacific,
}

// RegionForCountry maps an ISO country code to its tracked region.
func RegionForCountry(code string) (Region, bool) {
	r, ok := countryRegions[code]
	return r, ok
}

// RegionCountries returns the monitored country codes for one region,
// in stable order.
func RegionCountries(r Region) []string {
	switch r {
	case RegionEurope:
		return []string{"UA", "PL", "EE", "LT", "FI"}
	case RegionMiddleEast:
		return []string{"IL", "IR", "LB", "SA"}
	case RegionAsiaPacific:
		return []string{"TW", "KR", "JP", "PH"}
	default:
		return nil
	}
}

// DisplayName returns the human-readable region name.
func DisplayName(r Region) string {
	switch r {
	case RegionEurope:
		return "Europe"
	case RegionMiddleEast:
		return "Middle East"
	case RegionAsiaPacific:
		return "Asia-Pacific"
	default:
		return string(r)
	}
}
