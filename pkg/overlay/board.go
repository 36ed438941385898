package overlay

import "strings"

// Series is the ROCK Pi hardware family. It determines which boot
// configuration format applies.
type Series string

const (
	Series3       Series = "3"
	Series4       Series = "4"
	Series5       Series = "5"
	SeriesS       Series = "s"
	SeriesUnknown Series = "unknown"
)

// seriesMarkers is checked in order; the first family with a marker
// contained in the model wins.
var seriesMarkers = []struct {
	series  Series
	markers []string
}{
	{Series3, []string{"3a", "3b", "3c"}},
	{Series4, []string{"4a", "4b", "4c"}},
	{Series5, []string{"5a", "5b", "5c"}},
	{SeriesS, []string{"pi s"}},
}

// Identify maps a device-tree model string (e.g. "Radxa ROCK Pi 4B") to a
// board series. Unrecognized models return SeriesUnknown; it is up to the
// caller to treat that as fatal.
func Identify(model string) Series {
	model = strings.ToLower(model)
	for _, family := range seriesMarkers {
		for _, m := range family.markers {
			if strings.Contains(model, m) {
				return family.series
			}
		}
	}
	return SeriesUnknown
}

// Known reports whether s is one of the supported series.
func (s Series) Known() bool {
	switch s {
	case Series3, Series4, Series5, SeriesS:
		return true
	}
	return false
}

func (s Series) String() string {
	return string(s)
}
