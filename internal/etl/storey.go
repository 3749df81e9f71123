package etl

import (
	"math"
	"strconv"
	"strings"
)

// StoreyMidpoint converts a free-text floor-range string such as
// "07 TO 09" or "10-12" into a representative numeric floor, the midpoint
// of the two bounds. A single floor ("04") is its own midpoint.
// Unparseable input yields NaN, which downstream code treats as missing;
// this function never fails.
func StoreyMidpoint(storeyRange string) float64 {
	s := strings.ToUpper(strings.TrimSpace(storeyRange))
	s = strings.ReplaceAll(s, " TO ", "-")
	s = strings.ReplaceAll(s, " TO", "-")
	s = strings.ReplaceAll(s, "TO ", "-")

	parts := strings.SplitN(s, "-", 2)
	low, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return math.NaN()
	}
	high := low
	if len(parts) == 2 {
		high, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return math.NaN()
		}
	}
	return float64(low+high) / 2.0
}
