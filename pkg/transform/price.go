package transform

import (
	"math"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// minorUnitThreshold is the smallest integral value guessed to already be in
// minor units when a rule carries no unit tag.
const minorUnitThreshold = 100

// ToMinorUnits converts a price to an integer amount of minor units.
//
// unit "major" always multiplies by 100, unit "minor" only rounds. Without a
// unit an integral value >= 100 is assumed to be minor units already; this
// misreads whole major amounts such as 100.00, which is why rules should be
// tagged.
func ToMinorUnits(v interface{}, unit string) (int64, bool) {
	f, ok := common.ToFloat(v)
	if !ok {
		return 0, false
	}

	switch unit {
	case mapping.UnitMinor:
		return roundToInt64(f)
	case mapping.UnitMajor:
		return roundToInt64(f * 100)
	}

	if looksLikeMinorUnits(v) {
		return roundToInt64(f)
	}
	return roundToInt64(f * 100)
}

// roundToInt64 rejects amounts outside the int64 range instead of letting the
// conversion wrap.
func roundToInt64(f float64) (int64, bool) {
	r := math.Round(f)
	if math.Abs(r) >= math.MaxInt64 {
		return 0, false
	}
	return int64(r), true
}

func looksLikeMinorUnits(v interface{}) bool {
	f, ok := common.ToFloat(v)
	return ok && f == math.Trunc(f) && f >= minorUnitThreshold
}
