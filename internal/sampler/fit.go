package sampler

import (
	"math"

	"pdfcore/pkg/gaussian"
)

// fitSigmas is how many of the widest standard deviation are kept visible
// beyond the outermost means.
const fitSigmas = 4

// Bounds is a fitted plot window.
type Bounds struct {
	View View    `json:"view"`
	YMax float64 `json:"y_max"`
}

// AutoFit frames every distribution: the x range spans the lowest and
// highest means padded by four of the widest standard deviation, and the
// y ceiling sits ten percent above the tallest possible peak. ok is false
// when ps is empty.
func AutoFit(ps []gaussian.Params) (Bounds, bool) {
	if len(ps) == 0 {
		return Bounds{}, false
	}
	minMean, maxMean := math.Inf(1), math.Inf(-1)
	var maxStd float64
	for _, p := range ps {
		minMean = math.Min(minMean, p.Mean)
		maxMean = math.Max(maxMean, p.Mean)
		maxStd = math.Max(maxStd, p.StdDev)
	}
	margin := fitSigmas * maxStd
	return Bounds{
		View: View{Min: minMean - margin, Max: maxMean + margin},
		YMax: 1.1 * gaussian.Peak(gaussian.Params{StdDev: maxStd}),
	}, true
}
