// Package sampler turns distribution parameters into plot-ready data: curve
// points, fill polygons, and standard-deviation marker positions. Every
// function is pure; callers own the view and resolution.
package sampler

import (
	"errors"
	"fmt"
	"math"

	"pdfcore/pkg/gaussian"
)

// DefaultResolution is the curve sample count used when none is configured.
const DefaultResolution = 300

// MeanMarker is the index of the mean within the array Markers returns.
const MeanMarker = 3

var (
	// ErrInvalidView reports a non-finite or empty view range.
	ErrInvalidView = errors.New("invalid view")
	// ErrInvalidResolution reports a sample count the operation cannot honor.
	ErrInvalidResolution = errors.New("invalid resolution")
)

// Point is one plot vertex.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// View is the visible x range.
type View struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultView is the x range shown before any fit.
var DefaultView = View{Min: -6, Max: 6}

// Validate rejects non-finite bounds and empty ranges.
func (v View) Validate() error {
	if math.IsNaN(v.Min) || math.IsNaN(v.Max) || math.IsInf(v.Min, 0) || math.IsInf(v.Max, 0) {
		return fmt.Errorf("%w: bounds must be finite, got [%v, %v]", ErrInvalidView, v.Min, v.Max)
	}
	if v.Min >= v.Max {
		return fmt.Errorf("%w: min %v must be below max %v", ErrInvalidView, v.Min, v.Max)
	}
	return nil
}

// Contains reports whether x lies within the view, inclusive.
func (v View) Contains(x float64) bool { return x >= v.Min && x <= v.Max }

// Curve returns n evenly spaced (x, density) pairs spanning the view,
// inclusive of both endpoints.
func Curve(p gaussian.Params, view View, n int) ([]Point, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: curve needs at least 2 samples, got %d", ErrInvalidResolution, n)
	}
	span := view.Max - view.Min
	points := make([]Point, n)
	for i := range points {
		x := view.Min + span*float64(i)/float64(n-1)
		if i == n-1 {
			x = view.Max
		}
		points[i] = Point{X: x, Y: gaussian.Density(p, x)}
	}
	return points, nil
}

// FillPolygon returns the area-under-curve outline: (min, 0), n interior
// curve vertices strictly between the bounds, then (max, 0). Interior
// vertices never share an x with the floor corners, which would otherwise
// produce a zero-area edge. A view too narrow for its magnitude to place n
// distinct interior x values fails with ErrInvalidResolution.
func FillPolygon(p gaussian.Params, view View, n int) ([]Point, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: polygon sample count must be non-negative, got %d", ErrInvalidResolution, n)
	}
	points := make([]Point, 0, n+2)
	points = append(points, Point{X: view.Min, Y: 0})
	span := view.Max - view.Min
	for i := 1; i <= n; i++ {
		x := view.Min + span*float64(i)/float64(n+1)
		if n == 1 {
			x = (view.Min + view.Max) / 2
		}
		if x <= view.Min || x >= view.Max {
			return nil, fmt.Errorf("%w: %d interior vertices do not fit strictly inside [%v, %v]", ErrInvalidResolution, n, view.Min, view.Max)
		}
		points = append(points, Point{X: x, Y: gaussian.Density(p, x)})
	}
	return append(points, Point{X: view.Max, Y: 0}), nil
}

// Markers returns the mean and the one, two, and three sigma offsets on either
// side, ascending. Index MeanMarker holds the mean exactly.
func Markers(p gaussian.Params) [7]float64 {
	m, s := p.Mean, p.StdDev
	return [7]float64{m - 3*s, m - 2*s, m - s, m, m + s, m + 2*s, m + 3*s}
}

// Marker is a marker position that falls inside a view.
type Marker struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
}

// IsMean reports whether the marker is the mean line.
func (m Marker) IsMean() bool { return m.Index == MeanMarker }

// VisibleMarkers filters markers to the view, keeping their original index
// so the mean can still be styled apart.
func VisibleMarkers(markers [7]float64, view View) []Marker {
	out := make([]Marker, 0, len(markers))
	for i, x := range markers {
		if view.Contains(x) {
			out = append(out, Marker{Index: i, X: x})
		}
	}
	return out
}
