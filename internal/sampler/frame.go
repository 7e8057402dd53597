package sampler

import (
	"fmt"

	"pdfcore/pkg/domain"
)

// Trace is everything needed to draw one distribution in one frame.
type Trace struct {
	ID      domain.DistributionID `json:"id"`
	Name    string                `json:"name"`
	Product bool                  `json:"product"`
	Curve   []Point               `json:"curve"`
	// Fill is nil when shading is off.
	Fill []Point `json:"fill,omitempty"`
	// Markers is nil when std markers are off.
	Markers []Marker `json:"markers,omitempty"`
}

// Frame samples every distribution over view at resolution n, honoring the
// shading and marker toggles. The fill polygon uses the same n as the curve.
func Frame(dists []domain.Distribution, settings domain.DisplaySettings, view View, n int) ([]Trace, error) {
	traces := make([]Trace, 0, len(dists))
	for _, d := range dists {
		p := d.Params()
		curve, err := Curve(p, view, n)
		if err != nil {
			return nil, fmt.Errorf("sample distribution %s: %w", d.ID, err)
		}
		tr := Trace{ID: d.ID, Name: d.Name, Product: d.IsProduct(), Curve: curve}
		if settings.ShowShading {
			if tr.Fill, err = FillPolygon(p, view, n); err != nil {
				return nil, fmt.Errorf("fill distribution %s: %w", d.ID, err)
			}
		}
		if settings.ShowStdMarkers {
			tr.Markers = VisibleMarkers(Markers(p), view)
		}
		traces = append(traces, tr)
	}
	return traces, nil
}
