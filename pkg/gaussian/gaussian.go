// Package gaussian implements the closed-form algebra of normal densities:
// the product of Gaussian PDFs and density evaluation. All functions are pure.
package gaussian

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Params are the two parameters of a normal distribution.
type Params struct {
	Mean   float64
	StdDev float64
}

// Variance returns StdDev squared.
func (p Params) Variance() float64 { return p.StdDev * p.StdDev }

// Precision returns the reciprocal of the variance.
func (p Params) Precision() float64 { return 1 / p.Variance() }

// Validate rejects a non-finite mean and a non-positive or non-finite std dev.
func (p Params) Validate() error {
	if math.IsNaN(p.Mean) || math.IsInf(p.Mean, 0) {
		return fmt.Errorf("mean must be finite, got %v", p.Mean)
	}
	if math.IsNaN(p.StdDev) || math.IsInf(p.StdDev, 0) || p.StdDev <= 0 {
		return fmt.Errorf("std dev must be positive and finite, got %v", p.StdDev)
	}
	return nil
}

// Multiply returns the mean and variance of the (renormalized) product of the
// supplied densities. No input yields (0, 1); a single input is returned as is.
func Multiply(ps ...Params) (mean, variance float64) {
	switch len(ps) {
	case 0:
		return 0, 1
	case 1:
		return ps[0].Mean, ps[0].Variance()
	}
	var precisionSum, weightedMeanSum float64
	for _, p := range ps {
		precision := p.Precision()
		precisionSum += precision
		weightedMeanSum += p.Mean * precision
	}
	return weightedMeanSum / precisionSum, 1 / precisionSum
}

// Product is Multiply expressed as Params.
func Product(ps ...Params) Params {
	mean, variance := Multiply(ps...)
	return Params{Mean: mean, StdDev: math.Sqrt(variance)}
}

// Density evaluates the normal PDF at x.
func Density(p Params, x float64) float64 {
	return distuv.Normal{Mu: p.Mean, Sigma: p.StdDev}.Prob(x)
}

// Peak returns the density at the mean.
func Peak(p Params) float64 {
	return 1 / (p.StdDev * math.Sqrt(2*math.Pi))
}
