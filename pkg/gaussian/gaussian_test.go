package gaussian

import (
	"math"
	"testing"
)

const (
	exactEpsilon  = 1e-10
	approxEpsilon = 1e-6
)

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestMultiplyEmptyAndSingle(t *testing.T) {
	mean, variance := Multiply()
	if mean != 0 || variance != 1 {
		t.Fatalf("expected (0,1) for empty input, got (%v,%v)", mean, variance)
	}
	p := Params{Mean: 3, StdDev: 2}
	mean, variance = Multiply(p)
	if mean != 3 || variance != 4 {
		t.Fatalf("expected identity for single input, got (%v,%v)", mean, variance)
	}
}

func TestMultiplyClosedForm(t *testing.T) {
	cases := []struct {
		m1, s1, m2, s2 float64
	}{
		{0, 1, 2, 1},
		{-4.5, 0.1, 7.25, 10},
		{1, 2, 3, 1},
		{100, 0.01, -100, 0.02},
	}
	for _, tc := range cases {
		p1 := 1 / (tc.s1 * tc.s1)
		p2 := 1 / (tc.s2 * tc.s2)
		wantMean := (tc.m1*p1 + tc.m2*p2) / (p1 + p2)
		wantVar := 1 / (p1 + p2)
		mean, variance := Multiply(Params{tc.m1, tc.s1}, Params{tc.m2, tc.s2})
		if !near(mean, wantMean, exactEpsilon) || !near(variance, wantVar, exactEpsilon) {
			t.Fatalf("multiply(%+v): got (%v,%v) want (%v,%v)", tc, mean, variance, wantMean, wantVar)
		}
	}
}

func TestMultiplyKnownProducts(t *testing.T) {
	cases := []struct {
		name     string
		in       []Params
		wantMean float64
		wantVar  float64
	}{
		{"two unit", []Params{{0, 1}, {2, 1}}, 1, 0.5},
		{"three", []Params{{0, 1}, {3, 1}, {6, 2}}, 2, 4.0 / 9.0},
		{"self", []Params{{3, 2}, {3, 2}}, 3, 2},
		{"precision dominated", []Params{{1, 0.1}, {5, 10}}, (1*100 + 5*0.01) / (100 + 0.01), 1 / (100 + 0.01)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mean, variance := Multiply(tc.in...)
			if !near(mean, tc.wantMean, approxEpsilon) || !near(variance, tc.wantVar, approxEpsilon) {
				t.Fatalf("got (%v,%v) want (%v,%v)", mean, variance, tc.wantMean, tc.wantVar)
			}
		})
	}
}

func TestMultiplyCommutativeAndAssociative(t *testing.T) {
	a := Params{-1, 0.7}
	b := Params{2.5, 1.3}
	c := Params{4, 3}

	m1, v1 := Multiply(a, b, c)
	m2, v2 := Multiply(c, a, b)
	if !near(m1, m2, exactEpsilon) || !near(v1, v2, exactEpsilon) {
		t.Fatalf("not commutative: (%v,%v) vs (%v,%v)", m1, v1, m2, v2)
	}

	ab := Product(a, b)
	m3, v3 := Multiply(ab, c)
	if !near(m1, m3, exactEpsilon) || !near(v1, v3, exactEpsilon) {
		t.Fatalf("not associative: (%v,%v) vs (%v,%v)", m1, v1, m3, v3)
	}
}

func TestDensity(t *testing.T) {
	std := Params{Mean: 0, StdDev: 1}
	if got, want := Density(std, 0), 1/math.Sqrt(2*math.Pi); !near(got, want, exactEpsilon) {
		t.Fatalf("peak density: got %v want %v", got, want)
	}
	if !near(Density(std, 1), Density(std, -1), exactEpsilon) {
		t.Fatalf("density not symmetric")
	}
	if got, want := Density(std, 1), math.Exp(-0.5)/math.Sqrt(2*math.Pi); !near(got, want, exactEpsilon) {
		t.Fatalf("density at 1: got %v want %v", got, want)
	}

	shifted := Params{Mean: 2, StdDev: 0.5}
	if got, want := Density(shifted, 2), Peak(shifted); !near(got, want, exactEpsilon) {
		t.Fatalf("shifted peak: got %v want %v", got, want)
	}
	if got, want := Density(shifted, 2.5), math.Exp(-0.5)/(0.5*math.Sqrt(2*math.Pi)); !near(got, want, exactEpsilon) {
		t.Fatalf("shifted one sigma: got %v want %v", got, want)
	}

	narrow := Params{Mean: 0, StdDev: 0.01}
	if Density(narrow, 0) < 39 {
		t.Fatalf("narrow peak too low: %v", Density(narrow, 0))
	}
	if Density(narrow, 0.1) > 1e-10 {
		t.Fatalf("narrow tail too high: %v", Density(narrow, 0.1))
	}
}

func TestParamsValidate(t *testing.T) {
	valid := []Params{{0, 1}, {-10, 0.1}, {1e6, 1e-6}}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Fatalf("expected %+v valid: %v", p, err)
		}
	}
	invalid := []Params{{0, 0}, {0, -1}, {math.NaN(), 1}, {math.Inf(1), 1}, {0, math.Inf(1)}, {0, math.NaN()}}
	for _, p := range invalid {
		if err := p.Validate(); err == nil {
			t.Fatalf("expected %+v invalid", p)
		}
	}
}
