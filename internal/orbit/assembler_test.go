package orbit

import (
	"errors"
	"testing"
)

func TestAssembleAppliesSharedNegation(t *testing.T) {
	earthRaw := PositionSeries{
		X: []float64{0.9, 0.8},
		Y: []float64{-0.3, -0.2},
		Z: []float64{0.01, 0.02},
	}
	bodyRaw := PositionSeries{
		X: []float64{-1.5, -1.4},
		Y: []float64{2.5, 2.6},
		Z: []float64{0.5, 0.4},
	}

	asm, err := Assemble(earthRaw, bodyRaw)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if asm.Earth.At(0) != (Vector{-0.9, 0.3, -0.01}) {
		t.Errorf("Earth[0] = %+v, want negated input", asm.Earth.At(0))
	}
	if asm.Body.At(1) != (Vector{1.4, -2.6, -0.4}) {
		t.Errorf("Body[1] = %+v, want negated input", asm.Body.At(1))
	}
}

func TestAssembleSunAlwaysAtOrigin(t *testing.T) {
	asm, err := Assemble(
		PositionSeries{X: []float64{1}, Y: []float64{2}, Z: []float64{3}},
		PositionSeries{X: []float64{4}, Y: []float64{5}, Z: []float64{6}},
	)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if asm.Sun != (Vector{0, 0, 0}) {
		t.Errorf("Sun = %+v, want origin", asm.Sun)
	}
}

func TestAssembleReferencePoints(t *testing.T) {
	earthRaw := PositionSeries{
		X: []float64{0.5, 0.6, 0.7},
		Y: []float64{1.5, 1.6, 1.7},
		Z: []float64{-0.5, -0.6, -0.7},
	}
	bodyRaw := PositionSeries{
		X: []float64{-2.0, -2.1, -2.2},
		Y: []float64{0.0, 0.1, 0.2},
		Z: []float64{3.0, 3.1, 3.2},
	}

	asm, err := Assemble(earthRaw, bodyRaw)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if asm.EarthRef != asm.Earth.At(0) {
		t.Errorf("EarthRef = %+v, want first converted sample %+v", asm.EarthRef, asm.Earth.At(0))
	}
	if asm.BodyRef != (Vector{2.0, 0.0, -3.0}) {
		t.Errorf("BodyRef = %+v, want negated first input sample", asm.BodyRef)
	}
}

func TestAssembleLengthMismatch(t *testing.T) {
	tests := []struct {
		name       string
		earthLen   int
		bodyLen    int
	}{
		{"body shorter", 3, 2},
		{"body longer", 2, 3},
		{"earth empty", 0, 2},
		{"body empty", 2, 0},
	}

	mk := func(n int) PositionSeries {
		return PositionSeries{X: make([]float64, n), Y: make([]float64, n), Z: make([]float64, n)}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(mk(tt.earthLen), mk(tt.bodyLen))
			if !errors.Is(err, ErrSeriesLengthMismatch) {
				t.Errorf("Assemble() error = %v, want ErrSeriesLengthMismatch", err)
			}
		})
	}
}

func TestAssembleDoesNotMutateInput(t *testing.T) {
	earthRaw := PositionSeries{X: []float64{1}, Y: []float64{2}, Z: []float64{3}}
	bodyRaw := PositionSeries{X: []float64{4}, Y: []float64{5}, Z: []float64{6}}

	if _, err := Assemble(earthRaw, bodyRaw); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if earthRaw.X[0] != 1 || bodyRaw.Z[0] != 6 {
		t.Errorf("input series mutated: earth=%+v body=%+v", earthRaw, bodyRaw)
	}
}

func TestNewSeriesRaggedComponents(t *testing.T) {
	if _, err := NewSeries([]float64{1, 2}, []float64{1}, []float64{1, 2}); !errors.Is(err, ErrSeriesLengthMismatch) {
		t.Errorf("NewSeries() error = %v, want ErrSeriesLengthMismatch", err)
	}
}
