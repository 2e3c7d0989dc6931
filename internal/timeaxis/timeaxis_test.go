package timeaxis

import (
	"errors"
	"math"
	"testing"
)

func TestJulianDayKnownEpochs(t *testing.T) {
	tests := []struct {
		name string
		inst Instant
		want float64
	}{
		{
			name: "J2000.0",
			inst: Instant{Year: 2000, Month: 1, Day: 1, Hour: 12},
			want: 2451545.0,
		},
		{
			name: "2025-01-01 midnight",
			inst: Instant{Year: 2025, Month: 1, Day: 1},
			want: 2460676.5,
		},
		{
			name: "pre-March uses previous-year branch",
			inst: Instant{Year: 2024, Month: 2, Day: 29},
			want: 2460369.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.inst.JulianDay()
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("JulianDay() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestJulianDayDeterministic(t *testing.T) {
	a, err := NewInstant(2025, 8, 5)
	if err != nil {
		t.Fatalf("NewInstant: %v", err)
	}
	b, err := NewInstant(2025, 8, 5)
	if err != nil {
		t.Fatalf("NewInstant: %v", err)
	}
	if a.JulianDay() != b.JulianDay() {
		t.Errorf("same calendar date gave different epochs: %f vs %f", a.JulianDay(), b.JulianDay())
	}
}

func TestBuildLengthAndOrdering(t *testing.T) {
	for _, count := range []int{1, 2, 31, 365} {
		axis, err := Build(2025, 1, 1, count)
		if err != nil {
			t.Fatalf("Build(count=%d): %v", count, err)
		}
		if len(axis) != count {
			t.Fatalf("len(axis) = %d, want %d", len(axis), count)
		}
		jds := axis.JulianDays()
		for n := 1; n < len(jds); n++ {
			if jds[n] <= jds[n-1] {
				t.Errorf("epoch not strictly increasing at index %d: %f <= %f", n, jds[n], jds[n-1])
			}
		}
	}
}

func TestBuildCrossesMonthAndYearBoundaries(t *testing.T) {
	axis, err := Build(2024, 12, 30, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []Instant{
		{Year: 2024, Month: 12, Day: 30},
		{Year: 2024, Month: 12, Day: 31},
		{Year: 2025, Month: 1, Day: 1},
		{Year: 2025, Month: 1, Day: 2},
	}
	for n := range want {
		if axis[n] != want[n] {
			t.Errorf("axis[%d] = %v, want %v", n, axis[n], want[n])
		}
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	tests := []struct {
		name           string
		y, m, d, count int
	}{
		{"zero count", 2025, 1, 1, 0},
		{"negative count", 2025, 1, 1, -3},
		{"month 13", 2025, 13, 1, 1},
		{"month 0", 2025, 0, 1, 1},
		{"day 32", 2025, 1, 32, 1},
		{"feb 30", 2025, 2, 30, 1},
		{"feb 29 non-leap", 2025, 2, 29, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.y, tt.m, tt.d, tt.count)
			if !errors.Is(err, ErrInvalidDate) {
				t.Errorf("Build() error = %v, want ErrInvalidDate", err)
			}
		})
	}
}

func TestBuildFromDates(t *testing.T) {
	axis, err := BuildFromDates([][3]int{{2025, 1, 1}, {2025, 1, 2}})
	if err != nil {
		t.Fatalf("BuildFromDates: %v", err)
	}
	if len(axis) != 2 {
		t.Fatalf("len(axis) = %d, want 2", len(axis))
	}

	if _, err := BuildFromDates(nil); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("empty list error = %v, want ErrInvalidDate", err)
	}
	if _, err := BuildFromDates([][3]int{{2025, 2, 30}}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("malformed date error = %v, want ErrInvalidDate", err)
	}
}

func TestBuildFromDatesPreservesCallerOrder(t *testing.T) {
	// Out-of-order input is a documented caller responsibility; the axis
	// must not be re-sorted behind the caller's back.
	axis, err := BuildFromDates([][3]int{{2025, 6, 1}, {2025, 1, 1}})
	if err != nil {
		t.Fatalf("BuildFromDates: %v", err)
	}
	if axis[0].Month != 6 || axis[1].Month != 1 {
		t.Errorf("axis was re-sorted: %v", axis)
	}
}

func TestLeapFebruary(t *testing.T) {
	if _, err := NewInstant(2024, 2, 29); err != nil {
		t.Errorf("2024-02-29 should be valid: %v", err)
	}
	if _, err := NewInstant(2000, 2, 29); err != nil {
		t.Errorf("2000-02-29 should be valid: %v", err)
	}
	if _, err := NewInstant(1900, 2, 29); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("1900-02-29 should be rejected, got %v", err)
	}
}
