package units

import (
	"math"
	"testing"
)

func TestToRadians(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		units    string
		expected float64
	}{
		{"90 deg", 90, Degrees, math.Pi / 2},
		{"180 deg", 180, Degrees, math.Pi},
		{"-45 deg", -45, Degrees, -math.Pi / 4},
		{"radians pass through", 1.25, Radians, 1.25},
		{"unknown units default to radians", 0.5, "grad", 0.5},
		{"zero", 0, Degrees, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRadians(tt.value, tt.units)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("ToRadians(%f, %s) = %f, want %f", tt.value, tt.units, result, tt.expected)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, deg := range []float64{-720, -90, 0, 1, 33.3, 359.9} {
		got := RadiansToDegrees(DegreesToRadians(deg))
		if math.Abs(got-deg) > 1e-9 {
			t.Errorf("round trip of %f gave %f", deg, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"degrees", Degrees, true},
		{"radians", Radians, true},
		{"empty", "", false},
		{"uppercase", "DEG", false},
		{"speed unit", "mph", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "deg, rad" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}
