package geo

import (
	"math"
	"testing"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := Distance(55.7558, 37.6173, 55.7558, 37.6173); d != 0 {
		t.Fatalf("distance between identical points expected 0, got %v", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Distance(55.7558, 37.6173, 59.9343, 30.3351)
	b := Distance(59.9343, 30.3351, 55.7558, 37.6173)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance should be symmetric: %v vs %v", a, b)
	}
}

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64 // метры
		tolerance              float64
	}{
		// Москва - Санкт-Петербург, ~634 км
		{"Moscow-SPb", 55.7558, 37.6173, 59.9343, 30.3351, 634000, 5000},
		// Один градус широты на экваторе, ~111.19 км
		{"one degree latitude", 0, 0, 1, 0, 111195, 100},
		// Сдвиг на 0.0001 градуса широты, ~11.1 м
		{"small offset", 50.0, 40.0, 50.0001, 40.0, 11.1, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Fatalf("expected ~%v m (±%v), got %v", tt.expected, tt.tolerance, got)
			}
		})
	}
}

func TestDistanceTriangleInequality(t *testing.T) {
	// Промежуточная точка не может удлинить прямой путь
	ab := Distance(50.0, 40.0, 50.1, 40.1)
	ac := Distance(50.0, 40.0, 50.05, 40.02)
	cb := Distance(50.05, 40.02, 50.1, 40.1)

	if ab > ac+cb+1e-9 {
		t.Fatalf("triangle inequality violated: %v > %v + %v", ab, ac, cb)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		valid    bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{-90.0001, 0, false},
		{0, 180.0001, false},
		{0, -180.0001, false},
	}

	for _, tt := range tests {
		if got := ValidateCoordinates(tt.lat, tt.lon); got != tt.valid {
			t.Fatalf("ValidateCoordinates(%v, %v) expected %v, got %v", tt.lat, tt.lon, tt.valid, got)
		}
	}
}
