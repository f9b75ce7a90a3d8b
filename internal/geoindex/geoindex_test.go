package geoindex

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/grid-proximity-microservice/internal/domain"
)

func TestBuildEmpty(t *testing.T) {
	idx := Build(nil)

	if idx.Size() != 0 {
		t.Fatalf("empty index expected size 0, got %d", idx.Size())
	}
	if got := idx.Query(domain.BoundingBox{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}); len(got) != 0 {
		t.Fatalf("empty index should return no candidates, got %v", got)
	}
}

func TestQueryReturnsPointsInsideBox(t *testing.T) {
	buildings := []domain.ResidentialBuilding{
		{ID: 1, Lat: 50.00, Lon: 40.00},
		{ID: 2, Lat: 50.05, Lon: 40.05},
		{ID: 3, Lat: 51.00, Lon: 41.00}, // далеко за пределами box
	}

	idx := Build(buildings)
	if idx.Size() != 3 {
		t.Fatalf("expected size 3, got %d", idx.Size())
	}

	got := idx.Query(domain.BoundingBox{MinLat: 49.9, MinLon: 39.9, MaxLat: 50.1, MaxLon: 40.1})
	sort.Ints(got)

	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("expected positions [0 1], got %v", got)
	}
}

func TestQueryDegenerateBox(t *testing.T) {
	buildings := []domain.ResidentialBuilding{
		{ID: 1, Lat: 50.0, Lon: 40.0},
	}

	idx := Build(buildings)

	// Вырожденный box точно на точке здания не должен её терять
	got := idx.Query(domain.BoxAround(50.0, 40.0))
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("degenerate box should still match the point, got %v", got)
	}
}

// Свойство отсутствия ложных отрицаний: любая проиндексированная точка
// внутри запрошенного box обязана попасть в кандидаты.
func TestQueryNoFalseNegatives(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	buildings := make([]domain.ResidentialBuilding, 500)
	for i := range buildings {
		buildings[i] = domain.ResidentialBuilding{
			ID:  int64(i),
			Lat: 49.5 + rng.Float64(),
			Lon: 39.5 + rng.Float64(),
		}
	}

	idx := Build(buildings)

	for trial := 0; trial < 50; trial++ {
		minLat := 49.5 + rng.Float64()*0.8
		minLon := 39.5 + rng.Float64()*0.8
		box := domain.BoundingBox{
			MinLat: minLat,
			MinLon: minLon,
			MaxLat: minLat + 0.2,
			MaxLon: minLon + 0.2,
		}

		candidates := make(map[int]bool)
		for _, pos := range idx.Query(box) {
			candidates[pos] = true
		}

		for pos, b := range buildings {
			inside := b.Lat >= box.MinLat && b.Lat <= box.MaxLat &&
				b.Lon >= box.MinLon && b.Lon <= box.MaxLon
			if inside && !candidates[pos] {
				t.Fatalf("building %d (%v, %v) inside box %+v but missing from candidates",
					pos, b.Lat, b.Lon, box)
			}
		}
	}
}
