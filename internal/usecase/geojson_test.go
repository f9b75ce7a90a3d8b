package usecase_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grid-proximity-microservice/internal/domain"
	"github.com/grid-proximity-microservice/internal/usecase"
)

func TestBuildMapLayer(t *testing.T) {
	result := &domain.DetectionResult{
		Objects: []domain.PowerObject{
			{ID: 100, Lat: 50.0, Lon: 40.0, Kind: domain.KindSubstation},
			{ID: 101, Lat: 50.1, Lon: 40.1, Kind: domain.KindCommunicationTower},
		},
		Lines: []domain.PowerLine{
			{
				ID:      200,
				Voltage: "110000",
				Points: []domain.Point{
					{Lat: 50.0, Lon: 40.0},
					{Lat: 50.0, Lon: 40.01},
				},
			},
			// Линия из одной вершины в слой не попадает
			{ID: 201, Points: []domain.Point{{Lat: 50.2, Lon: 40.2}}},
		},
		Hits: []domain.ProximityHit{
			{
				Building:   domain.ResidentialBuilding{ID: 1, Lat: 50.00005, Lon: 40.0},
				SourceType: domain.SourcePowerObject,
				SourceID:   100,
				Kind:       domain.KindSubstation,
				DistanceM:  5.5,
			},
			{
				Building:     domain.ResidentialBuilding{ID: 2, Lat: 50.0001, Lon: 40.005},
				SourceType:   domain.SourcePowerLine,
				SourceID:     200,
				SegmentIndex: 0,
				DistanceM:    12.0,
			},
		},
	}

	fc := usecase.BuildMapLayer(result)
	require.Len(t, fc.Features, 5)

	// Точечные объекты с цветами политики
	substation := fc.Features[0]
	assert.Equal(t, orb.Point{40.0, 50.0}, substation.Geometry)
	assert.Equal(t, "power_object", substation.Properties["layer"])
	assert.Equal(t, "blue", substation.Properties["color"])
	assert.Equal(t, 10.0, substation.Properties["threshold_m"])

	tower := fc.Features[1]
	assert.Equal(t, "red", tower.Properties["color"])
	assert.Equal(t, 45.0, tower.Properties["threshold_m"])

	// Линия с толщиной из voltage
	line := fc.Features[2]
	assert.Equal(t, "power_line", line.Properties["layer"])
	assert.Equal(t, "110000", line.Properties["voltage"])
	assert.Equal(t, 20.0, line.Properties["thickness_m"])
	ls, ok := line.Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, ls, 2)

	// Хиты с источником и расстоянием
	objectHit := fc.Features[3]
	assert.Equal(t, "hit", objectHit.Properties["layer"])
	assert.Equal(t, "power_object", objectHit.Properties["source_type"])
	assert.Equal(t, "substation", objectHit.Properties["kind"])
	assert.NotContains(t, objectHit.Properties, "segment_index")

	lineHit := fc.Features[4]
	assert.Equal(t, "power_line", lineHit.Properties["source_type"])
	assert.Equal(t, 0, lineHit.Properties["segment_index"])
	assert.NotContains(t, lineHit.Properties, "kind")
}

func TestBuildMapLayerEmptyResult(t *testing.T) {
	fc := usecase.BuildMapLayer(&domain.DetectionResult{})
	assert.Empty(t, fc.Features)
}
