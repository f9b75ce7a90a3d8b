package usecase

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/grid-proximity-microservice/internal/domain"
	"github.com/grid-proximity-microservice/internal/risk"
)

// Цвета маркеров по типам объектов - слой отрисовки использует их как есть
var kindColors = map[domain.PowerObjectKind]string{
	domain.KindSubstation:         "blue",
	domain.KindTransformer:        "green",
	domain.KindConverter:          "orange",
	domain.KindCommunicationTower: "red",
}

// BuildMapLayer собирает GeoJSON-слой для отрисовки результата на карте.
// Объекты и линии попадают в слой целиком, независимо от наличия хитов;
// хиты добавляются отдельными флагами с расстоянием и источником.
func BuildMapLayer(result *domain.DetectionResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, obj := range result.Objects {
		f := geojson.NewFeature(orb.Point{obj.Lon, obj.Lat})
		f.Properties = geojson.Properties{
			"layer": "power_object",
			"id":    obj.ID,
			"kind":  string(obj.Kind),
			"color": kindColors[obj.Kind],
		}
		if threshold, err := risk.ThresholdForPoint(obj.Kind); err == nil {
			f.Properties["threshold_m"] = threshold
		}
		fc.Append(f)
	}

	for _, line := range result.Lines {
		if len(line.Points) < 2 {
			continue
		}
		ls := make(orb.LineString, len(line.Points))
		for i, pt := range line.Points {
			ls[i] = orb.Point{pt.Lon, pt.Lat}
		}
		f := geojson.NewFeature(ls)
		f.Properties = geojson.Properties{
			"layer":       "power_line",
			"id":          line.ID,
			"voltage":     line.Voltage,
			"thickness_m": risk.ThicknessForVoltage(line.Voltage),
		}
		fc.Append(f)
	}

	for _, hit := range result.Hits {
		f := geojson.NewFeature(orb.Point{hit.Building.Lon, hit.Building.Lat})
		f.Properties = geojson.Properties{
			"layer":       "hit",
			"building_id": hit.Building.ID,
			"source_type": string(hit.SourceType),
			"source_id":   hit.SourceID,
			"distance_m":  hit.DistanceM,
		}
		if hit.SourceType == domain.SourcePowerLine {
			f.Properties["segment_index"] = hit.SegmentIndex
		}
		if hit.Kind != "" {
			f.Properties["kind"] = string(hit.Kind)
		}
		fc.Append(f)
	}

	return fc
}
