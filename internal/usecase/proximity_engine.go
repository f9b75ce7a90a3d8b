package usecase

import (
	"github.com/grid-proximity-microservice/internal/domain"
	"github.com/grid-proximity-microservice/internal/geoindex"
	"github.com/grid-proximity-microservice/internal/pkg/geo"
	"github.com/grid-proximity-microservice/internal/risk"
	"go.uber.org/zap"
)

// ProximityEngine выполняет один прогон детекции: строит индекс по зданиям,
// затем последовательно проходит точечные объекты и сегменты линий.
// Прогон однопоточный, индекс принадлежит прогону и после построения
// только читается. Результат возвращается явным срезом хитов - движок
// не пишет ни в какие разделяемые структуры.
type ProximityEngine struct {
	paddingDeg float64
	logger     *zap.Logger
}

// NewProximityEngine создает новый ProximityEngine.
// paddingDeg - запас кандидатного bounding box в градусах: грубая оценка
// сверху самого большого порога на ожидаемых широтах, подбирается через
// конфигурацию.
func NewProximityEngine(paddingDeg float64, logger *zap.Logger) *ProximityEngine {
	return &ProximityEngine{
		paddingDeg: paddingDeg,
		logger:     logger,
	}
}

// Run выполняет детекцию и возвращает все найденные хиты. Здание может
// попасть в выдачу несколько раз - по одному хиту на каждый близкий
// объект или сегмент; дедупликация остаётся на стороне потребителя.
func (e *ProximityEngine) Run(set *domain.InfrastructureSet, buildings []domain.ResidentialBuilding) ([]domain.ProximityHit, error) {
	indexed := e.filterBuildings(buildings)
	index := geoindex.Build(indexed)

	if index.Size() == 0 {
		e.logger.Debug("No residential buildings to index, skipping passes")
		return []domain.ProximityHit{}, nil
	}

	hits := []domain.ProximityHit{}

	pointHits, err := e.pointPass(set.Objects, index, indexed)
	if err != nil {
		return nil, err
	}
	hits = append(hits, pointHits...)

	hits = append(hits, e.linePass(set.Lines, index, indexed)...)

	e.logger.Info("Detection pass finished",
		zap.Int("objects", len(set.Objects)),
		zap.Int("lines", len(set.Lines)),
		zap.Int("buildings", index.Size()),
		zap.Int("hits", len(hits)))

	return hits, nil
}

// filterBuildings отбрасывает здания с невалидными координатами до
// индексации. Потеря координат не фатальна - здание просто выпадает из
// прогона с записью в лог.
func (e *ProximityEngine) filterBuildings(buildings []domain.ResidentialBuilding) []domain.ResidentialBuilding {
	valid := make([]domain.ResidentialBuilding, 0, len(buildings))
	dropped := 0
	for _, b := range buildings {
		if !geo.ValidateCoordinates(b.Lat, b.Lon) {
			dropped++
			continue
		}
		valid = append(valid, b)
	}
	if dropped > 0 {
		e.logger.Warn("Dropped buildings with unresolvable coordinates",
			zap.Int("dropped", dropped))
	}
	return valid
}

// pointPass проверяет точечные энергообъекты. Кандидаты выбираются по
// bounding box с запасом и уточняются реальным расстоянием; порог
// зависит от типа объекта. Неизвестный тип - ошибка прогона: у порогов
// нет безопасного значения по умолчанию.
func (e *ProximityEngine) pointPass(objects []domain.PowerObject, index *geoindex.Index, buildings []domain.ResidentialBuilding) ([]domain.ProximityHit, error) {
	var hits []domain.ProximityHit

	for _, obj := range objects {
		if !geo.ValidateCoordinates(obj.Lat, obj.Lon) {
			e.logger.Warn("Dropped power object with unresolvable coordinates",
				zap.Int64("object_id", obj.ID))
			continue
		}

		threshold, err := risk.ThresholdForPoint(obj.Kind)
		if err != nil {
			return nil, err
		}

		box := domain.BoxAround(obj.Lat, obj.Lon).Pad(e.paddingDeg)
		for _, pos := range index.Query(box) {
			b := buildings[pos]
			distance := geo.Distance(obj.Lat, obj.Lon, b.Lat, b.Lon)
			if distance <= threshold {
				hits = append(hits, domain.ProximityHit{
					Building:   b,
					SourceType: domain.SourcePowerObject,
					SourceID:   obj.ID,
					Kind:       obj.Kind,
					DistanceM:  distance,
				})
			}
		}
	}

	return hits, nil
}

// linePass проверяет сегменты линий электропередачи. Расстояние до
// сегмента считается как минимум расстояний до его концов - это
// унаследованное упрощение политики, а не настоящее расстояние до
// отрезка, и оно сохраняется сознательно: замена геометрии меняет
// результаты детекции. Линии из менее чем двух вершин сегментов не дают.
func (e *ProximityEngine) linePass(lines []domain.PowerLine, index *geoindex.Index, buildings []domain.ResidentialBuilding) []domain.ProximityHit {
	var hits []domain.ProximityHit

	for _, line := range lines {
		threshold := risk.LineThreshold(risk.ThicknessForVoltage(line.Voltage))

		for i := 0; i+1 < len(line.Points); i++ {
			start := line.Points[i]
			end := line.Points[i+1]

			box := domain.BoxSpanning(start, end).Pad(e.paddingDeg)
			for _, pos := range index.Query(box) {
				b := buildings[pos]
				distance := geo.Distance(start.Lat, start.Lon, b.Lat, b.Lon)
				if d := geo.Distance(end.Lat, end.Lon, b.Lat, b.Lon); d < distance {
					distance = d
				}

				if distance <= threshold {
					hits = append(hits, domain.ProximityHit{
						Building:     b,
						SourceType:   domain.SourcePowerLine,
						SourceID:     line.ID,
						SegmentIndex: i,
						DistanceM:    distance,
					})
				}
			}
		}
	}

	return hits
}
