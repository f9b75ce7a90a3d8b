// Package geoindex строит R-tree индекс по точкам жилых зданий для быстрых
// запросов кандидатов по bounding box. Индекс отвечает без ложных
// отрицаний: все проиндексированные точки внутри запрошенного box
// обязательно попадают в выдачу, ложные срабатывания отфильтровывает
// вызывающий код по реальному расстоянию.
package geoindex

import (
	"github.com/dhconnelly/rtreego"

	"github.com/grid-proximity-microservice/internal/domain"
)

const (
	// Параметры узлов R-tree (2 измерения, min/max записей в узле)
	treeMinEntries = 25
	treeMaxEntries = 50

	// Точка индексируется как вырожденный box; rtreego требует
	// положительных сторон, поэтому раздуваем его на ~1 см в градусах.
	// На soundness это не влияет - box становится только шире.
	pointTolerance = 1e-7
)

// entry - одна проиндексированная точка; хранит позицию здания во входном
// срезе, по которой вызывающий код восстанавливает саму запись
type entry struct {
	pos  int
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// Index - неизменяемый после построения пространственный индекс.
// Конкурентные читатели безопасны, мутаций после Build нет.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// Build строит индекс по срезу зданий. Позиция здания в срезе становится
// его ключом в индексе. Пустой вход даёт индекс, возвращающий пустой
// список кандидатов на любой запрос.
func Build(buildings []domain.ResidentialBuilding) *Index {
	tree := rtreego.NewTree(2, treeMinEntries, treeMaxEntries)

	for pos, b := range buildings {
		rect := rtreego.Point{b.Lon, b.Lat}.ToRect(pointTolerance)
		tree.Insert(&entry{pos: pos, rect: rect})
	}

	return &Index{tree: tree, size: len(buildings)}
}

// Query возвращает позиции всех зданий, чьи box пересекаются с запрошенным.
// Порядок позиций не определён.
func (idx *Index) Query(box domain.BoundingBox) []int {
	if idx.size == 0 {
		return nil
	}

	lengths := []float64{box.MaxLon - box.MinLon, box.MaxLat - box.MinLat}
	for i := range lengths {
		if lengths[i] <= 0 {
			lengths[i] = pointTolerance
		}
	}

	rect, err := rtreego.NewRect(rtreego.Point{box.MinLon, box.MinLat}, lengths)
	if err != nil {
		return nil
	}

	results := idx.tree.SearchIntersect(rect)
	positions := make([]int, 0, len(results))
	for _, item := range results {
		positions = append(positions, item.(*entry).pos)
	}

	return positions
}

// Size возвращает количество проиндексированных зданий
func (idx *Index) Size() int {
	return idx.size
}
