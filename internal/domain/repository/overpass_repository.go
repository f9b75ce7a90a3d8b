package repository

import (
	"context"

	"github.com/grid-proximity-microservice/internal/domain"
)

// OverpassRepository - интерфейс источника геоданных (Overpass API).
// Репозиторий возвращает уже типизированные объекты: теги узлов
// нормализованы в PowerObjectKind, вершины линий разрешены по таблице
// узлов (неизвестные ссылки пропускаются без изменения порядка).
type OverpassRepository interface {
	// FetchInfrastructure загружает энергообъекты и линии для города
	// по явному набору категорий
	FetchInfrastructure(ctx context.Context, city string, opts domain.FetchOptions) (*domain.InfrastructureSet, error)

	// FetchBuildings загружает точки жилых зданий для города
	FetchBuildings(ctx context.Context, city string) ([]domain.ResidentialBuilding, error)
}
