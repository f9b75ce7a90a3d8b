package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownInfrastructureKind возвращается, когда тип энергообъекта не удалось
// распознать. Для неизвестного типа нет безопасного порога по умолчанию,
// поэтому ошибка не гасится, а поднимается до вызывающего кода.
var ErrUnknownInfrastructureKind = errors.New("unknown infrastructure kind")

// PowerObjectKind - тип точечного энергообъекта
type PowerObjectKind string

const (
	KindSubstation         PowerObjectKind = "substation"
	KindTransformer        PowerObjectKind = "transformer"
	KindConverter          PowerObjectKind = "converter"
	KindCommunicationTower PowerObjectKind = "communication_tower"
)

// KindFromTags нормализует сырые OSM-теги узла в PowerObjectKind.
// Узлы man_made=tower с tower:type=communication считаются вышками связи,
// значения power=substation/transformer/converter мапятся напрямую.
// Возвращает (kind, true, nil) если узел является энергообъектом,
// (_, false, nil) если узел не энергообъект (например, вершина линии),
// и ErrUnknownInfrastructureKind для нераспознанного значения power.
func KindFromTags(tags map[string]string) (PowerObjectKind, bool, error) {
	if tags["man_made"] == "tower" && tags["tower:type"] == "communication" {
		return KindCommunicationTower, true, nil
	}

	power, ok := tags["power"]
	if !ok {
		return "", false, nil
	}

	switch power {
	case "substation":
		return KindSubstation, true, nil
	case "transformer":
		return KindTransformer, true, nil
	case "converter":
		return KindConverter, true, nil
	default:
		return "", false, fmt.Errorf("%w: power=%s", ErrUnknownInfrastructureKind, power)
	}
}

// PowerObject - точечный энергообъект (подстанция, трансформатор, вышка связи)
type PowerObject struct {
	ID   int64           `json:"id"`
	Lat  float64         `json:"lat"`
	Lon  float64         `json:"lon"`
	Kind PowerObjectKind `json:"kind"`
}

// PowerLine - линия электропередачи как ломаная из разрешённых вершин.
// Voltage хранится в сыром виде из источника (может содержать несколько
// значений через точку с запятой или быть некорректным) - разбором
// занимается пакет risk.
type PowerLine struct {
	ID      int64   `json:"id"`
	Points  []Point `json:"points"`
	Voltage string  `json:"voltage,omitempty"`
}

// ResidentialBuilding - точка жилого здания
type ResidentialBuilding struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// InfrastructureSet - типизированный результат выборки инфраструктуры
type InfrastructureSet struct {
	Objects []PowerObject `json:"objects"`
	Lines   []PowerLine   `json:"lines"`
}
