package risk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grid-proximity-microservice/internal/domain"
)

// Пороговые расстояния для точечных объектов, метры
const (
	thresholdCommunicationTower = 45.0
	thresholdSubstation         = 10.0
	thresholdTransformer        = 10.0
	thresholdConverter          = 10.0
)

// Толщины по умолчанию при отсутствующем и некорректном voltage
const (
	defaultThicknessEmpty   = 40.0
	defaultThicknessInvalid = 20.0
)

// ThresholdForPoint возвращает пороговое расстояние (в метрах) для точечного
// энергообъекта. Для неизвестного типа безопасного значения по умолчанию
// нет - возвращается ошибка.
func ThresholdForPoint(kind domain.PowerObjectKind) (float64, error) {
	switch kind {
	case domain.KindCommunicationTower:
		return thresholdCommunicationTower, nil
	case domain.KindSubstation:
		return thresholdSubstation, nil
	case domain.KindTransformer:
		return thresholdTransformer, nil
	case domain.KindConverter:
		return thresholdConverter, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownInfrastructureKind, kind)
	}
}

// ThicknessForVoltage переводит сырое значение тега voltage в толщину линии
// (метры). Поле может содержать несколько значений через точку с запятой -
// берётся максимальное. Пустое значение даёт 40, некорректное - 20.
func ThicknessForVoltage(voltage string) float64 {
	if voltage == "" {
		return defaultThicknessEmpty
	}

	maxVoltage := 0
	for i, part := range strings.Split(voltage, ";") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultThicknessInvalid
		}
		if i == 0 || v > maxVoltage {
			maxVoltage = v
		}
	}

	switch {
	case maxVoltage < 1000:
		return 2
	case maxVoltage < 20000:
		return 10
	case maxVoltage == 35000:
		return 15
	case maxVoltage == 110000:
		return 20
	case maxVoltage == 150000 || maxVoltage == 220000:
		return 25
	case maxVoltage == 330000 || maxVoltage == 400000 || maxVoltage == 500000:
		return 30
	case maxVoltage == 750000:
		return 40
	case maxVoltage == 1150000:
		return 55
	default:
		return 20
	}
}

// LineThreshold возвращает пороговое расстояние для сегмента линии.
// Толщина используется как порог напрямую - коэффициент подобран при
// настройке политики и не масштабируется.
func LineThreshold(thickness float64) float64 {
	return thickness
}
