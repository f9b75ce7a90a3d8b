package dto

import "github.com/grid-proximity-microservice/internal/domain"

// DetectRequest - запрос на запуск детекции для города
type DetectRequest struct {
	City    string       `json:"city" validate:"required,min=2"`
	Options OptionsInput `json:"options"`
}

// OptionsInput - выбранные категории инфраструктуры (аналог чекбоксов формы)
type OptionsInput struct {
	PowerLines          bool `json:"power_lines"`
	CommunicationTowers bool `json:"communication_towers"`
	Substations         bool `json:"substations"`
	Transformers        bool `json:"transformers"`
	Converters          bool `json:"converters"`
}

// ToDomain конвертирует входные опции в доменный набор категорий
func (o OptionsInput) ToDomain() domain.FetchOptions {
	return domain.FetchOptions{
		PowerLines:          o.PowerLines,
		CommunicationTowers: o.CommunicationTowers,
		Substations:         o.Substations,
		Transformers:        o.Transformers,
		Converters:          o.Converters,
	}
}
