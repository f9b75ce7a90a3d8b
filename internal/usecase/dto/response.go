package dto

import (
	"github.com/grid-proximity-microservice/internal/domain"
	"github.com/paulmach/orb/geojson"
)

// DetectResponse - результат синхронного запуска детекции.
// Map - готовый GeoJSON-слой для отрисовки на карте.
type DetectResponse struct {
	Result *domain.DetectionResult    `json:"result"`
	Map    *geojson.FeatureCollection `json:"map"`
}

// EnqueueResponse - ответ на постановку асинхронного задания
type EnqueueResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// RunResponse - запуск из истории вместе с хитами
type RunResponse struct {
	Run  domain.DetectionRun   `json:"run"`
	Hits []domain.ProximityHit `json:"hits"`
}

// RunListResponse - список последних запусков
type RunListResponse struct {
	Runs  []domain.DetectionRun `json:"runs"`
	Total int                   `json:"total"`
}
