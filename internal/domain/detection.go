package domain

import "time"

// Имя Redis-стрима с заданиями на асинхронную детекцию
const StreamDetectionJobs = "detection:jobs"

// Статусы запуска детекции
const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// SourceType - тип источника опасной близости
type SourceType string

const (
	SourcePowerObject SourceType = "power_object"
	SourcePowerLine   SourceType = "power_line"
)

// FetchOptions - явный набор категорий инфраструктуры для выборки.
// Пустой набор означает, что детекция не запрашивалась (fallback-запрос
// по place=city, как в исходном поведении формы).
type FetchOptions struct {
	PowerLines          bool `json:"power_lines"`
	CommunicationTowers bool `json:"communication_towers"`
	Substations         bool `json:"substations"`
	Transformers        bool `json:"transformers"`
	Converters          bool `json:"converters"`
}

// Any возвращает true, если выбрана хотя бы одна категория
func (o FetchOptions) Any() bool {
	return o.PowerLines || o.CommunicationTowers || o.Substations ||
		o.Transformers || o.Converters
}

// ProximityHit - жилое здание, оказавшееся в опасной близости от
// энергообъекта или сегмента линии. Одно здание может фигурировать в
// нескольких хитах - дедупликация по источникам не выполняется.
type ProximityHit struct {
	Building     ResidentialBuilding `json:"building"`
	SourceType   SourceType          `json:"source_type"`
	SourceID     int64               `json:"source_id"`
	Kind         PowerObjectKind     `json:"kind,omitempty"`
	SegmentIndex int                 `json:"segment_index,omitempty"`
	DistanceM    float64             `json:"distance_m"`
}

// DetectionResult - результат одного запуска детекции. Списки объектов и
// линий отдаются целиком: слой отрисовки рисует их независимо от наличия
// хитов.
type DetectionResult struct {
	RunID     string         `json:"run_id"`
	City      string         `json:"city"`
	Options   FetchOptions   `json:"options"`
	Objects   []PowerObject  `json:"objects"`
	Lines     []PowerLine    `json:"lines"`
	Buildings int            `json:"buildings"`
	Hits      []ProximityHit `json:"hits"`
	StartedAt time.Time      `json:"started_at"`
	TookMs    int64          `json:"took_ms"`
}

// DetectionRun - запись истории запусков в Postgres
type DetectionRun struct {
	ID          string     `json:"id" db:"id"`
	City        string     `json:"city" db:"city"`
	Options     string     `json:"options" db:"options"`
	Status      string     `json:"status" db:"status"`
	ObjectCount int        `json:"object_count" db:"object_count"`
	LineCount   int        `json:"line_count" db:"line_count"`
	HitCount    int        `json:"hit_count" db:"hit_count"`
	Error       *string    `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// DetectionJobEvent - событие в стриме заданий на детекцию
type DetectionJobEvent struct {
	RunID   string       `json:"run_id"`
	City    string       `json:"city"`
	Options FetchOptions `json:"options"`
}

// StreamMessage - сообщение из Redis-стрима
type StreamMessage struct {
	ID   string
	Data string
}
