package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grid-proximity-microservice/internal/domain"
	"github.com/grid-proximity-microservice/internal/domain/repository"
	"go.uber.org/zap"
)

type runRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRunRepository создает новый экземпляр run repository
func NewRunRepository(db *DB, logger *zap.Logger) repository.RunRepository {
	return &runRepository{
		db:     db,
		logger: logger,
	}
}

// CreateRun создаёт запись о запуске детекции
func (r *runRepository) CreateRun(ctx context.Context, run *domain.DetectionRun) error {
	query := `
		INSERT INTO detection_runs (id, city, options, status, created_at)
		VALUES (:id, :city, :options, :status, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		r.logger.Error("failed to create run", zap.String("run_id", run.ID), zap.Error(err))
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// CompleteRun помечает запуск завершённым и сохраняет счётчики
func (r *runRepository) CompleteRun(ctx context.Context, run *domain.DetectionRun) error {
	query := `
		UPDATE detection_runs
		SET status = :status,
		    object_count = :object_count,
		    line_count = :line_count,
		    hit_count = :hit_count,
		    finished_at = now()
		WHERE id = :id`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		r.logger.Error("failed to complete run", zap.String("run_id", run.ID), zap.Error(err))
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// FailRun помечает запуск неуспешным
func (r *runRepository) FailRun(ctx context.Context, runID string, reason string) error {
	query := `
		UPDATE detection_runs
		SET status = $1, error = $2, finished_at = now()
		WHERE id = $3`

	if _, err := r.db.ExecContext(ctx, query, domain.RunStatusFailed, reason, runID); err != nil {
		r.logger.Error("failed to mark run as failed", zap.String("run_id", runID), zap.Error(err))
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// hitRow - строка detection_hits для сканирования через sqlx
type hitRow struct {
	RunID        string  `db:"run_id"`
	BuildingID   int64   `db:"building_id"`
	BuildingLat  float64 `db:"building_lat"`
	BuildingLon  float64 `db:"building_lon"`
	SourceType   string  `db:"source_type"`
	SourceID     int64   `db:"source_id"`
	Kind         string  `db:"kind"`
	SegmentIndex int     `db:"segment_index"`
	DistanceM    float64 `db:"distance_m"`
}

// SaveHits сохраняет хиты запуска одним batch insert
func (r *runRepository) SaveHits(ctx context.Context, runID string, hits []domain.ProximityHit) error {
	if len(hits) == 0 {
		return nil
	}

	rows := make([]hitRow, len(hits))
	for i, hit := range hits {
		rows[i] = hitRow{
			RunID:        runID,
			BuildingID:   hit.Building.ID,
			BuildingLat:  hit.Building.Lat,
			BuildingLon:  hit.Building.Lon,
			SourceType:   string(hit.SourceType),
			SourceID:     hit.SourceID,
			Kind:         string(hit.Kind),
			SegmentIndex: hit.SegmentIndex,
			DistanceM:    hit.DistanceM,
		}
	}

	query := `
		INSERT INTO detection_hits
			(run_id, building_id, building_lat, building_lon,
			 source_type, source_id, kind, segment_index, distance_m)
		VALUES
			(:run_id, :building_id, :building_lat, :building_lon,
			 :source_type, :source_id, :kind, :segment_index, :distance_m)`

	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		r.logger.Error("failed to save hits",
			zap.String("run_id", runID),
			zap.Int("count", len(hits)),
			zap.Error(err))
		return fmt.Errorf("save hits: %w", err)
	}

	return nil
}

// GetRun возвращает запуск по ID
func (r *runRepository) GetRun(ctx context.Context, runID string) (*domain.DetectionRun, error) {
	var run domain.DetectionRun
	query := `SELECT * FROM detection_runs WHERE id = $1`

	if err := r.db.GetContext(ctx, &run, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to get run", zap.String("run_id", runID), zap.Error(err))
		return nil, fmt.Errorf("get run: %w", err)
	}

	return &run, nil
}

// ListRuns возвращает последние запуски
func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]domain.DetectionRun, error) {
	runs := []domain.DetectionRun{}
	query := `SELECT * FROM detection_runs ORDER BY created_at DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		r.logger.Error("failed to list runs", zap.Error(err))
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return runs, nil
}

// GetHits возвращает хиты запуска
func (r *runRepository) GetHits(ctx context.Context, runID string) ([]domain.ProximityHit, error) {
	rows := []hitRow{}
	query := `
		SELECT run_id, building_id, building_lat, building_lon,
		       source_type, source_id, kind, segment_index, distance_m
		FROM detection_hits
		WHERE run_id = $1
		ORDER BY distance_m`

	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		r.logger.Error("failed to get hits", zap.String("run_id", runID), zap.Error(err))
		return nil, fmt.Errorf("get hits: %w", err)
	}

	hits := make([]domain.ProximityHit, len(rows))
	for i, row := range rows {
		hits[i] = domain.ProximityHit{
			Building: domain.ResidentialBuilding{
				ID:  row.BuildingID,
				Lat: row.BuildingLat,
				Lon: row.BuildingLon,
			},
			SourceType:   domain.SourceType(row.SourceType),
			SourceID:     row.SourceID,
			Kind:         domain.PowerObjectKind(row.Kind),
			SegmentIndex: row.SegmentIndex,
			DistanceM:    row.DistanceM,
		}
	}

	return hits, nil
}
