package postgres

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS detection_runs (
    id           UUID PRIMARY KEY,
    city         TEXT NOT NULL,
    options      TEXT NOT NULL,
    status       TEXT NOT NULL,
    object_count INTEGER NOT NULL DEFAULT 0,
    line_count   INTEGER NOT NULL DEFAULT 0,
    hit_count    INTEGER NOT NULL DEFAULT 0,
    error        TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    finished_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS detection_hits (
    id            BIGSERIAL PRIMARY KEY,
    run_id        UUID NOT NULL REFERENCES detection_runs(id) ON DELETE CASCADE,
    building_id   BIGINT NOT NULL,
    building_lat  DOUBLE PRECISION NOT NULL,
    building_lon  DOUBLE PRECISION NOT NULL,
    source_type   TEXT NOT NULL,
    source_id     BIGINT NOT NULL,
    kind          TEXT,
    segment_index INTEGER NOT NULL DEFAULT 0,
    distance_m    DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_detection_hits_run_id ON detection_hits (run_id);
CREATE INDEX IF NOT EXISTS idx_detection_runs_created_at ON detection_runs (created_at DESC);
`

// EnsureSchema создаёт таблицы истории запусков, если их ещё нет
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
