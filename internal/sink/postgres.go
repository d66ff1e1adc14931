package sink

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/LdDl/eeltrack/mot"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS eel_detections (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL,
		source TEXT NOT NULL,
		frame INTEGER NOT NULL,
		timestamp_sec DOUBLE PRECISION NOT NULL,
		track_id INTEGER NOT NULL,
		x DOUBLE PRECISION NOT NULL,
		y DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS eel_detections_run_idx ON eel_detections (run_id, frame);
`

// PostgresSink stores events in a shared PostgreSQL database
type PostgresSink struct {
	pool *pgxpool.Pool
	run  RunInfo
}

func NewPostgresSink(ctx context.Context, dsn string, run RunInfo) (*PostgresSink, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse postgres DSN")
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "Can't connect to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "Can't ping postgres")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "Can't create schema")
	}
	return &PostgresSink{pool: pool, run: run}, nil
}

func (sink *PostgresSink) Write(ctx context.Context, event mot.Event) error {
	_, err := sink.pool.Exec(ctx,
		`INSERT INTO eel_detections (run_id, source, frame, timestamp_sec, track_id, x, y) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sink.run.ID, sink.run.Source, event.Frame, event.Timestamp, event.TrackID, event.Position.X, event.Position.Y,
	)
	if err != nil {
		return errors.Wrapf(err, "Can't insert detection of track %d on frame %d", event.TrackID, event.Frame)
	}
	return nil
}

func (sink *PostgresSink) Close() error {
	sink.pool.Close()
	return nil
}
