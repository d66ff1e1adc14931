package sink

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/LdDl/eeltrack/internal/summary"
	"github.com/LdDl/eeltrack/mot"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		frames INTEGER,
		tracks INTEGER,
		confirmed INTEGER,
		reports INTEGER
	);

	CREATE TABLE IF NOT EXISTS detections (
		run_id TEXT NOT NULL,
		frame INTEGER NOT NULL,
		timestamp_sec REAL NOT NULL,
		track_id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		PRIMARY KEY (run_id, frame, track_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);

	CREATE TABLE IF NOT EXISTS track_summaries (
		run_id TEXT NOT NULL,
		track_id INTEGER NOT NULL,
		first_frame INTEGER,
		last_frame INTEGER,
		first_seen_sec REAL,
		last_seen_sec REAL,
		reports INTEGER,
		avg_speed_px_s REAL,
		peak_speed_px_s REAL,
		path_length_px REAL,
		PRIMARY KEY (run_id, track_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);
`

// SQLiteSink stores events of a run in a local database file
type SQLiteSink struct {
	db  *sql.DB
	run RunInfo
}

// NewSQLiteSink opens (creates) database, ensures schema and registers the run
func NewSQLiteSink(ctx context.Context, path string, run RunInfo) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open database %s", path)
	}
	// Single writer, avoids SQLITE_BUSY on a file database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Can't create schema")
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, started_at) VALUES (?, ?, ?)`,
		run.ID.String(), run.Source, run.StartedAt.Format(time.RFC3339),
	)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Can't insert run")
	}
	return &SQLiteSink{db: db, run: run}, nil
}

func (sink *SQLiteSink) Write(ctx context.Context, event mot.Event) error {
	_, err := sink.db.ExecContext(ctx,
		`INSERT INTO detections (run_id, frame, timestamp_sec, track_id, x, y) VALUES (?, ?, ?, ?, ?, ?)`,
		sink.run.ID.String(), event.Frame, event.Timestamp, event.TrackID, event.Position.X, event.Position.Y,
	)
	if err != nil {
		return errors.Wrapf(err, "Can't insert detection of track %d on frame %d", event.TrackID, event.Frame)
	}
	return nil
}

func (sink *SQLiteSink) FinishRun(ctx context.Context, stats RunStats) error {
	_, err := sink.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, frames = ?, tracks = ?, confirmed = ?, reports = ? WHERE run_id = ?`,
		stats.FinishedAt.Format(time.RFC3339), stats.Frames, stats.Tracks, stats.Confirmed, stats.Reports, sink.run.ID.String(),
	)
	if err != nil {
		return errors.Wrap(err, "Can't finish run")
	}
	return nil
}

func (sink *SQLiteSink) WriteSummaries(ctx context.Context, summaries []summary.TrackSummary) error {
	tx, err := sink.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}
	defer tx.Rollback()
	for _, s := range summaries {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO track_summaries
			(run_id, track_id, first_frame, last_frame, first_seen_sec, last_seen_sec, reports, avg_speed_px_s, peak_speed_px_s, path_length_px)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sink.run.ID.String(), s.TrackID, s.FirstFrame, s.LastFrame, s.FirstSeen, s.LastSeen,
			s.Reports, s.AvgSpeed, s.PeakSpeed, s.PathLength,
		)
		if err != nil {
			return errors.Wrapf(err, "Can't insert summary of track %d", s.TrackID)
		}
	}
	return errors.Wrap(tx.Commit(), "Can't commit summaries")
}

func (sink *SQLiteSink) Close() error {
	return sink.db.Close()
}
