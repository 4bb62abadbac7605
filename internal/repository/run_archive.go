package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domrepo "TradeScope/internal/domain/repository"
	pkgch "TradeScope/pkg/clickhouse"
	applogger "TradeScope/pkg/logger"
)

const runHistoryTable = "tradescope.run_history"

var runHistorySchema = []string{
	`CREATE DATABASE IF NOT EXISTS tradescope`,
	`CREATE TABLE IF NOT EXISTS ` + runHistoryTable + ` (
        run_id      String,
        subject     String,
        mode        String,
        run_date    String,
        signal      String,
        confidence  Float64,
        error_count Int32,
        duration_ms Int64,
        created_at  DateTime DEFAULT now()
    ) ENGINE = MergeTree()
    ORDER BY (subject, run_date, created_at)`,
}

// CHRunArchive records terminal runs in ClickHouse for offline analytics.
type CHRunArchive struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHRunArchive(ch *pkgch.Client, l *applogger.Logger) domrepo.RunArchive {
	return &CHRunArchive{db: ch.DB(), l: l}
}

func (a *CHRunArchive) Init(ctx context.Context) error {
	for _, stmt := range runHistorySchema {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("run archive init: %w", err)
		}
	}
	return nil
}

func (a *CHRunArchive) Record(ctx context.Context, rec *domrepo.RunRecord) error {
	start := time.Now()
	const q = `INSERT INTO ` + runHistoryTable + `
        (run_id, subject, mode, run_date, signal, confidence, error_count, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := a.db.ExecContext(ctx, q,
		rec.RunID,
		rec.Subject,
		rec.Mode,
		rec.Date,
		rec.Signal,
		rec.Confidence,
		int32(rec.ErrorCount),
		rec.DurationMS,
	)
	if err != nil {
		if a.l != nil {
			a.l.Error("clickhouse run archive insert error",
				applogger.String("run_id", rec.RunID),
				applogger.String("subject", rec.Subject),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("run archive record: %w", err)
	}
	if a.l != nil {
		a.l.Debug("run archived",
			applogger.String("run_id", rec.RunID),
			applogger.String("subject", rec.Subject),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (a *CHRunArchive) Close() error {
	return nil // pool managed by pkg
}
