package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// TrainingRun records one completed training job.
type TrainingRun struct {
	CreatedAt  time.Time       `json:"created_at"`
	Report     json.RawMessage `json:"report,omitempty"`
	ID         string          `json:"id"`
	DatasetID  string          `json:"dataset_id,omitempty"`
	ModelKind  string          `json:"model_kind"`
	ModelPath  string          `json:"model_path"`
	Accuracy   float64         `json:"accuracy"`
	MacroF1    float64         `json:"macro_f1"`
	TrainRows  int             `json:"train_rows"`
	TestRows   int             `json:"test_rows"`
	Duration   time.Duration   `json:"duration"`
	Stratified bool            `json:"stratified"`
}

var runColumns = []string{
	"id", "dataset_id", "model_kind", "model_path", "accuracy", "macro_f1",
	"train_rows", "test_rows", "stratified", "duration_ms", "report", "created_at",
}

// SaveTrainingRun inserts run, assigning an ID and timestamp when unset.
func (s *SQLiteStorage) SaveTrainingRun(ctx context.Context, run *TrainingRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	var datasetID any
	if run.DatasetID != "" {
		datasetID = run.DatasetID
	}
	var report any
	if len(run.Report) > 0 {
		report = string(run.Report)
	}

	query, args, err := squirrel.Insert("training_runs").
		Columns(runColumns...).
		Values(run.ID, datasetID, run.ModelKind, run.ModelPath, run.Accuracy, run.MacroF1,
			run.TrainRows, run.TestRows, run.Stratified, run.Duration.Milliseconds(), report, run.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build run insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}
	return nil
}

// ListTrainingRuns returns up to limit runs, newest first. limit <= 0
// returns all.
func (s *SQLiteStorage) ListTrainingRuns(ctx context.Context, limit int) ([]TrainingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	builder := squirrel.Select(runColumns...).
		From("training_runs").
		OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []TrainingRun
	for rows.Next() {
		var (
			run        TrainingRun
			datasetID  sql.NullString
			report     sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &datasetID, &run.ModelKind, &run.ModelPath, &run.Accuracy, &run.MacroF1,
			&run.TrainRows, &run.TestRows, &run.Stratified, &durationMS, &report, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		run.DatasetID = datasetID.String
		if report.Valid {
			run.Report = json.RawMessage(report.String)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, run)
	}
	return out, rows.Err()
}
