package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/google/uuid"
)

// Dataset sources.
const (
	SourceSynthetic = "synthetic"
	SourceCSV       = "csv"
	SourceOFX       = "ofx"
)

// rowsPerInsert keeps multi-row inserts well under SQLite's bound
// parameter limit.
const rowsPerInsert = 400

// Dataset describes a stored set of labelled transactions.
type Dataset struct {
	CreatedAt time.Time `json:"created_at"`
	Seed      *int64    `json:"seed,omitempty"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	RowCount  int       `json:"row_count"`
}

var datasetColumns = []string{"id", "name", "source", "seed", "row_count", "created_at"}

// SaveDataset stores rows under a new dataset and returns its ID. Empty
// ID, Name or CreatedAt fields on meta are filled in.
func (s *SQLiteStorage) SaveDataset(ctx context.Context, meta Dataset, rows []model.RawTransaction) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateRows(rows); err != nil {
		return "", err
	}

	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Source == "" {
		meta.Source = SourceSynthetic
	}
	if meta.Name == "" {
		meta.Name = meta.Source + "-" + meta.ID[:8]
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.RowCount = len(rows)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := squirrel.Insert("datasets").
		Columns(datasetColumns...).
		Values(meta.ID, meta.Name, meta.Source, meta.Seed, meta.RowCount, meta.CreatedAt).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build dataset insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert dataset: %w", err)
	}

	for start := 0; start < len(rows); start += rowsPerInsert {
		end := min(start+rowsPerInsert, len(rows))
		insert := squirrel.Insert("dataset_rows").
			Columns("dataset_id", "position", "date", "merchant", "description", "amount", "label", "hash")
		for i := start; i < end; i++ {
			r := rows[i]
			insert = insert.Values(meta.ID, i, r.Timestamp, r.Merchant, r.Description, r.Amount, r.Label, r.Hash())
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return "", fmt.Errorf("failed to build row insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", fmt.Errorf("failed to insert dataset rows: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit dataset: %w", err)
	}
	return meta.ID, nil
}

// GetDataset returns the dataset with the given ID.
func (s *SQLiteStorage) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select(datasetColumns...).
		From("datasets").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset query: %w", err)
	}
	return s.scanDataset(s.db.QueryRowContext(ctx, query, args...), id)
}

// LatestDataset returns the most recently created dataset.
func (s *SQLiteStorage) LatestDataset(ctx context.Context) (*Dataset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select(datasetColumns...).
		From("datasets").
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset query: %w", err)
	}
	return s.scanDataset(s.db.QueryRowContext(ctx, query, args...), "latest")
}

// ListDatasets returns up to limit datasets, newest first. limit <= 0
// returns all.
func (s *SQLiteStorage) ListDatasets(ctx context.Context, limit int) ([]Dataset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	builder := squirrel.Select(datasetColumns...).
		From("datasets").
		OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Dataset
	for rows.Next() {
		d, err := scanDatasetRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetDatasetRows returns the rows of a dataset in insertion order.
func (s *SQLiteStorage) GetDatasetRows(ctx context.Context, id string) ([]model.RawTransaction, error) {
	if _, err := s.GetDataset(ctx, id); err != nil {
		return nil, err
	}

	query, args, err := squirrel.Select("date", "merchant", "description", "amount", "label").
		From("dataset_rows").
		Where(squirrel.Eq{"dataset_id": id}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build row query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.RawTransaction
	for rows.Next() {
		var r model.RawTransaction
		if err := rows.Scan(&r.Timestamp, &r.Merchant, &r.Description, &r.Amount, &r.Label); err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteDataset removes a dataset and its rows.
func (s *SQLiteStorage) DeleteDataset(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	query, args, err := squirrel.Delete("datasets").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: dataset %s", common.ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStorage) scanDataset(row *sql.Row, id string) (*Dataset, error) {
	d, err := scanDatasetRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: dataset %s", common.ErrNotFound, id)
	}
	return d, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDatasetRow(row scanner) (*Dataset, error) {
	var d Dataset
	var seed sql.NullInt64
	if err := row.Scan(&d.ID, &d.Name, &d.Source, &seed, &d.RowCount, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan dataset: %w", err)
	}
	if seed.Valid {
		d.Seed = &seed.Int64
	}
	return &d, nil
}
