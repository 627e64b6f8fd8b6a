package history

import (
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

const table = "analyses"

// columns is the column order shared by inserts and selects.
var columns = []string{
	"id",
	"source",
	"filename",
	"file_size",
	"column_name",
	"total",
	"positive_count",
	"negative_count",
	"neutral_count",
	"degraded_count",
	"duration_seconds",
	"status",
	"error_code",
	"client_ip",
	"created_at",
	"results",
}

// scanner is satisfied by *sql.Row, *sql.Rows, and pgx.Row.
type scanner interface {
	Scan(dest ...any) error
}

// queries builds SQL for one placeholder dialect.
type queries struct {
	ph sq.PlaceholderFormat
}

func sqliteQueries() queries   { return queries{ph: sq.Question} }
func postgresQueries() queries { return queries{ph: sq.Dollar} }

func (q queries) insert(rec *core.AnalysisRecord) (string, []any, error) {
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return "", nil, fmt.Errorf("encode results: %w", err)
	}
	if rec.Results == nil {
		results = []byte("[]")
	}

	return sq.Insert(table).
		Columns(columns...).
		Values(
			rec.ID,
			string(rec.Source),
			rec.Filename,
			rec.FileSize,
			rec.Column,
			rec.Total,
			rec.PositiveCount,
			rec.NegativeCount,
			rec.NeutralCount,
			rec.DegradedCount,
			rec.DurationSeconds,
			rec.Status,
			rec.ErrorCode,
			rec.ClientIP,
			rec.CreatedAt.UnixMilli(),
			string(results),
		).
		PlaceholderFormat(q.ph).
		ToSql()
}

func (q queries) list(limit int) (string, []any, error) {
	return sq.Select(columns...).
		From(table).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(q.ph).
		ToSql()
}

func (q queries) get(id string) (string, []any, error) {
	return sq.Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(q.ph).
		ToSql()
}

// scanRecord reads one row in column order.
func scanRecord(row scanner) (core.AnalysisRecord, error) {
	var (
		rec       core.AnalysisRecord
		source    string
		createdAt int64
		results   string
	)
	err := row.Scan(
		&rec.ID,
		&source,
		&rec.Filename,
		&rec.FileSize,
		&rec.Column,
		&rec.Total,
		&rec.PositiveCount,
		&rec.NegativeCount,
		&rec.NeutralCount,
		&rec.DegradedCount,
		&rec.DurationSeconds,
		&rec.Status,
		&rec.ErrorCode,
		&rec.ClientIP,
		&createdAt,
		&results,
	)
	if err != nil {
		return core.AnalysisRecord{}, err
	}

	rec.Source = core.Source(source)
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	if results != "" {
		if err := json.Unmarshal([]byte(results), &rec.Results); err != nil {
			return core.AnalysisRecord{}, fmt.Errorf("decode results for %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// validLimit clamps non-positive limits to one row.
func validLimit(limit int) int {
	if limit <= 0 {
		return 1
	}
	return limit
}
