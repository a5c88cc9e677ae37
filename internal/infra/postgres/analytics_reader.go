package postgres

import (
	"context"
	"fmt"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AnalyticsReader serves the read-only analytics queries straight from a pgx pool.
type AnalyticsReader struct {
	pool *pgxpool.Pool
}

func NewAnalyticsReader(pool *pgxpool.Pool) *AnalyticsReader {
	return &AnalyticsReader{pool: pool}
}

const studentResultsSQL = `
SELECT r.attempt_id, r.question_id, r.correct, q.slo_tag, q.topic
FROM results r
JOIN attempts a ON a.id = r.attempt_id
JOIN questions q ON q.id = r.question_id
WHERE a.student_id = $1 AND a.status = 'completed'
ORDER BY a.started_at, a.id, q.position`

func (r *AnalyticsReader) StudentResults(ctx context.Context, studentID string) ([]domain.GradedResult, error) {
	rows, err := r.pool.Query(ctx, studentResultsSQL, studentID)
	if err != nil {
		return nil, fmt.Errorf("query student results: %w", err)
	}
	defer rows.Close()

	out := make([]domain.GradedResult, 0)
	for rows.Next() {
		var gr domain.GradedResult
		if err := rows.Scan(&gr.AttemptID, &gr.QuestionID, &gr.Correct, &gr.SLOTag, &gr.Topic); err != nil {
			return nil, fmt.Errorf("scan student result: %w", err)
		}
		out = append(out, gr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read student results: %w", err)
	}
	return out, nil
}

// Directory counts the CRUD-owned collections. A collection whose table does not
// exist in this database counts as empty.
type Directory struct {
	pool   *pgxpool.Pool
	tables DirectoryTables
}

// DirectoryTables names the tables holding users, notes and lectures.
type DirectoryTables struct {
	Users    string
	Notes    string
	Lectures string
}

func NewDirectory(pool *pgxpool.Pool, tables DirectoryTables) *Directory {
	if tables.Users == "" {
		tables.Users = "users"
	}
	if tables.Notes == "" {
		tables.Notes = "notes"
	}
	if tables.Lectures == "" {
		tables.Lectures = "lectures"
	}
	return &Directory{pool: pool, tables: tables}
}

func (d *Directory) CountUsers(ctx context.Context) (int, error) {
	return d.count(ctx, d.tables.Users)
}

func (d *Directory) CountNotes(ctx context.Context) (int, error) {
	return d.count(ctx, d.tables.Notes)
}

func (d *Directory) CountLectures(ctx context.Context) (int, error) {
	return d.count(ctx, d.tables.Lectures)
}

func (d *Directory) count(ctx context.Context, table string) (int, error) {
	var exists bool
	if err := d.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
		return 0, fmt.Errorf("lookup table %s: %w", table, err)
	}
	if !exists {
		return 0, nil
	}
	var n int64
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM `+pgx.Identifier{table}.Sanitize()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return int(n), nil
}
