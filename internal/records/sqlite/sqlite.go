// Package sqlite implements the record store on a local SQLite database,
// for offline and development use.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"worklog/internal/core"
	"worklog/internal/records"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ records.Store = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Create(ctx context.Context, personID int, fields map[string]any) (string, error) {
	workDay, _ := fields[records.FieldWorkDay].(string)
	workCord, _ := core.ParseLenientInt(fields[records.FieldWorkCode])
	output, _ := core.ParseLenientInt(fields[records.FieldOutput])
	priceCents, _ := core.ParseLenientCents(fields[records.FieldUnitPrice])

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO work_records (person_id, work_day, work_cord, work_name, book_name, work_process, unit_price, work_output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		personID, workDay, workCord,
		stringField(fields, records.FieldWorkName),
		stringField(fields, records.FieldBookName),
		stringField(fields, records.FieldProcess),
		float64(priceCents)/100.0, output,
	)
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *Store) QueryMonth(ctx context.Context, personID, year, month int) ([]records.Raw, error) {
	window, err := core.NewMonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	first := window.Start().Format("2006-01-02")
	last := window.End().Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_day, work_cord, work_name, book_name, work_process, unit_price, work_output
		FROM work_records
		WHERE person_id = ? AND work_day BETWEEN ? AND ?
		ORDER BY id`,
		personID, first, last,
	)
	if err != nil {
		return nil, fmt.Errorf("query month: %w", err)
	}
	defer rows.Close()

	var out []records.Raw
	for rows.Next() {
		raw, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, personID int, recordID string) (records.Raw, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, work_day, work_cord, work_name, book_name, work_process, unit_price, work_output
		FROM work_records
		WHERE person_id = ? AND id = ?`,
		personID, recordID,
	)
	raw, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return records.Raw{}, records.ErrNotFound
	}
	return raw, err
}

func (s *Store) Update(ctx context.Context, personID int, recordID string, fields map[string]any) error {
	workDay, hasDay := fields[records.FieldWorkDay].(string)
	outputVal, hasOutput := core.ParseLenientInt(fields[records.FieldOutput])
	if !hasDay && !hasOutput {
		return nil
	}

	// Only work day and output are mutable after creation.
	res, err := s.db.ExecContext(ctx, `
		UPDATE work_records
		SET work_day = COALESCE(NULLIF(?, ''), work_day),
		    work_output = CASE WHEN ? THEN ? ELSE work_output END,
		    updated_at = ?
		WHERE person_id = ? AND id = ?`,
		workDay, hasOutput, outputVal, time.Now().UTC(), personID, recordID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, personID int, recordID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM work_records WHERE person_id = ? AND id = ?`,
		personID, recordID,
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (records.Raw, error) {
	var (
		id        int64
		workDay   sql.NullString
		workCord  int64
		workName  string
		bookName  string
		process   string
		unitPrice float64
		output    int64
	)
	if err := row.Scan(&id, &workDay, &workCord, &workName, &bookName, &process, &unitPrice, &output); err != nil {
		return records.Raw{}, err
	}
	fields := map[string]any{
		records.FieldWorkCode:  workCord,
		records.FieldWorkName:  workName,
		records.FieldBookName:  bookName,
		records.FieldProcess:   process,
		records.FieldUnitPrice: unitPrice,
		records.FieldOutput:    output,
	}
	if workDay.Valid && workDay.String != "" {
		fields[records.FieldWorkDay] = workDay.String
	}
	return records.Raw{ID: strconv.FormatInt(id, 10), Fields: fields}, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
