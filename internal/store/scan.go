package store

import (
	"database/sql"
	"fmt"

	"github.com/climatologylab/labsite/internal/model"
)

type scanner interface{ Scan(...any) error }

// queryAll runs query and scans every row with scan.
func queryAll[T any](db *sql.DB, scan func(scanner) (*T, error), query string, args ...any) ([]T, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func count(db *sql.DB, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dateArg(d *model.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func scanDate(ns sql.NullString) *model.Date {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d, err := model.ParseDate(ns.String)
	if err != nil {
		return nil
	}
	return &d
}
