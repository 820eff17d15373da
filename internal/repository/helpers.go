package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// ErrInUse is returned when a delete would orphan dependent rows.
var ErrInUse = errors.New("record in use")

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// IsMalformedID reports whether Postgres rejected an id parameter that is
// not a valid UUID. Such an id can never match a row.
func IsMalformedID(err error) bool {
	return hasCode(err, invalidTextRepresentation)
}

func hasCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

// expectOneRow converts a zero-row update into sql.ErrNoRows. Conditional
// status updates rely on this to report a lost race.
func expectOneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func pageWindow(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

func normalizeSortOrder(order string) string {
	order = strings.ToUpper(order)
	if order != "ASC" && order != "DESC" {
		return "DESC"
	}
	return order
}
