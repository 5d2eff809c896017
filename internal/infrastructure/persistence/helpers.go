package persistence

import (
	"errors"
	"strings"

	"github.com/erp/rental/internal/domain/shared"
	"gorm.io/gorm"
)

// notFound maps gorm's missing row error to the domain error
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err comes from a unique constraint on
// PostgreSQL or SQLite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// paginate applies the page window of filter
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if offset, limit, ok := filter.Window(); ok {
		query = query.Offset(offset).Limit(limit)
	}
	return query
}

// search matches the pattern against each column, case-insensitively on
// both drivers
func search(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(term) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where(strings.Join(clauses, " OR "), args...)
}

// findPage counts every row matching query, then loads one ordered page of
// it into dest with the named associations
func findPage(query *gorm.DB, filter shared.Filter, columns sortColumns, defaultOrder string, dest any, preloads ...string) (int64, error) {
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	page := paginate(query, filter).Order(columns.clause(filter, defaultOrder))
	for _, p := range preloads {
		page = page.Preload(p)
	}
	if err := page.Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
