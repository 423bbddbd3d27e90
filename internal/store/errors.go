package store

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error class 23505.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
