// Package sqlxrepos implements the domain repositories on PostgreSQL
// via jmoiron/sqlx. Uniqueness rules live in the schema; unique_violation
// errors are mapped back to the domain sentinel errors here.
package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core"
)

const pqUniqueViolation = "23505"

// violatesUnique reports whether err is a psql unique_violation on the
// named constraint.
func violatesUnique(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

// orderClause renders an ORDER BY body from the given ordering, falling back
// to def. Callers are expected to pass whitelisted field names only.
func orderClause(ordering []core.DBOrdering, def string) string {
	if len(ordering) == 0 {
		return def
	}
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return strings.Join(clauses, ", ")
}
