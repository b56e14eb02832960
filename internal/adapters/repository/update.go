package repository

import (
	"context"
	"strings"
)

// assignment is one column = ? pair of an UPDATE. Columns come only from the
// per-entity allow-lists below, never from request keys.
type assignment struct {
	column string
	value  any
}

// buildUpdate renders UPDATE table SET a = ?, b = ? WHERE idColumn = ?.
func buildUpdate(table, idColumn string, sets []assignment, id int64) (string, []any, error) {
	if len(sets) == 0 {
		return "", nil, ErrNoFields
	}
	var b strings.Builder
	args := make([]any, 0, len(sets)+1)

	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	for i, a := range sets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.column)
		b.WriteString(" = ?")
		args = append(args, a.value)
	}
	b.WriteString(" WHERE ")
	b.WriteString(idColumn)
	b.WriteString(" = ?")
	args = append(args, id)
	return b.String(), args, nil
}

// update runs a built UPDATE and returns the affected row count.
func (s *MySQLStore) update(ctx context.Context, table, idColumn string, sets []assignment, id int64) (int64, error) {
	query, args, err := buildUpdate(table, idColumn, sets, id)
	if err != nil {
		return 0, err
	}
	return affected(s.db.ExecContext(ctx, query, args...))
}
