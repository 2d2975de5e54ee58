package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// writer accumulates SQL text and positional arguments for one statement.
type writer struct {
	buf  strings.Builder
	args []any
}

func (w *writer) bind(value any) {
	w.args = append(w.args, value)
	w.buf.WriteString("$")
	w.buf.WriteString(strconv.Itoa(len(w.args)))
}

func (w *writer) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.buf.WriteString(" WHERE ")
		} else {
			w.buf.WriteString(" AND ")
		}
		c.writeTo(w)
	}
}

type Condition interface {
	writeTo(w *writer)
}

type compare struct {
	column string
	op     string
	value  any
}

func (c compare) writeTo(w *writer) {
	w.buf.WriteString(c.column)
	w.buf.WriteString(" ")
	w.buf.WriteString(c.op)
	w.buf.WriteString(" ")
	w.bind(c.value)
}

func Eq(column string, value any) Condition { return compare{column: column, op: "=", value: value} }

func Lte(column string, value any) Condition { return compare{column: column, op: "<=", value: value} }

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var w writer
	w.buf.WriteString("SELECT ")
	w.buf.WriteString(strings.Join(b.columns, ", "))
	w.buf.WriteString(" FROM ")
	w.buf.WriteString(b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.buf.WriteString(" ORDER BY ")
		w.buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.buf.WriteString(" LIMIT ")
		w.buf.WriteString(strconv.Itoa(b.limit))
	}

	return w.buf.String(), w.args, nil
}

type InsertBuilder struct {
	table     string
	columns   []string
	values    []any
	conflict  string
	returning []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.values = append([]any(nil), values...)
	return b
}

// OnConflictDoNothing skips the insert when target (a column list) collides
// with an existing row.
func (b *InsertBuilder) OnConflictDoNothing(target ...string) *InsertBuilder {
	b.conflict = strings.Join(target, ", ")
	if b.conflict == "" {
		b.conflict = "-"
	}
	return b
}

func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	b.returning = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.values) != len(b.columns) {
		return "", nil, fmt.Errorf("insert has %d values, expected %d", len(b.values), len(b.columns))
	}

	var w writer
	w.buf.WriteString("INSERT INTO ")
	w.buf.WriteString(b.table)
	w.buf.WriteString(" (")
	w.buf.WriteString(strings.Join(b.columns, ", "))
	w.buf.WriteString(") VALUES (")
	for i, v := range b.values {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.bind(v)
	}
	w.buf.WriteString(")")

	switch b.conflict {
	case "":
	case "-":
		w.buf.WriteString(" ON CONFLICT DO NOTHING")
	default:
		w.buf.WriteString(" ON CONFLICT (")
		w.buf.WriteString(b.conflict)
		w.buf.WriteString(") DO NOTHING")
	}
	if len(b.returning) > 0 {
		w.buf.WriteString(" RETURNING ")
		w.buf.WriteString(strings.Join(b.returning, ", "))
	}

	return w.buf.String(), w.args, nil
}

type assignment struct {
	column string
	value  any
}

type UpdateBuilder struct {
	table     string
	sets      []assignment
	where     []Condition
	returning []string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	b.returning = append([]string(nil), columns...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("update without where is not allowed")
	}

	var w writer
	w.buf.WriteString("UPDATE ")
	w.buf.WriteString(b.table)
	w.buf.WriteString(" SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString(s.column)
		w.buf.WriteString(" = ")
		w.bind(s.value)
	}
	w.where(b.where)
	if len(b.returning) > 0 {
		w.buf.WriteString(" RETURNING ")
		w.buf.WriteString(strings.Join(b.returning, ", "))
	}

	return w.buf.String(), w.args, nil
}
