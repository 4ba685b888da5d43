package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Artifact is one insert instruction in the representation chosen for a run:
// a PositionalRecord for bulk-file loads or a LiteralStatement for direct
// execution.
type Artifact interface {
	Table() string
}

// PositionalRecord carries field values in table column order.
type PositionalRecord struct {
	TableName string
	Columns   []string
	Fields    []any
}

func (p PositionalRecord) Table() string { return p.TableName }

// NewPositionalRecord snapshots rec into its positional form.
func NewPositionalRecord(rec Record) PositionalRecord {
	return PositionalRecord{TableName: rec.Table(), Columns: rec.Columns(), Fields: rec.Values()}
}

// LiteralStatement is a parameterized SQL statement with its arguments.
type LiteralStatement struct {
	TableName string
	SQL       string
	Args      []any
}

func (s LiteralStatement) Table() string { return s.TableName }

// InsertStatement renders a parameterized INSERT for rec.
func InsertStatement(rec Record) LiteralStatement {
	cols := rec.Columns()
	return LiteralStatement{
		TableName: rec.Table(),
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			rec.Table(), strings.Join(cols, ", "), placeholders(1, len(cols))),
		Args: rec.Values(),
	}
}

func placeholders(from, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("$")
		b.WriteString(strconv.Itoa(from + i))
	}
	return b.String()
}

// String inlines the arguments as SQL literals. Strings are single-quoted
// with embedded quotes doubled; the result is meant for dry-run output and
// logs, execution always goes through SQL and Args.
func (s LiteralStatement) String() string {
	var b strings.Builder
	sql := s.SQL
	for i := 0; i < len(sql); i++ {
		if sql[i] != '$' {
			b.WriteByte(sql[i])
			continue
		}
		j := i + 1
		for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
			j++
		}
		n, err := strconv.Atoi(sql[i+1 : j])
		if err != nil || n < 1 || n > len(s.Args) {
			b.WriteByte(sql[i])
			continue
		}
		b.WriteString(Literal(s.Args[n-1]))
		i = j - 1
	}
	return b.String()
}

// Literal renders v as a SQL literal.
func Literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	default:
		return Literal(fmt.Sprint(t))
	}
}

// DeleteSet holds the deletes that precede re-insertion, one per table.
type DeleteSet struct {
	Programs    LiteralStatement
	Schedule    LiteralStatement
	Instruments LiteralStatement
	Operators   LiteralStatement
}

// Ordered returns the deletes children-first so no foreign key is left dangling.
func (d DeleteSet) Ordered() []LiteralStatement {
	return []LiteralStatement{d.Operators, d.Instruments, d.Schedule, d.Programs}
}
