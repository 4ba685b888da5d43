package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertStatement(t *testing.T) {
	stmt := InsertStatement(EngProgramRecord{ProgramID: 950, ProjectPI: "O'Hara"})

	require.Equal(t, TableEngPrograms, stmt.Table())
	require.Equal(t, "INSERT INTO obsadmin.engineering_programs (program_id, project_pi) VALUES ($1, $2)", stmt.SQL)
	require.Equal(t, []any{950, "O'Hara"}, stmt.Args)
	require.Equal(t, "INSERT INTO obsadmin.engineering_programs (program_id, project_pi) VALUES (950, 'O''Hara')", stmt.String())
}

func TestLiteralStatementString_ManyArgs(t *testing.T) {
	rec := ScheduleRecord{
		LogID:     1710028800,
		StartTime: 1710097200,
		EndTime:   1710133200,
		ProgramID: 45,
		Semester:  "2024A",
		RemoteObs: 1,
		ProjectPI: "jdoe",
		Comments:  "$1 is not a placeholder here",
	}
	out := InsertStatement(rec).String()

	require.Contains(t, out, "VALUES (1710028800, 1710097200, 1710133200, 45, '2024A', 1, 0, 0, 0, 0, 0, 0, '', 'jdoe', ")
	require.Contains(t, out, "'$1 is not a placeholder here')")
	require.NotContains(t, out, "$12")
	require.NotContains(t, out, "$15")
}

func TestLiteral(t *testing.T) {
	require.Equal(t, "NULL", Literal(nil))
	require.Equal(t, "'it''s'", Literal("it's"))
	require.Equal(t, "42", Literal(42))
	require.Equal(t, "-7", Literal(int64(-7)))
	require.Equal(t, "TRUE", Literal(true))
	require.Equal(t, "'public'", Literal(AccessPublic))
}

func TestNewPositionalRecord(t *testing.T) {
	rec := OperatorRecord{LogID: 1, StartTime: 2, OperatorID: 10, Overlap: 1, Semester: "2024B"}
	p := NewPositionalRecord(rec)

	require.Equal(t, TableOperators, p.Table())
	require.Equal(t, []string{"log_id", "start_time", "operator_id", "overlap", "semester"}, p.Columns)
	require.Equal(t, []any{int64(1), int64(2), 10, 1, "2024B"}, p.Fields)
	require.Len(t, p.Fields, len(p.Columns))
}

func TestRecordsHaveMatchingColumns(t *testing.T) {
	for _, rec := range []Record{
		ProgramRecord{},
		EngProgramRecord{},
		ScheduleRecord{},
		InstrumentRecord{},
		OperatorRecord{},
	} {
		require.Len(t, rec.Values(), len(rec.Columns()), rec.Table())
	}
}

func TestOperatorRecordLess(t *testing.T) {
	a := OperatorRecord{LogID: 1, StartTime: 5, OperatorID: 10}
	b := OperatorRecord{LogID: 1, StartTime: 5, OperatorID: 10, Overlap: 1}
	c := OperatorRecord{LogID: 2}

	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.True(t, b.Less(c))
	require.False(t, a.Less(a))
}

func TestParseLoadTypeAndAccess(t *testing.T) {
	lt, err := ParseLoadType(" Partial ")
	require.NoError(t, err)
	require.Equal(t, LoadPartial, lt)
	_, err = ParseLoadType("incremental")
	require.Error(t, err)

	scope, err := ParseAccessScope("PRIVATE")
	require.NoError(t, err)
	require.Equal(t, AccessPrivate, scope)
	_, err = ParseAccessScope("")
	require.Error(t, err)
}

func TestEngineeringProgram(t *testing.T) {
	require.False(t, EngineeringProgram(899))
	require.True(t, EngineeringProgram(900))
	require.True(t, EngineeringProgram(999))
	require.False(t, EngineeringProgram(1000))
}
