package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/telescope-ops/obsadmin/services/internal/csvin"
	"github.com/telescope-ops/obsadmin/services/internal/models"
)

var sheetHeader = []string{
	ColProgram, ColPI, ColInstrument, ColStartDate, ColStartTime, ColFinishDate, ColFinishTime,
	ColDayTime, ColRemote, ColFacilityOpen, ColFacilityClose, ColInstrumentChange, ColShutdown,
	ColOperators, ColSupport, ColFirstNight, ColComments,
}

// sheetRow lays cells out in sheetHeader order; absent columns are empty.
func sheetRow(cells map[string]string) []string {
	row := make([]string, len(sheetHeader))
	for i, name := range sheetHeader {
		row[i] = cells[name]
	}
	return row
}

func block(program, pi, inst, start, finish, ops string) map[string]string {
	sd, st := splitStamp(start)
	fd, ft := splitStamp(finish)
	return map[string]string{
		ColProgram:    program,
		ColPI:         pi,
		ColInstrument: inst,
		ColStartDate:  sd,
		ColStartTime:  st,
		ColFinishDate: fd,
		ColFinishTime: ft,
		ColOperators:  ops,
		ColSupport:    "SA1",
	}
}

func splitStamp(s string) (string, string) {
	for i := range s {
		if s[i] == ' ' {
			return s[:i], s[i+1:] + "hr"
		}
	}
	return s, ""
}

func sheet(rows ...map[string]string) csvin.Table {
	t := csvin.Table{Header: append([]string(nil), sheetHeader...)}
	for i, r := range rows {
		t.Rows = append(t.Rows, sheetRow(r))
		t.Lines = append(t.Lines, i+2)
	}
	return t
}

type fakeGateway struct {
	instruments []models.Instrument
	operators   []models.Operator
	programs    map[int]models.Program

	instErr, opErr, progErr error

	instCalls, opCalls, progCalls int
	year                          int
	half                          string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		instruments: []models.Instrument{
			{ID: 1, Code: "GMOS", Name: "Multi-Object Spectrograph"},
			{ID: 2, Code: "NIRI", Name: "Near-IR Imager"},
			{ID: 99, Code: "TBD", Name: "To be decided"},
		},
		operators: []models.Operator{
			{ID: 10, Code: "AB", Name: "Alice Brown"},
			{ID: 11, Code: "CD", Name: "Carl Diaz"},
		},
		programs: map[int]models.Program{
			45: {ProgramID: 45, Semester: "2024A", PI: "jdoe", PIName: "Jane Doe", PIEmail: "jane@example.org", ProjectMembers: "R. Roe", OtherInfo: "ToO"},
		},
	}
}

func (g *fakeGateway) ActiveInstruments(context.Context) ([]models.Instrument, error) {
	g.instCalls++
	return g.instruments, g.instErr
}

func (g *fakeGateway) ActiveOperators(context.Context) ([]models.Operator, error) {
	g.opCalls++
	return g.operators, g.opErr
}

func (g *fakeGateway) ProgramDirectory(_ context.Context, year int, half string) (map[int]models.Program, error) {
	g.progCalls++
	g.year, g.half = year, half
	return g.programs, g.progErr
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func prepFor(t testing.TB, gw Gateway, load models.LoadType, now time.Time, rows ...map[string]string) *Prep {
	t.Helper()
	s := sheet(rows...)
	prep, err := Prepare(context.Background(), gw, PrepareInput{
		Header:   s.Header,
		FirstRow: s.Rows[0],
		LoadType: load,
		Access:   models.AccessPublic,
		Now:      now,
		Location: time.UTC,
	})
	require.NoError(t, err)
	return prep
}
