package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/telescope-ops/obsadmin/services/internal/models"
)

// Canonical column names of the schedule sheet.
const (
	ColProgram          = "Program"
	ColPI               = "PI"
	ColInstrument       = "Instrument"
	ColStartDate        = "Start Date"
	ColStartTime        = "Start Time"
	ColFinishDate       = "Finish Date"
	ColFinishTime       = "Finish Time"
	ColDayTime          = "DayTime"
	ColRemote           = "Remote"
	ColFacilityOpen     = "Facility Open"
	ColFacilityClose    = "Facility Close"
	ColInstrumentChange = "Instrument Change"
	ColShutdown         = "Shutdown"
	ColOperators        = "TO"
	ColSupport          = "SA"
	ColFirstNight       = "FirstNight"
	ColComments         = "Comments"
)

type canonicalColumn struct {
	name     string
	field    string
	required bool
}

var canonicalColumns = []canonicalColumn{
	{ColProgram, "program_id", true},
	{ColPI, "project_pi", true},
	{ColInstrument, "instrument_id", true},
	{ColStartDate, "start_time", true},
	{ColStartTime, "start_time", true},
	{ColFinishDate, "end_time", true},
	{ColFinishTime, "end_time", true},
	{ColDayTime, "daytime_obs", true},
	{ColRemote, "remote_obs", true},
	{ColFacilityOpen, "facility_open", true},
	{ColFacilityClose, "facility_close", true},
	{ColInstrumentChange, "instrument_change", true},
	{ColShutdown, "facility_shutdown", true},
	{ColOperators, "operator_id", true},
	{ColSupport, "support_astronomer", true},
	{ColFirstNight, "first_time", true},
	{ColComments, "comments", false},
}

// AdminPITemplate is the index in CommentTemplates of the PI placeholder
// used for facility maintenance blocks.
const AdminPITemplate = 6

// DefaultCommentTemplates are the canned schedule comments.
var DefaultCommentTemplates = []string{
	"Remote observing",
	"Daytime observing",
	"First night of program",
	"Facility open",
	"Facility close",
	"Instrument change",
	"Facility Staff",
}

// CommentTemplatesWithAdmin returns a copy of DefaultCommentTemplates whose
// admin PI entry is pi. An empty pi keeps the default.
func CommentTemplatesWithAdmin(pi string) []string {
	templates := append([]string(nil), DefaultCommentTemplates...)
	if pi = strings.TrimSpace(pi); pi != "" {
		templates[AdminPITemplate] = pi
	}
	return templates
}

// HeaderColumn locates a canonical column in the uploaded header.
type HeaderColumn struct {
	Index int
	Field string
}

// HeaderMap maps canonical column names to their uploaded position.
type HeaderMap map[string]HeaderColumn

// Value returns the trimmed cell for column name, or "" when the column is
// absent or the row is short.
func (h HeaderMap) Value(row []string, name string) string {
	return strings.TrimSpace(h.Raw(row, name))
}

// Raw returns the cell for column name exactly as uploaded.
func (h HeaderMap) Raw(row []string, name string) string {
	col, ok := h[name]
	if !ok || col.Index >= len(row) {
		return ""
	}
	return row[col.Index]
}

// BuildHeaderMap matches the uploaded header against the canonical columns.
func BuildHeaderMap(header []string) (HeaderMap, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}
	m := make(HeaderMap, len(canonicalColumns))
	for _, c := range canonicalColumns {
		idx, ok := positions[strings.ToLower(c.name)]
		if !ok {
			if c.required {
				return nil, &ParseError{Column: c.name, Err: errors.New("required column missing from header")}
			}
			continue
		}
		m[c.name] = HeaderColumn{Index: idx, Field: c.field}
	}
	return m, nil
}

// Gateway is the read-only source of reference data.
type Gateway interface {
	ActiveInstruments(ctx context.Context) ([]models.Instrument, error)
	ActiveOperators(ctx context.Context) ([]models.Operator, error)
	ProgramDirectory(ctx context.Context, year int, half string) (map[int]models.Program, error)
}

// PrepareInput collects what Prepare needs from the upload.
type PrepareInput struct {
	Header           []string
	FirstRow         []string
	LoadType         models.LoadType
	Access           models.AccessScope
	UseBulkFile      bool
	Now              time.Time
	Location         *time.Location
	CommentTemplates []string
}

// Prep is the run-wide context shared by every row. It is read-only once
// Prepare returns.
type Prep struct {
	FileLoadMode     bool
	LoadType         models.LoadType
	Access           models.AccessScope
	Cutoff           int64
	Semester         string
	Location         *time.Location
	CommentTemplates []string
	Headers          HeaderMap
	Instruments      []models.Instrument
	Operators        []models.Operator
	Programs         map[int]models.Program
}

// Prepare computes the run context and fetches the reference lists once.
func Prepare(ctx context.Context, gw Gateway, in PrepareInput) (*Prep, error) {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	templates := in.CommentTemplates
	if len(templates) == 0 {
		templates = DefaultCommentTemplates
	}
	if len(templates) <= AdminPITemplate {
		return nil, errors.Errorf("comment templates: need at least %d entries, got %d", AdminPITemplate+1, len(templates))
	}
	if in.Now.IsZero() {
		return nil, errors.New("prepare: upload time is required")
	}

	headers, err := BuildHeaderMap(in.Header)
	if err != nil {
		return nil, err
	}
	semester, err := runSemester(headers, in.FirstRow, loc)
	if err != nil {
		return nil, err
	}
	year, half, err := SplitSemester(semester)
	if err != nil {
		return nil, err
	}

	instruments, err := gw.ActiveInstruments(ctx)
	if err != nil {
		return nil, &ReferenceLookupError{List: "instruments", Err: err}
	}
	operators, err := gw.ActiveOperators(ctx)
	if err != nil {
		return nil, &ReferenceLookupError{List: "operators", Err: err}
	}
	programs, err := gw.ProgramDirectory(ctx, year, half)
	if err != nil {
		return nil, &ReferenceLookupError{List: "programs " + semester, Err: err}
	}
	if programs == nil {
		programs = map[int]models.Program{}
	}

	return &Prep{
		FileLoadMode:     in.UseBulkFile,
		LoadType:         in.LoadType,
		Access:           in.Access,
		Cutoff:           MidnightOf(in.Now, loc).Unix(),
		Semester:         semester,
		Location:         loc,
		CommentTemplates: templates,
		Headers:          headers,
		Instruments:      instruments,
		Operators:        operators,
		Programs:         programs,
	}, nil
}

// runSemester takes the semester from the first row's program code and,
// when the code carries none, from the first row's start date.
func runSemester(headers HeaderMap, first []string, loc *time.Location) (string, error) {
	if len(first) == 0 {
		return "", &ParseError{Line: 2, Column: ColProgram, Err: errors.New("no data rows")}
	}
	program := headers.Value(first, ColProgram)
	if sem, ok := SemesterFromProgram(program); ok {
		return sem, nil
	}
	date := headers.Value(first, ColStartDate)
	day, err := time.ParseInLocation("2006/01/02", date, loc)
	if err != nil {
		return "", &ParseError{Line: 2, Column: ColStartDate, Value: date, Err: errors.New("cannot derive semester")}
	}
	y, m, d := day.Date()
	return SemesterFor(y, m, d), nil
}
