package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/telescope-ops/obsadmin/services/internal/models"
)

const tbdInstrument = "TBD"

// Encoder turns typed records into the artifact representation of a run.
type Encoder interface {
	Encode(rec models.Record) models.Artifact
}

// PositionalEncoder produces PositionalRecords for bulk-file loads.
type PositionalEncoder struct{}

func (PositionalEncoder) Encode(rec models.Record) models.Artifact {
	return models.NewPositionalRecord(rec)
}

// StatementEncoder produces parameterized INSERT statements.
type StatementEncoder struct{}

func (StatementEncoder) Encode(rec models.Record) models.Artifact {
	return models.InsertStatement(rec)
}

// EncoderFor selects the representation once per run.
func EncoderFor(fileLoadMode bool) Encoder {
	if fileLoadMode {
		return PositionalEncoder{}
	}
	return StatementEncoder{}
}

// EngProgramUpsert inserts an engineering program or refreshes its PI.
func EngProgramUpsert(rec models.EngProgramRecord) models.LiteralStatement {
	stmt := models.InsertStatement(rec)
	stmt.SQL += " ON CONFLICT (program_id) DO UPDATE SET project_pi = EXCLUDED.project_pi"
	return stmt
}

// Records holds the deduplicated typed records of a run in output order.
type Records struct {
	Programs    []models.ProgramRecord
	EngPrograms []models.EngProgramRecord
	Schedule    []models.ScheduleRecord
	Instruments []models.InstrumentRecord
	Operators   []models.OperatorRecord
}

// InsertSet holds the encoded insert artifacts of a run. Programs and
// EngPrograms are ordered by program ID; EngPrograms are always upsert
// statements.
type InsertSet struct {
	ProgramIDs    []int
	Programs      []models.Artifact
	EngProgramIDs []int
	EngPrograms   []models.LiteralStatement
	Schedule      []models.Artifact
	Instruments   []models.Artifact
	Operators     []models.Artifact
}

// Len counts every artifact in the set.
func (s InsertSet) Len() int {
	return len(s.Programs) + len(s.EngPrograms) + len(s.Schedule) + len(s.Instruments) + len(s.Operators)
}

// Encode renders the records with enc.
func (r Records) Encode(enc Encoder) InsertSet {
	var out InsertSet
	for _, p := range r.Programs {
		out.ProgramIDs = append(out.ProgramIDs, p.ProgramID)
		out.Programs = append(out.Programs, enc.Encode(p))
	}
	for _, p := range r.EngPrograms {
		out.EngProgramIDs = append(out.EngProgramIDs, p.ProgramID)
		out.EngPrograms = append(out.EngPrograms, EngProgramUpsert(p))
	}
	for _, s := range r.Schedule {
		out.Schedule = append(out.Schedule, enc.Encode(s))
	}
	for _, i := range r.Instruments {
		out.Instruments = append(out.Instruments, enc.Encode(i))
	}
	for _, o := range r.Operators {
		out.Operators = append(out.Operators, enc.Encode(o))
	}
	return out
}

// builder accumulates records with structural-key deduplication.
type builder struct {
	prep        *Prep
	programs    map[int]models.ProgramRecord
	engPrograms map[int]models.EngProgramRecord
	seen        map[any]struct{}
	recs        Records
	diags       []Diagnostic
}

// Build turns parsed rows into deduplicated records. Program records are
// produced for every row; schedule, instrument and operator records are
// skipped for past nights of a partial load.
func Build(rows []models.ParsedRow, prep *Prep) (Records, []Diagnostic) {
	b := &builder{
		prep:        prep,
		programs:    make(map[int]models.ProgramRecord),
		engPrograms: make(map[int]models.EngProgramRecord),
		seen:        make(map[any]struct{}),
	}
	for _, row := range rows {
		b.add(row)
	}
	return b.finish(), b.diags
}

func (b *builder) add(row models.ParsedRow) {
	b.addProgram(row)

	if b.prep.LoadType == models.LoadPartial && row.LogID < b.prep.Cutoff {
		return
	}

	sched := models.ScheduleRecord{
		LogID:               row.LogID,
		StartTime:           row.StartTime,
		EndTime:             row.EndTime,
		ProgramID:           row.ProgramID,
		Semester:            row.Semester,
		RemoteObs:           row.RemoteObs,
		DaytimeObs:          row.DaytimeObs,
		FirstTime:           row.FirstTime,
		FacilityOpen:        row.FacilityOpen,
		FacilityClose:       row.FacilityClose,
		InstrumentChange:    row.InstrumentChange,
		FacilityShutdown:    row.FacilityShutdown,
		SupportAstronomerID: row.SupportAstronomerID,
		ProjectPI:           row.ProjectPI,
		Comments:            row.Comments,
	}
	if b.once(sched, row.Line) {
		b.recs.Schedule = append(b.recs.Schedule, sched)
	}

	for rank, code := range row.InstrumentCodes {
		inst, ok := b.resolveInstrument(code)
		if !ok {
			b.warn(row.Line, models.TableInstruments, fmt.Sprintf("instrument %q not found and no %s entry is active", code, tbdInstrument))
			continue
		}
		rec := models.InstrumentRecord{
			LogID:        row.LogID,
			StartTime:    row.StartTime,
			ProgramID:    row.ProgramID,
			Semester:     row.Semester,
			InstrumentID: inst.ID,
			Rank:         rank,
		}
		if b.once(rec, row.Line) {
			b.recs.Instruments = append(b.recs.Instruments, rec)
		}
	}

	for pos, code := range row.OperatorCodes {
		if code == "" {
			continue
		}
		op, ok := b.resolveOperator(code)
		if !ok {
			b.warn(row.Line, models.TableOperators, fmt.Sprintf("operator %q not found", code))
			continue
		}
		rec := models.OperatorRecord{
			LogID:      row.LogID,
			StartTime:  row.StartTime,
			OperatorID: op.ID,
			Semester:   row.Semester,
		}
		if pos > 0 {
			rec.Overlap = 1
		}
		if b.once(rec, row.Line) {
			b.recs.Operators = append(b.recs.Operators, rec)
		}
	}
}

func (b *builder) addProgram(row models.ParsedRow) {
	// A zero program field books no proposal; its blocks are still scheduled.
	if row.ProgramID == 0 {
		return
	}
	if _, ok := b.programs[row.ProgramID]; !ok {
		b.programs[row.ProgramID] = models.ProgramRecord{
			ProgramID:      row.ProgramID,
			Semester:       row.Semester,
			ProjectPI:      row.ProjectPI,
			PIName:         row.PIName,
			PIEmail:        row.PIEmail,
			ProjectMembers: row.ProjectMembers,
			OtherInfo:      row.OtherInfo,
			Access:         b.prep.Access,
		}
	}
	if models.EngineeringProgram(row.ProgramID) {
		if _, ok := b.engPrograms[row.ProgramID]; !ok {
			b.engPrograms[row.ProgramID] = models.EngProgramRecord{ProgramID: row.ProgramID, ProjectPI: row.ProjectPI}
		}
	}
}

// once reports whether rec is new; repeats are recorded as diagnostics.
func (b *builder) once(rec models.Record, line int) bool {
	if _, dup := b.seen[rec]; dup {
		b.diags = append(b.diags, Diagnostic{
			Kind:    DuplicateSkipped,
			Line:    line,
			Table:   rec.Table(),
			Message: "duplicate record skipped",
		})
		return false
	}
	b.seen[rec] = struct{}{}
	return true
}

func (b *builder) warn(line int, table, msg string) {
	b.diags = append(b.diags, Diagnostic{Kind: ResolutionWarning, Line: line, Table: table, Message: msg})
}

func (b *builder) resolveInstrument(code string) (models.Instrument, bool) {
	var tbd *models.Instrument
	for i := range b.prep.Instruments {
		inst := &b.prep.Instruments[i]
		if strings.EqualFold(inst.Code, code) {
			return *inst, true
		}
		if tbd == nil && strings.EqualFold(inst.Code, tbdInstrument) {
			tbd = inst
		}
	}
	if tbd != nil {
		return *tbd, true
	}
	return models.Instrument{}, false
}

func (b *builder) resolveOperator(code string) (models.Operator, bool) {
	for _, op := range b.prep.Operators {
		if strings.EqualFold(op.Code, code) {
			return op, true
		}
	}
	return models.Operator{}, false
}

func (b *builder) finish() Records {
	ids := make([]int, 0, len(b.programs))
	for id := range b.programs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		b.recs.Programs = append(b.recs.Programs, b.programs[id])
	}

	engIDs := make([]int, 0, len(b.engPrograms))
	for id := range b.engPrograms {
		engIDs = append(engIDs, id)
	}
	sort.Ints(engIDs)
	for _, id := range engIDs {
		b.recs.EngPrograms = append(b.recs.EngPrograms, b.engPrograms[id])
	}

	sort.SliceStable(b.recs.Operators, func(i, j int) bool {
		return b.recs.Operators[i].Less(b.recs.Operators[j])
	})
	return b.recs
}
