package models

// Target tables of the schedule load.
const (
	TablePrograms    = "obsadmin.schedule_programs"
	TableEngPrograms = "obsadmin.engineering_programs"
	TableNights      = "obsadmin.schedule_nights"
	TableInstruments = "obsadmin.schedule_instruments"
	TableOperators   = "obsadmin.schedule_operators"
)

// Record is one row destined for a schedule table. Columns and Values are
// positional and always have the same length.
type Record interface {
	Table() string
	Columns() []string
	Values() []any
}

// ProgramRecord associates a program with the uploaded semester.
type ProgramRecord struct {
	ProgramID      int
	Semester       string
	ProjectPI      string
	PIName         string
	PIEmail        string
	ProjectMembers string
	OtherInfo      string
	Access         AccessScope
}

var programColumns = []string{"program_id", "semester", "project_pi", "pi_name", "pi_email", "project_members", "other_info", "access"}

func (ProgramRecord) Table() string     { return TablePrograms }
func (ProgramRecord) Columns() []string { return programColumns }
func (r ProgramRecord) Values() []any {
	return []any{r.ProgramID, r.Semester, r.ProjectPI, r.PIName, r.PIEmail, r.ProjectMembers, r.OtherInfo, string(r.Access)}
}

// EngProgramRecord keeps the PI of an engineering program current.
type EngProgramRecord struct {
	ProgramID int
	ProjectPI string
}

var engProgramColumns = []string{"program_id", "project_pi"}

func (EngProgramRecord) Table() string     { return TableEngPrograms }
func (EngProgramRecord) Columns() []string { return engProgramColumns }
func (r EngProgramRecord) Values() []any   { return []any{r.ProgramID, r.ProjectPI} }

// ScheduleRecord is one booked block of a night.
type ScheduleRecord struct {
	LogID               int64
	StartTime           int64
	EndTime             int64
	ProgramID           int
	Semester            string
	RemoteObs           int
	DaytimeObs          int
	FirstTime           int
	FacilityOpen        int
	FacilityClose       int
	InstrumentChange    int
	FacilityShutdown    int
	SupportAstronomerID string
	ProjectPI           string
	Comments            string
}

var scheduleColumns = []string{
	"log_id", "start_time", "end_time", "program_id", "semester",
	"remote_obs", "daytime_obs", "first_time",
	"facility_open", "facility_close", "instrument_change", "facility_shutdown",
	"support_astronomer", "project_pi", "comments",
}

func (ScheduleRecord) Table() string     { return TableNights }
func (ScheduleRecord) Columns() []string { return scheduleColumns }
func (r ScheduleRecord) Values() []any {
	return []any{
		r.LogID, r.StartTime, r.EndTime, r.ProgramID, r.Semester,
		r.RemoteObs, r.DaytimeObs, r.FirstTime,
		r.FacilityOpen, r.FacilityClose, r.InstrumentChange, r.FacilityShutdown,
		r.SupportAstronomerID, r.ProjectPI, r.Comments,
	}
}

// InstrumentRecord assigns an instrument to a block; rank is its position
// in the uploaded instrument list.
type InstrumentRecord struct {
	LogID        int64
	StartTime    int64
	ProgramID    int
	Semester     string
	InstrumentID int
	Rank         int
}

var instrumentColumns = []string{"log_id", "start_time", "program_id", "semester", "instrument_id", "rank"}

func (InstrumentRecord) Table() string     { return TableInstruments }
func (InstrumentRecord) Columns() []string { return instrumentColumns }
func (r InstrumentRecord) Values() []any {
	return []any{r.LogID, r.StartTime, r.ProgramID, r.Semester, r.InstrumentID, r.Rank}
}

// OperatorRecord assigns an operator to a block. Overlap is 0 for the
// primary operator and 1 for everyone after.
type OperatorRecord struct {
	LogID      int64
	StartTime  int64
	OperatorID int
	Overlap    int
	Semester   string
}

var operatorColumns = []string{"log_id", "start_time", "operator_id", "overlap", "semester"}

func (OperatorRecord) Table() string     { return TableOperators }
func (OperatorRecord) Columns() []string { return operatorColumns }
func (r OperatorRecord) Values() []any {
	return []any{r.LogID, r.StartTime, r.OperatorID, r.Overlap, r.Semester}
}

// Less orders operator records by (log_id, start_time, operator_id, overlap).
func (r OperatorRecord) Less(o OperatorRecord) bool {
	if r.LogID != o.LogID {
		return r.LogID < o.LogID
	}
	if r.StartTime != o.StartTime {
		return r.StartTime < o.StartTime
	}
	if r.OperatorID != o.OperatorID {
		return r.OperatorID < o.OperatorID
	}
	if r.Overlap != o.Overlap {
		return r.Overlap < o.Overlap
	}
	return r.Semester < o.Semester
}
