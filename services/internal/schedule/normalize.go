package schedule

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/telescope-ops/obsadmin/services/internal/models"
)

// NormalizeRow turns one raw CSV row into a ParsedRow using the shared
// preparation context. line is the 1-based line number in the upload.
func NormalizeRow(line int, row []string, prep *Prep) (models.ParsedRow, error) {
	h := prep.Headers
	out := models.ParsedRow{Line: line, Semester: prep.Semester}

	program := h.Value(row, ColProgram)
	id, err := ProgramIDFrom(program)
	if err != nil {
		return out, &ParseError{Line: line, Column: ColProgram, Value: program, Err: err}
	}
	out.ProgramID = id

	start, err := ParseDateTime(h.Value(row, ColStartDate), h.Value(row, ColStartTime), prep.Location)
	if err != nil {
		return out, &ParseError{Line: line, Column: ColStartDate, Value: h.Value(row, ColStartDate) + " " + h.Value(row, ColStartTime), Err: err}
	}
	end, err := ParseDateTime(h.Value(row, ColFinishDate), h.Value(row, ColFinishTime), prep.Location)
	if err != nil {
		return out, &ParseError{Line: line, Column: ColFinishDate, Value: h.Value(row, ColFinishDate) + " " + h.Value(row, ColFinishTime), Err: err}
	}
	if end.Before(start) {
		return out, &ParseError{Line: line, Column: ColFinishDate, Value: end.Format("2006/01/02 15:04"), Err: errors.New("finish precedes start")}
	}
	out.StartTime = start.Unix()
	out.EndTime = end.Unix()
	out.LogID = LogIDFor(start, prep.Location)

	out.RemoteObs = flag(h.Value(row, ColRemote))
	out.DaytimeObs = flag(h.Value(row, ColDayTime))
	out.FirstTime = flag(h.Value(row, ColFirstNight))
	out.FacilityOpen = flag(h.Value(row, ColFacilityOpen))
	out.FacilityClose = flag(h.Value(row, ColFacilityClose))
	out.InstrumentChange = flag(h.Value(row, ColInstrumentChange))
	out.FacilityShutdown = flag(h.Value(row, ColShutdown))

	out.SupportAstronomerID = h.Value(row, ColSupport)
	out.ProjectPI = h.Value(row, ColPI)
	out.InstrumentCodes = splitList(h.Value(row, ColInstrument), "/")
	out.OperatorCodes = splitList(h.Value(row, ColOperators), ",")
	out.Comments = h.Raw(row, ColComments)

	// Maintenance blocks belong to the facility, whatever the sheet says.
	if out.FacilityOpen == 1 || out.FacilityClose == 1 || out.InstrumentChange == 1 || out.FacilityShutdown == 1 {
		out.ProjectPI = prep.CommentTemplates[AdminPITemplate]
	}

	if p, ok := prep.Programs[out.ProgramID]; ok {
		out.ProjectMembers = p.ProjectMembers
		out.OtherInfo = p.OtherInfo
		out.PIName = p.PIName
		out.PIEmail = p.PIEmail
	}
	return out, nil
}

// NormalizeRows normalizes rows in file order and stops at the first error.
func NormalizeRows(rows [][]string, lines []int, prep *Prep) ([]models.ParsedRow, error) {
	parsed := make([]models.ParsedRow, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		if i < len(lines) {
			line = lines[i]
		}
		pr, err := NormalizeRow(line, row, prep)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, pr)
	}
	return parsed, nil
}

func flag(v string) int {
	if strings.EqualFold(strings.TrimSpace(v), "X") {
		return 1
	}
	return 0
}

// splitList splits on sep, trimming each entry. Empty entries are kept so
// that positions stay meaningful; callers skip them.
func splitList(v, sep string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
