package schedule

import (
	"github.com/telescope-ops/obsadmin/services/internal/models"
)

// PlanDeletes returns the deletes that clear a semester before re-insertion.
// A partial load only clears nights from cutoff onward; the program table is
// always cleared for the whole semester because the builder regenerates
// every program of the upload.
func PlanDeletes(loadType models.LoadType, semester string, cutoff int64) models.DeleteSet {
	programs := semesterDelete(models.TablePrograms, semester)
	if loadType == models.LoadPartial {
		return models.DeleteSet{
			Programs:    programs,
			Schedule:    nightDelete(models.TableNights, semester, cutoff),
			Instruments: nightDelete(models.TableInstruments, semester, cutoff),
			Operators:   nightDelete(models.TableOperators, semester, cutoff),
		}
	}
	return models.DeleteSet{
		Programs:    programs,
		Schedule:    semesterDelete(models.TableNights, semester),
		Instruments: semesterDelete(models.TableInstruments, semester),
		Operators:   semesterDelete(models.TableOperators, semester),
	}
}

func semesterDelete(table, semester string) models.LiteralStatement {
	return models.LiteralStatement{
		TableName: table,
		SQL:       "DELETE FROM " + table + " WHERE semester = $1",
		Args:      []any{semester},
	}
}

func nightDelete(table, semester string, cutoff int64) models.LiteralStatement {
	return models.LiteralStatement{
		TableName: table,
		SQL:       "DELETE FROM " + table + " WHERE semester = $1 AND log_id >= $2",
		Args:      []any{semester, cutoff},
	}
}
