package schedule

import (
	"context"
	"os"
	"time"

	"github.com/go-faster/errors"

	"github.com/telescope-ops/obsadmin/services/internal/bulkfile"
	"github.com/telescope-ops/obsadmin/services/internal/csvin"
	"github.com/telescope-ops/obsadmin/services/internal/models"
)

// FileWriter materializes the positional records of one table.
type FileWriter interface {
	Write(semester string, records []models.PositionalRecord) (bulkfile.Load, error)
}

// Result is everything the ingester needs to apply one upload.
type Result struct {
	FileLoadMode bool               `json:"file_load_mode"`
	Semester     string             `json:"semester"`
	LoadType     models.LoadType    `json:"load_type"`
	Access       models.AccessScope `json:"access"`
	Cutoff       int64              `json:"cutoff"`
	Rows         int                `json:"rows"`
	Deletes      models.DeleteSet   `json:"-"`
	Inserts      InsertSet          `json:"-"`
	BulkLoads    []bulkfile.Load    `json:"bulk_loads,omitempty"`
	Diagnostics  []Diagnostic       `json:"diagnostics,omitempty"`
}

// BulkLoad returns the materialized file of table, if any.
func (r *Result) BulkLoad(table string) (bulkfile.Load, bool) {
	for _, l := range r.BulkLoads {
		if l.Table == table {
			return l, true
		}
	}
	return bulkfile.Load{}, false
}

// MissingLoads lists tables that have records in bulk mode but no file.
func (r *Result) MissingLoads() []string {
	if !r.FileLoadMode {
		return nil
	}
	var missing []string
	for _, fam := range r.families() {
		if len(fam.artifacts) == 0 {
			continue
		}
		if _, ok := r.BulkLoad(fam.table); !ok {
			missing = append(missing, fam.table)
		}
	}
	return missing
}

// Counts returns the number of insert artifacts per table.
func (r *Result) Counts() map[string]int {
	counts := map[string]int{models.TableEngPrograms: len(r.Inserts.EngPrograms)}
	for _, fam := range r.families() {
		counts[fam.table] = len(fam.artifacts)
	}
	return counts
}

// Statements renders every delete and insert of the result as executable
// SQL, in ingestion order. In bulk mode the COPY statements of the
// materialized files stand in for the positional records.
func (r *Result) Statements() []string {
	var out []string
	for _, d := range r.Deletes.Ordered() {
		out = append(out, d.String())
	}
	for _, a := range r.Inserts.Programs {
		if stmt, ok := a.(models.LiteralStatement); ok {
			out = append(out, stmt.String())
		}
	}
	for _, stmt := range r.Inserts.EngPrograms {
		out = append(out, stmt.String())
	}
	for _, group := range [][]models.Artifact{r.Inserts.Schedule, r.Inserts.Instruments, r.Inserts.Operators} {
		for _, a := range group {
			if stmt, ok := a.(models.LiteralStatement); ok {
				out = append(out, stmt.String())
			}
		}
	}
	for _, load := range r.BulkLoads {
		out = append(out, load.Statement)
	}
	return out
}

type family struct {
	table     string
	artifacts []models.Artifact
}

func (r *Result) families() []family {
	return []family{
		{models.TablePrograms, r.Inserts.Programs},
		{models.TableNights, r.Inserts.Schedule},
		{models.TableInstruments, r.Inserts.Instruments},
		{models.TableOperators, r.Inserts.Operators},
	}
}

// RemoveBulkFiles deletes every materialized file. Files that are already
// gone are skipped; the first other failure is returned after all removals
// have been attempted.
func (r *Result) RemoveBulkFiles() error {
	var first error
	for _, l := range r.BulkLoads {
		if err := os.Remove(l.Path); err != nil && !errors.Is(err, os.ErrNotExist) && first == nil {
			first = errors.Wrapf(err, "remove %s bulk file", l.Table)
		}
	}
	return first
}

// Processor turns a tokenized sheet into a Result.
type Processor struct {
	Gateway          Gateway
	Files            FileWriter
	Location         *time.Location
	CommentTemplates []string
	Now              func() time.Time
}

// Process runs preparation, normalization, building, delete planning and,
// in bulk mode, materialization. Only the last can fail softly: a table
// whose file could not be written is left out of BulkLoads.
func (p *Processor) Process(ctx context.Context, sheet csvin.Table, req models.UploadRequest) (*Result, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	var first []string
	if len(sheet.Rows) > 0 {
		first = sheet.Rows[0]
	}
	prep, err := Prepare(ctx, p.Gateway, PrepareInput{
		Header:           sheet.Header,
		FirstRow:         first,
		LoadType:         req.LoadType,
		Access:           req.Access,
		UseBulkFile:      req.UseBulkFile,
		Now:              now(),
		Location:         p.Location,
		CommentTemplates: p.CommentTemplates,
	})
	if err != nil {
		return nil, err
	}

	rows, err := NormalizeRows(sheet.Rows, sheet.Lines, prep)
	if err != nil {
		return nil, err
	}
	recs, diags := Build(rows, prep)

	res := &Result{
		FileLoadMode: prep.FileLoadMode,
		Semester:     prep.Semester,
		LoadType:     prep.LoadType,
		Access:       prep.Access,
		Cutoff:       prep.Cutoff,
		Rows:         len(rows),
		Deletes:      PlanDeletes(prep.LoadType, prep.Semester, prep.Cutoff),
		Inserts:      recs.Encode(EncoderFor(prep.FileLoadMode)),
		Diagnostics:  diags,
	}
	if prep.FileLoadMode {
		if p.Files == nil {
			return nil, errors.New("bulk-file load requested but no file writer is configured")
		}
		p.materialize(res)
	}
	return res, nil
}

func (p *Processor) materialize(res *Result) {
	for _, fam := range res.families() {
		if len(fam.artifacts) == 0 {
			continue
		}
		positional := make([]models.PositionalRecord, 0, len(fam.artifacts))
		for _, a := range fam.artifacts {
			if pr, ok := a.(models.PositionalRecord); ok {
				positional = append(positional, pr)
			}
		}
		load, err := p.Files.Write(res.Semester, positional)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:    WriteFailure,
				Table:   fam.table,
				Message: err.Error(),
			})
			continue
		}
		res.BulkLoads = append(res.BulkLoads, load)
	}
}
