// Package pipeline sequences one schedule upload through tokenizing,
// processing and ingestion.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/telescope-ops/obsadmin/services/internal/archive"
	"github.com/telescope-ops/obsadmin/services/internal/csvin"
	"github.com/telescope-ops/obsadmin/services/internal/db"
	"github.com/telescope-ops/obsadmin/services/internal/logging"
	"github.com/telescope-ops/obsadmin/services/internal/models"
	"github.com/telescope-ops/obsadmin/services/internal/schedule"
)

// State is the position of a run in the pipeline.
type State string

const (
	StatePending   State = "pending"
	StateParsed    State = "parsed"
	StateProcessed State = "processed"
	StateIngested  State = "ingested"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Stage names the collaborator a transition invokes.
type Stage string

const (
	StageTokenize Stage = "tokenize"
	StageProcess  Stage = "process"
	StageIngest   Stage = "ingest"
)

// StageError is the single error surfaced by a failed run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Tokenizer turns raw upload bytes into a sheet.
type Tokenizer interface {
	Tokenize(data []byte) (csvin.Table, error)
}

// Processor turns a sheet into delete and insert instructions.
type Processor interface {
	Process(ctx context.Context, sheet csvin.Table, req models.UploadRequest) (*schedule.Result, error)
}

// Ingester applies processed instructions to the database.
type Ingester interface {
	Ingest(ctx context.Context, res *schedule.Result) (*db.IngestSummary, error)
}

// Report describes a finished (or failed) run.
type Report struct {
	RunID       string                `json:"run_id"`
	State       State                 `json:"state"`
	FailedStage Stage                 `json:"failed_stage,omitempty"`
	Error       string                `json:"error,omitempty"`
	DryRun      bool                  `json:"dry_run"`
	Semester    string                `json:"semester,omitempty"`
	LoadType    models.LoadType       `json:"load_type"`
	Rows        int                   `json:"rows"`
	Counts      map[string]int        `json:"counts,omitempty"`
	Diagnostics []schedule.Diagnostic `json:"diagnostics,omitempty"`
	Ingest      *db.IngestSummary     `json:"ingest,omitempty"`
	ArchivedAt  string                `json:"archived_at,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`

	Result *schedule.Result `json:"-"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithArchive keeps a copy of every successfully ingested upload.
func WithArchive(store archive.Store) Option {
	return func(m *Manager) { m.archive = store }
}

// WithMetrics records stage outcomes.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager runs uploads synchronously, one stage at a time.
type Manager struct {
	tokenizer Tokenizer
	processor Processor
	ingester  Ingester
	archive   archive.Store
	metrics   *Metrics
	now       func() time.Time
}

// New wires a Manager.
func New(tok Tokenizer, proc Processor, ing Ingester, opts ...Option) *Manager {
	m := &Manager{tokenizer: tok, processor: proc, ingester: ing, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run takes req through Parsed, Processed, Ingested and Done. The first
// failing stage moves the run to Failed and its error is returned wrapped
// in a *StageError; the report is returned in both cases.
func (m *Manager) Run(ctx context.Context, req models.UploadRequest) (*Report, error) {
	return m.run(ctx, req, false)
}

// Plan stops after Processed without touching the database.
func (m *Manager) Plan(ctx context.Context, req models.UploadRequest) (*Report, error) {
	return m.run(ctx, req, true)
}

func (m *Manager) run(ctx context.Context, req models.UploadRequest, dryRun bool) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		State:     StatePending,
		DryRun:    dryRun,
		LoadType:  req.LoadType,
		StartedAt: m.now(),
	}
	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"run_id":    report.RunID,
		"load_type": req.LoadType,
		"bulk":      req.UseBulkFile,
		"file":      req.FileName,
	})
	ctx = logging.WithLogger(ctx, log)

	sheet, err := m.tokenizer.Tokenize(req.File)
	if err := m.advance(report, log, StageTokenize, StateParsed, err); err != nil {
		return report, err
	}
	log.WithField("rows", len(sheet.Rows)).Debug("sheet tokenized")

	res, err := m.processor.Process(ctx, sheet, req)
	if err := m.advance(report, log, StageProcess, StateProcessed, err); err != nil {
		return report, err
	}
	report.Result = res
	report.Semester = res.Semester
	report.Rows = res.Rows
	report.Counts = res.Counts()
	report.Diagnostics = res.Diagnostics
	log = log.WithField("semester", res.Semester)
	defer m.removeBulkFiles(log, res)
	logDiagnostics(log, res.Diagnostics)
	m.metrics.result(report)

	if dryRun {
		return m.finish(report, log, StateProcessed), nil
	}

	if missing := res.MissingLoads(); len(missing) > 0 {
		err = errors.Errorf("bulk files missing for %v", missing)
	} else {
		report.Ingest, err = m.ingester.Ingest(ctx, res)
	}
	if err := m.advance(report, log, StageIngest, StateIngested, err); err != nil {
		return report, err
	}

	if m.archive != nil {
		key := archive.UploadKey(res.Semester, report.RunID)
		if loc, err := m.archive.Put(ctx, key, bytes.NewReader(req.File)); err != nil {
			log.WithError(err).Warn("archive upload failed")
		} else {
			report.ArchivedAt = loc
		}
	}

	return m.finish(report, log, StateDone), nil
}

func (m *Manager) advance(report *Report, log *logrus.Entry, stage Stage, next State, err error) error {
	m.metrics.stage(stage, err)
	if err != nil {
		report.FailedStage = stage
		report.Error = err.Error()
		m.finish(report, log.WithError(err).WithField("stage", stage), StateFailed)
		return &StageError{Stage: stage, Err: err}
	}
	report.State = next
	return nil
}

func (m *Manager) finish(report *Report, log *logrus.Entry, state State) *Report {
	report.State = state
	report.FinishedAt = m.now()
	elapsed := report.FinishedAt.Sub(report.StartedAt)
	m.metrics.run(state, elapsed)

	entry := log.WithFields(logrus.Fields{"state": state, "elapsed": elapsed.String()})
	if state == StateFailed {
		entry.Error("schedule upload failed")
	} else {
		entry.WithField("counts", report.Counts).Info("schedule upload finished")
	}
	return report
}

// removeBulkFiles drops the run's staged table files. Their metadata stays
// in the report.
func (m *Manager) removeBulkFiles(log *logrus.Entry, res *schedule.Result) {
	if err := res.RemoveBulkFiles(); err != nil {
		log.WithError(err).Warn("bulk file cleanup failed")
	}
}

func logDiagnostics(log *logrus.Entry, diags []schedule.Diagnostic) {
	for _, d := range diags {
		entry := log.WithFields(logrus.Fields{"kind": d.Kind, "line": d.Line, "table": d.Table})
		if d.Kind == schedule.DuplicateSkipped {
			entry.Debug(d.Message)
			continue
		}
		entry.Warn(d.Message)
	}
}
