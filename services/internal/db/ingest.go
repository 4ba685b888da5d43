package db

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/telescope-ops/obsadmin/services/internal/models"
	"github.com/telescope-ops/obsadmin/services/internal/schedule"
)

// Beginner opens transactions; *pgxpool.Pool satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CopyFunc streams r into the database with a COPY ... FROM STDIN statement.
type CopyFunc func(ctx context.Context, tx pgx.Tx, r io.Reader, sql string) (int64, error)

func pgCopy(ctx context.Context, tx pgx.Tx, r io.Reader, sql string) (int64, error) {
	tag, err := tx.Conn().PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IngestSummary counts affected rows per table.
type IngestSummary struct {
	Deleted  map[string]int64 `json:"deleted"`
	Inserted map[string]int64 `json:"inserted"`
}

// Ingester applies a processed upload in a single transaction: deletes
// first, then inserts parent tables before child tables.
type Ingester struct {
	db       Beginner
	copyFrom CopyFunc
}

// NewIngester returns an ingester using db for transactions.
func NewIngester(db Beginner) *Ingester {
	return &Ingester{db: db, copyFrom: pgCopy}
}

// WithCopyFunc replaces the COPY implementation.
func (i *Ingester) WithCopyFunc(fn CopyFunc) *Ingester {
	i.copyFrom = fn
	return i
}

// Ingest writes res. A bulk-mode result missing any table file is refused
// before a transaction is opened.
func (i *Ingester) Ingest(ctx context.Context, res *schedule.Result) (*IngestSummary, error) {
	if missing := res.MissingLoads(); len(missing) > 0 {
		return nil, errors.Errorf("bulk files missing for %s", strings.Join(missing, ", "))
	}

	tx, err := i.db.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	summary := &IngestSummary{Deleted: map[string]int64{}, Inserted: map[string]int64{}}

	deletes := res.Deletes.Ordered()
	var inserts []models.LiteralStatement
	if !res.FileLoadMode {
		progs, err := statements(res.Inserts.Programs)
		if err != nil {
			return nil, err
		}
		inserts = append(inserts, progs...)
	}
	inserts = append(inserts, res.Inserts.EngPrograms...)
	if !res.FileLoadMode {
		for _, group := range [][]models.Artifact{res.Inserts.Schedule, res.Inserts.Instruments, res.Inserts.Operators} {
			stmts, err := statements(group)
			if err != nil {
				return nil, err
			}
			inserts = append(inserts, stmts...)
		}
	}

	if err := execBatch(ctx, tx, deletes, summary.Deleted); err != nil {
		return nil, errors.Wrap(err, "delete")
	}
	if err := execBatch(ctx, tx, inserts, summary.Inserted); err != nil {
		return nil, errors.Wrap(err, "insert")
	}

	if res.FileLoadMode {
		for _, table := range []string{models.TablePrograms, models.TableNights, models.TableInstruments, models.TableOperators} {
			load, ok := res.BulkLoad(table)
			if !ok {
				continue
			}
			n, err := i.copyFile(ctx, tx, load.Path, load.StdinStatement())
			if err != nil {
				return nil, errors.Wrapf(err, "copy %s", table)
			}
			summary.Inserted[table] += n
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return summary, nil
}

func (i *Ingester) copyFile(ctx context.Context, tx pgx.Tx, path, sql string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return i.copyFrom(ctx, tx, f, sql)
}

func statements(artifacts []models.Artifact) ([]models.LiteralStatement, error) {
	out := make([]models.LiteralStatement, 0, len(artifacts))
	for _, a := range artifacts {
		stmt, ok := a.(models.LiteralStatement)
		if !ok {
			return nil, errors.Errorf("%s: expected statement artifact, got %T", a.Table(), a)
		}
		out = append(out, stmt)
	}
	return out, nil
}

func execBatch(ctx context.Context, tx pgx.Tx, stmts []models.LiteralStatement, counts map[string]int64) error {
	if len(stmts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range stmts {
		batch.Queue(s.SQL, s.Args...)
	}

	res := tx.SendBatch(ctx, batch)
	defer res.Close()

	for _, s := range stmts {
		tag, err := res.Exec()
		if err != nil {
			return errors.Wrapf(err, "%s", s.TableName)
		}
		counts[s.TableName] += tag.RowsAffected()
	}
	return res.Close()
}
