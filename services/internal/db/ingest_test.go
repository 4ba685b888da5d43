package db

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/telescope-ops/obsadmin/services/internal/bulkfile"
	"github.com/telescope-ops/obsadmin/services/internal/models"
	"github.com/telescope-ops/obsadmin/services/internal/schedule"
)

type fakeBatchResults struct {
	pgx.BatchResults
	tx    *fakeTx
	queue []*pgx.QueuedQuery
	pos   int
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	q := r.queue[r.pos]
	r.pos++
	r.tx.executed = append(r.tx.executed, q.SQL)
	if r.tx.failOn != "" && strings.Contains(q.SQL, r.tx.failOn) {
		return pgconn.CommandTag{}, errors.New("constraint violation")
	}
	if strings.HasPrefix(q.SQL, "DELETE") {
		return pgconn.NewCommandTag("DELETE 2"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeBatchResults) Close() error { return nil }

type fakeTx struct {
	pgx.Tx
	executed   []string
	failOn     string
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	return &fakeBatchResults{tx: tx, queue: b.QueuedQueries}
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx    *fakeTx
	begun int
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	d.begun++
	return d.tx, nil
}

func sampleRecords() schedule.Records {
	return schedule.Records{
		Programs: []models.ProgramRecord{
			{ProgramID: 45, Semester: "2024A", ProjectPI: "jdoe", Access: models.AccessPublic},
			{ProgramID: 950, Semester: "2024A", ProjectPI: "eng", Access: models.AccessPublic},
		},
		EngPrograms: []models.EngProgramRecord{{ProgramID: 950, ProjectPI: "eng"}},
		Schedule: []models.ScheduleRecord{
			{LogID: 1710028800, StartTime: 1710097200, EndTime: 1710133200, ProgramID: 45, Semester: "2024A"},
		},
		Instruments: []models.InstrumentRecord{
			{LogID: 1710028800, StartTime: 1710097200, ProgramID: 45, Semester: "2024A", InstrumentID: 1},
		},
		Operators: []models.OperatorRecord{
			{LogID: 1710028800, StartTime: 1710097200, OperatorID: 10, Semester: "2024A"},
			{LogID: 1710028800, StartTime: 1710097200, OperatorID: 11, Overlap: 1, Semester: "2024A"},
		},
	}
}

func directResult() *schedule.Result {
	return &schedule.Result{
		Semester: "2024A",
		LoadType: models.LoadFull,
		Deletes:  schedule.PlanDeletes(models.LoadFull, "2024A", 0),
		Inserts:  sampleRecords().Encode(schedule.StatementEncoder{}),
	}
}

func TestIngest_DirectModeOrder(t *testing.T) {
	tx := &fakeTx{}
	ing := NewIngester(&fakeDB{tx: tx})

	summary, err := ing.Ingest(context.Background(), directResult())
	require.NoError(t, err)
	require.True(t, tx.committed)
	require.False(t, tx.rolledBack)

	require.Len(t, tx.executed, 4+7)
	require.True(t, strings.HasPrefix(tx.executed[0], "DELETE FROM obsadmin.schedule_operators"))
	require.True(t, strings.HasPrefix(tx.executed[3], "DELETE FROM obsadmin.schedule_programs"))
	require.True(t, strings.HasPrefix(tx.executed[4], "INSERT INTO obsadmin.schedule_programs"))
	require.True(t, strings.HasPrefix(tx.executed[6], "INSERT INTO obsadmin.engineering_programs"))
	require.True(t, strings.HasPrefix(tx.executed[7], "INSERT INTO obsadmin.schedule_nights"))
	require.True(t, strings.HasPrefix(tx.executed[8], "INSERT INTO obsadmin.schedule_instruments"))
	require.True(t, strings.HasPrefix(tx.executed[10], "INSERT INTO obsadmin.schedule_operators"))

	require.Equal(t, int64(2), summary.Deleted[models.TableNights])
	require.Equal(t, int64(2), summary.Inserted[models.TablePrograms])
	require.Equal(t, int64(1), summary.Inserted[models.TableEngPrograms])
	require.Equal(t, int64(2), summary.Inserted[models.TableOperators])
}

func TestIngest_FailureRollsBack(t *testing.T) {
	tx := &fakeTx{failOn: "INSERT INTO obsadmin.schedule_instruments"}
	ing := NewIngester(&fakeDB{tx: tx})

	_, err := ing.Ingest(context.Background(), directResult())
	require.Error(t, err)
	require.Contains(t, err.Error(), "constraint violation")
	require.False(t, tx.committed)
	require.True(t, tx.rolledBack)
}

func TestIngest_BulkMode(t *testing.T) {
	files, err := bulkfile.New(t.TempDir())
	require.NoError(t, err)

	res := &schedule.Result{
		FileLoadMode: true,
		Semester:     "2024A",
		LoadType:     models.LoadPartial,
		Deletes:      schedule.PlanDeletes(models.LoadPartial, "2024A", 1710028800),
		Inserts:      sampleRecords().Encode(schedule.PositionalEncoder{}),
	}
	for _, group := range [][]models.Artifact{res.Inserts.Programs, res.Inserts.Schedule, res.Inserts.Instruments, res.Inserts.Operators} {
		recs := make([]models.PositionalRecord, 0, len(group))
		for _, a := range group {
			recs = append(recs, a.(models.PositionalRecord))
		}
		load, err := files.Write(res.Semester, recs)
		require.NoError(t, err)
		res.BulkLoads = append(res.BulkLoads, load)
	}

	type copied struct {
		sql  string
		body string
	}
	var copies []copied
	tx := &fakeTx{}
	ing := NewIngester(&fakeDB{tx: tx}).WithCopyFunc(func(_ context.Context, _ pgx.Tx, r io.Reader, sql string) (int64, error) {
		body, err := io.ReadAll(r)
		if err != nil {
			return 0, err
		}
		copies = append(copies, copied{sql: sql, body: string(body)})
		return int64(strings.Count(string(body), "\n") - 1), nil
	})

	summary, err := ing.Ingest(context.Background(), res)
	require.NoError(t, err)
	require.True(t, tx.committed)

	// deletes plus the engineering upsert go through the batch
	require.Len(t, tx.executed, 5)
	require.Contains(t, tx.executed[4], "ON CONFLICT (program_id)")

	require.Len(t, copies, 4)
	require.True(t, strings.HasPrefix(copies[0].sql, "COPY obsadmin.schedule_programs"))
	require.Contains(t, copies[0].sql, "FROM STDIN")
	require.True(t, strings.HasPrefix(copies[3].sql, "COPY obsadmin.schedule_operators"))
	require.True(t, strings.HasPrefix(copies[3].body, "log_id;start_time;operator_id;overlap;semester\n"))

	require.Equal(t, int64(2), summary.Inserted[models.TablePrograms])
	require.Equal(t, int64(1), summary.Inserted[models.TableEngPrograms])
	require.Equal(t, int64(2), summary.Inserted[models.TableOperators])
}

func TestIngest_RefusesMissingBulkFiles(t *testing.T) {
	db := &fakeDB{tx: &fakeTx{}}
	res := &schedule.Result{
		FileLoadMode: true,
		Semester:     "2024A",
		Inserts:      sampleRecords().Encode(schedule.PositionalEncoder{}),
	}

	_, err := NewIngester(db).Ingest(context.Background(), res)
	require.Error(t, err)
	require.Contains(t, err.Error(), models.TablePrograms)
	require.Zero(t, db.begun)
}
