package db

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telescope-ops/obsadmin/services/internal/models"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ingester returns an ingester writing through the store's pool.
func (s *Store) Ingester() *Ingester {
	return NewIngester(s.pool)
}

const activeInstrumentsSQL = `
    SELECT id, code, name
    FROM obsadmin.instruments
    WHERE active
    ORDER BY id
`

// ActiveInstruments returns the instruments currently offered.
func (s *Store) ActiveInstruments(ctx context.Context) ([]models.Instrument, error) {
	rows, err := s.pool.Query(ctx, activeInstrumentsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instruments := make([]models.Instrument, 0)
	for rows.Next() {
		var inst models.Instrument
		if err := rows.Scan(&inst.ID, &inst.Code, &inst.Name); err != nil {
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	return instruments, rows.Err()
}

const activeOperatorsSQL = `
    SELECT id, code, name
    FROM obsadmin.operators
    WHERE active
    ORDER BY id
`

// ActiveOperators returns the telescope operators currently on staff.
func (s *Store) ActiveOperators(ctx context.Context) ([]models.Operator, error) {
	rows, err := s.pool.Query(ctx, activeOperatorsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	operators := make([]models.Operator, 0)
	for rows.Next() {
		var op models.Operator
		if err := rows.Scan(&op.ID, &op.Code, &op.Name); err != nil {
			return nil, err
		}
		operators = append(operators, op)
	}
	return operators, rows.Err()
}

const programDirectorySQL = `
    SELECT program_id, year::text || half, pi, pi_name, pi_email,
           COALESCE(project_members, ''), COALESCE(other_info, '')
    FROM obsadmin.proposals
    WHERE year = $1 AND half = $2
    ORDER BY program_id
`

// ProgramDirectory returns accepted proposals of a semester keyed by program ID.
func (s *Store) ProgramDirectory(ctx context.Context, year int, half string) (map[int]models.Program, error) {
	rows, err := s.pool.Query(ctx, programDirectorySQL, year, half)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programs := make(map[int]models.Program)
	for rows.Next() {
		var p models.Program
		if err := rows.Scan(
			&p.ProgramID,
			&p.Semester,
			&p.PI,
			&p.PIName,
			&p.PIEmail,
			&p.ProjectMembers,
			&p.OtherInfo,
		); err != nil {
			return nil, err
		}
		programs[p.ProgramID] = p
	}
	return programs, rows.Err()
}
