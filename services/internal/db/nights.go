package db

import (
	"context"
	"strconv"
	"strings"
)

// Night is one stored schedule block.
type Night struct {
	LogID               int64  `json:"log_id"`
	StartTime           int64  `json:"start_time"`
	EndTime             int64  `json:"end_time"`
	ProgramID           int    `json:"program_id"`
	Semester            string `json:"semester"`
	ProjectPI           string `json:"project_pi"`
	SupportAstronomerID string `json:"support_astronomer"`
	RemoteObs           bool   `json:"remote_obs"`
	FacilityShutdown    bool   `json:"facility_shutdown"`
	Comments            string `json:"comments"`
}

type NightsPage struct {
	Nights     []Night `json:"nights"`
	TotalCount int     `json:"total_count"`
}

// NightsQuery filters ListNights.
type NightsQuery struct {
	Semester string
	FromLog  *int64
	ToLog    *int64
	Limit    int
	Offset   int
}

// ListNights returns stored schedule blocks of a semester ordered by start time.
func (s *Store) ListNights(ctx context.Context, q NightsQuery) (*NightsPage, error) {
	conditions := []string{"semester = $1"}
	args := []any{q.Semester}

	if q.FromLog != nil {
		conditions = append(conditions, "log_id >= $"+strconv.Itoa(len(args)+1))
		args = append(args, *q.FromLog)
	}
	if q.ToLog != nil {
		conditions = append(conditions, "log_id <= $"+strconv.Itoa(len(args)+1))
		args = append(args, *q.ToLog)
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countSQL := "SELECT COUNT(*) FROM obsadmin.schedule_nights " + whereClause
	var totalCount int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&totalCount); err != nil {
		return nil, err
	}

	limitPos := len(args) + 1
	offsetPos := len(args) + 2
	args = append(args, q.Limit, q.Offset)

	query := strings.Builder{}
	query.WriteString("SELECT log_id, start_time, end_time, program_id, semester, project_pi, ")
	query.WriteString("support_astronomer, remote_obs = 1, facility_shutdown = 1, comments ")
	query.WriteString("FROM obsadmin.schedule_nights ")
	query.WriteString(whereClause + " ")
	query.WriteString("ORDER BY start_time, program_id ")
	query.WriteString("LIMIT $" + strconv.Itoa(limitPos) + " OFFSET $" + strconv.Itoa(offsetPos))

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nights := make([]Night, 0, q.Limit)
	for rows.Next() {
		var n Night
		if err := rows.Scan(
			&n.LogID,
			&n.StartTime,
			&n.EndTime,
			&n.ProgramID,
			&n.Semester,
			&n.ProjectPI,
			&n.SupportAstronomerID,
			&n.RemoteObs,
			&n.FacilityShutdown,
			&n.Comments,
		); err != nil {
			return nil, err
		}
		nights = append(nights, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &NightsPage{Nights: nights, TotalCount: totalCount}, nil
}
