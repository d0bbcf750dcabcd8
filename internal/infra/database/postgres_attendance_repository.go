package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"binome_rotation_bot/internal/domain/attendance"

	"github.com/lib/pq"
)

type PostgresAttendanceRepository struct {
	db *sql.DB
}

func NewPostgresAttendanceRepository(db *sql.DB) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{db: db}
}

func (r *PostgresAttendanceRepository) ListMeetingsSince(ctx context.Context, sectionID int64, since time.Time) ([]*attendance.Meeting, error) {
	query := `SELECT m.id, m.section_id, m.meeting_date,
                      COALESCE(array_agg(a.member_id) FILTER (WHERE a.present), '{}') AS present_ids
               FROM meetings m
               LEFT JOIN meeting_attendances a ON a.meeting_id = m.id
               WHERE m.section_id = $1 AND m.meeting_date >= $2
               GROUP BY m.id, m.section_id, m.meeting_date
               ORDER BY m.meeting_date, m.id`
	rows, err := r.db.QueryContext(ctx, query, sectionID, since)
	if err != nil {
		return nil, fmt.Errorf("error querying meetings of section %d: %w", sectionID, err)
	}
	defer rows.Close()

	meetings := make([]*attendance.Meeting, 0)
	for rows.Next() {
		m := &attendance.Meeting{}
		var present pq.Int64Array
		if err := rows.Scan(&m.ID, &m.SectionID, &m.Date, &present); err != nil {
			return nil, fmt.Errorf("error scanning meeting: %w", err)
		}
		m.PresentMemberIDs = []int64(present)
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meetings: %w", err)
	}
	return meetings, nil
}
