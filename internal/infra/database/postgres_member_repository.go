package database

import (
	"context"
	"database/sql"
	"fmt"

	"binome_rotation_bot/internal/domain/member"
)

type PostgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

func (r *PostgresMemberRepository) ListBySection(ctx context.Context, sectionID int64) ([]*member.Member, error) {
	query := `SELECT id, section_id, first_name, last_name, birth_date, bracket_override, gender, created_at
               FROM members WHERE section_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("error listing members of section %d: %w", sectionID, err)
	}
	defer rows.Close()

	members := make([]*member.Member, 0)
	for rows.Next() {
		m := &member.Member{}
		if err := rows.Scan(&m.ID, &m.SectionID, &m.FirstName, &m.LastName, &m.BirthDate, &m.BracketOverride, &m.Gender, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

func (r *PostgresMemberRepository) ListBrackets(ctx context.Context) ([]*member.AgeBracket, error) {
	query := `SELECT id, name, sort_order, min_age, max_age FROM age_brackets ORDER BY sort_order, name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing age brackets: %w", err)
	}
	defer rows.Close()

	brackets := make([]*member.AgeBracket, 0)
	for rows.Next() {
		b := &member.AgeBracket{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Order, &b.MinAge, &b.MaxAge); err != nil {
			return nil, fmt.Errorf("error scanning age bracket: %w", err)
		}
		brackets = append(brackets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating age brackets: %w", err)
	}
	return brackets, nil
}
