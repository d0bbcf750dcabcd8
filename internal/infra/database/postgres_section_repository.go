package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"binome_rotation_bot/internal/domain/section"
)

type PostgresSectionRepository struct {
	db *sql.DB
}

func NewPostgresSectionRepository(db *sql.DB) *PostgresSectionRepository {
	return &PostgresSectionRepository{db: db}
}

func (r *PostgresSectionRepository) GetByID(ctx context.Context, id int64) (*section.Section, error) {
	query := `SELECT id, name, created_at FROM sections WHERE id = $1`
	s := &section.Section{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("error getting section by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSectionRepository) ListAll(ctx context.Context) ([]*section.Section, error) {
	query := `SELECT id, name, created_at FROM sections ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing sections: %w", err)
	}
	defer rows.Close()

	sections := make([]*section.Section, 0)
	for rows.Next() {
		s := &section.Section{}
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning section: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sections: %w", err)
	}
	return sections, nil
}
