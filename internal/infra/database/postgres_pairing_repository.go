// internal/infra/database/postgres_pairing_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"binome_rotation_bot/internal/domain/pairing"
)

type PostgresPairingRepository struct {
	db *sql.DB
}

func NewPostgresPairingRepository(db *sql.DB) *PostgresPairingRepository {
	return &PostgresPairingRepository{db: db}
}

// --- Cycle Methods ---

func (r *PostgresPairingRepository) GetActiveCycle(ctx context.Context, sectionID int64) (*pairing.Cycle, error) {
	query := `SELECT id, section_id, started_at, ended_at, is_active
               FROM binome_cycles
               WHERE section_id = $1 AND is_active
               ORDER BY started_at DESC LIMIT 1`
	c := pairing.Cycle{}
	err := r.db.QueryRowContext(ctx, query, sectionID).Scan(&c.ID, &c.SectionID, &c.StartedAt, &c.EndedAt, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCycleNotFound
		}
		return nil, fmt.Errorf("error getting active cycle of section %d: %w", sectionID, err)
	}
	return &c, nil
}

func (r *PostgresPairingRepository) CountActiveCycles(ctx context.Context, sectionID int64) (int, error) {
	query := `SELECT COUNT(*) FROM binome_cycles WHERE section_id = $1 AND is_active`
	var n int
	if err := r.db.QueryRowContext(ctx, query, sectionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting active cycles: %w", err)
	}
	return n, nil
}

// ReplaceActiveCycle serializes rotations of one section with a transaction
// scoped advisory lock, closes the active cycle with a conditional update and
// inserts the new cycle with its pairs. Nothing is visible until commit.
func (r *PostgresPairingRepository) ReplaceActiveCycle(ctx context.Context, rep *pairing.Replacement) (*pairing.Cycle, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rotation transaction: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if _, err := txn.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, rep.SectionID); err != nil {
		return nil, fmt.Errorf("failed to lock section %d: %w", rep.SectionID, err)
	}

	switch {
	case rep.RequireNoActive:
		var exists bool
		err := txn.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM binome_cycles WHERE section_id = $1 AND is_active)`,
			rep.SectionID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check active cycle of section %d: %w", rep.SectionID, err)
		}
		if exists {
			return nil, ErrRotationConflict
		}
	case rep.ExpectedActiveID.Valid:
		res, err := txn.ExecContext(ctx,
			`UPDATE binome_cycles SET is_active = FALSE, ended_at = $1
              WHERE id = $2 AND section_id = $3 AND is_active`,
			rep.StartedAt, rep.ExpectedActiveID.Int64, rep.SectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to close cycle %d: %w", rep.ExpectedActiveID.Int64, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read closed cycle count: %w", err)
		}
		if n != 1 {
			return nil, ErrRotationConflict
		}
	default:
		_, err := txn.ExecContext(ctx,
			`UPDATE binome_cycles SET is_active = FALSE, ended_at = $1
              WHERE section_id = $2 AND is_active`,
			rep.StartedAt, rep.SectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to close active cycle of section %d: %w", rep.SectionID, err)
		}
	}

	cycle := &pairing.Cycle{SectionID: rep.SectionID, StartedAt: rep.StartedAt, IsActive: true}
	err = txn.QueryRowContext(ctx,
		`INSERT INTO binome_cycles (section_id, started_at, is_active)
          VALUES ($1, $2, TRUE)
          RETURNING id`,
		rep.SectionID, rep.StartedAt).Scan(&cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("error creating binome cycle: %w", err)
	}

	if len(rep.Pairs) > 0 {
		stmt, err := txn.PrepareContext(ctx, `INSERT INTO binome_pairs (cycle_id, age_bracket_id, gender, member_a_id, member_b_id, created_at)
                                             VALUES ($1, $2, $3, $4, $5, $6)
                                             RETURNING id`)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare pair insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range rep.Pairs {
			p.CycleID = cycle.ID
			if p.CreatedAt.IsZero() {
				p.CreatedAt = rep.StartedAt
			}
			if err := stmt.QueryRowContext(ctx, p.CycleID, p.AgeBracketID, p.Gender, p.MemberAID, p.MemberBID, p.CreatedAt).Scan(&p.ID); err != nil {
				return nil, fmt.Errorf("error inserting pair (%d, %d) of cycle %d: %w", p.MemberAID, p.MemberBID, cycle.ID, err)
			}
		}
	}

	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rotation of section %d: %w", rep.SectionID, err)
	}
	return cycle, nil
}

// --- Pair Methods ---

func scanPairs(rows *sql.Rows) ([]*pairing.Pair, error) {
	pairs := make([]*pairing.Pair, 0)
	for rows.Next() {
		p := &pairing.Pair{}
		if err := rows.Scan(&p.ID, &p.CycleID, &p.AgeBracketID, &p.Gender, &p.MemberAID, &p.MemberBID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning pair row: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pair rows: %w", err)
	}
	return pairs, nil
}

func (r *PostgresPairingRepository) ListPairsByCycle(ctx context.Context, cycleID int64) ([]*pairing.Pair, error) {
	query := `SELECT id, cycle_id, age_bracket_id, gender, member_a_id, member_b_id, created_at
               FROM binome_pairs
               WHERE cycle_id = $1
               ORDER BY age_bracket_id, gender, created_at, id`
	rows, err := r.db.QueryContext(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("error querying pairs of cycle %d: %w", cycleID, err)
	}
	defer rows.Close()
	return scanPairs(rows)
}

func (r *PostgresPairingRepository) ListPairsStartedSince(ctx context.Context, sectionID int64, since time.Time) ([]*pairing.Pair, error) {
	query := `SELECT p.id, p.cycle_id, p.age_bracket_id, p.gender, p.member_a_id, p.member_b_id, p.created_at
               FROM binome_pairs p
               JOIN binome_cycles c ON c.id = p.cycle_id
               WHERE c.section_id = $1 AND c.started_at >= $2
               ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, query, sectionID, since)
	if err != nil {
		return nil, fmt.Errorf("error querying pair history of section %d: %w", sectionID, err)
	}
	defer rows.Close()
	return scanPairs(rows)
}
