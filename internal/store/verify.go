package store

import (
	"context"
	"fmt"
	"math"

	"github.com/pgcseis/wellassoc/internal/domain"
)

// SumViolation reports a quake whose persisted probability distribution at
// some level does not sum to one within tolerance.
type SumViolation struct {
	QuakeID int64
	Level   string // "stage", "well", or "pad"
	Sum     float64
}

// VerifySums recomputes the per-quake probability sums at every aggregation
// level from the persisted link rows and reports violations beyond eps.
func (s *Store) VerifySums(ctx context.Context, eps float64) ([]SumViolation, error) {
	ids, err := s.linkedQuakeIDs(ctx)
	if err != nil {
		return nil, err
	}

	var out []SumViolation
	for _, id := range ids {
		links, err := s.Links(ctx, id)
		if err != nil {
			return nil, err
		}

		var stageSum float64
		for _, l := range links {
			stageSum += l.PStage
		}
		if math.Abs(stageSum-1) > eps {
			out = append(out, SumViolation{QuakeID: id, Level: "stage", Sum: stageSum})
		}
		if sum := sumProbs(domain.WellProbs(links)); math.Abs(sum-1) > eps {
			out = append(out, SumViolation{QuakeID: id, Level: "well", Sum: sum})
		}
		if sum := sumProbs(domain.PadProbs(links)); math.Abs(sum-1) > eps {
			out = append(out, SumViolation{QuakeID: id, Level: "pad", Sum: sum})
		}
	}
	return out, nil
}

// MissingClassified returns quakes that carry link rows but no
// classification row. A healthy store has none; interrupted legacy writers
// could leave them behind.
func (s *Store) MissingClassified(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT e.quake_id
		FROM eq_well_association e
		LEFT JOIN eq_well_association_classified c ON e.quake_id = c.quake_id
		WHERE c.quake_id IS NULL
		ORDER BY e.quake_id`)
	if err != nil {
		return nil, fmt.Errorf("query missing classified rows: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// BackfillClassified rebuilds the classification row for every quake that
// has links but no classified row, from the persisted stage probabilities.
// Idempotent: a second call finds nothing to do. Returns the number of rows
// inserted.
func (s *Store) BackfillClassified(ctx context.Context) (int, error) {
	missing, err := s.MissingClassified(ctx)
	if err != nil {
		return 0, err
	}

	var rebuilt []domain.Classification
	for _, id := range missing {
		links, err := s.Links(ctx, id)
		if err != nil {
			return 0, err
		}
		if cls, ok := domain.Classify(id, links); ok {
			rebuilt = append(rebuilt, cls)
		}
	}
	if len(rebuilt) == 0 {
		return 0, nil
	}
	if err := s.WriteBatch(ctx, nil, rebuilt, nil); err != nil {
		return 0, fmt.Errorf("backfill classified rows: %w", err)
	}
	return len(rebuilt), nil
}

// CountRows returns the row counts of both association tables.
func (s *Store) CountRows(ctx context.Context) (links, classified int64, err error) {
	if err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM eq_well_association`).Scan(&links); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM eq_well_association_classified`).Scan(&classified); err != nil {
		return 0, 0, err
	}
	return links, classified, nil
}

func (s *Store) linkedQuakeIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT quake_id FROM eq_well_association ORDER BY quake_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func sumProbs(m map[string]float64) float64 {
	var sum float64
	for _, p := range m {
		sum += p
	}
	return sum
}
