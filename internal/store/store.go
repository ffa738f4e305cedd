// Package store persists association results to SQLite: the per-link table,
// the per-quake classified table, and the queries the incremental controller
// reconciles against.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/pgcseis/wellassoc/internal/domain"
)

// Store wraps the association tables of one SQLite database. Rows carry no
// run identity, so reruns over an unchanged catalog leave identical tables;
// run ids live in logs and notification headers only.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the association tables at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening association database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging association database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating association schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenDB wraps an already-open database handle (shared catalog/store file).
func OpenDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrating association schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Truncate drops all association rows. Full mode calls this once the
// earthquake source has produced its first batch.
func (s *Store) Truncate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, tbl := range []string{"eq_well_association", "eq_well_association_classified"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+tbl); err != nil {
			return fmt.Errorf("truncate %s: %w", tbl, err)
		}
	}
	return tx.Commit()
}

// AssociatedQuakeIDs returns every quake id carrying at least one link row.
func (s *Store) AssociatedQuakeIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT quake_id FROM eq_well_association`)
	if err != nil {
		return nil, fmt.Errorf("query associated quakes: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// QuakesLinkedToWell returns the quakes with links to the given well,
// used to resolve a forced well re-association into quake ids.
func (s *Store) QuakesLinkedToWell(ctx context.Context, wellID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT quake_id FROM eq_well_association WHERE well_id = ? ORDER BY quake_id`, wellID)
	if err != nil {
		return nil, fmt.Errorf("query quakes for well %s: %w", wellID, err)
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

// PurgePresent deletes "present"-resolution links for wells that now have
// stage-level data, plus the classified rows of the quakes those links
// belonged to, and returns the affected quake ids for recomputation.
func (s *Store) PurgePresent(ctx context.Context, stageWells map[string]struct{}) ([]int64, error) {
	if len(stageWells) == 0 {
		return nil, nil
	}

	wells := make([]string, 0, len(stageWells))
	for w := range stageWells {
		wells = append(wells, w)
	}
	placeholders := strings.Repeat("?,", len(wells))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(wells))
	for i, w := range wells {
		args[i] = w
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT quake_id FROM eq_well_association
		 WHERE resolution = 'present' AND well_id IN (`+placeholders+`)
		 ORDER BY quake_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query obsolete present links: %w", err)
	}
	var affected []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		affected = append(affected, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM eq_well_association
		 WHERE resolution = 'present' AND well_id IN (`+placeholders+`)`, args...); err != nil {
		return nil, fmt.Errorf("delete obsolete present links: %w", err)
	}
	for _, id := range affected {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM eq_well_association_classified WHERE quake_id = ?`, id); err != nil {
			return nil, fmt.Errorf("delete classified row for quake %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return affected, nil
}

// WriteBatch persists one batch atomically: delete everything for the
// replace ids, then insert the new link and classified rows. Either the
// whole batch lands or none of it does, so a quake's links and its
// classification row never diverge.
func (s *Store) WriteBatch(ctx context.Context, links []domain.AssociationLink, classified []domain.Classification, replace []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range replace {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM eq_well_association WHERE quake_id = ?`, id); err != nil {
			return fmt.Errorf("replace links for quake %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM eq_well_association_classified WHERE quake_id = ?`, id); err != nil {
			return fmt.Errorf("replace classification for quake %d: %w", id, err)
		}
	}

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO eq_well_association
			(quake_id, stage_id, well_id, pad_id, type, d_km, dt_days, score, p_stage, region, resolution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer linkStmt.Close()

	for _, l := range links {
		if _, err := linkStmt.ExecContext(ctx,
			l.QuakeID, l.StageID, l.WellID, l.PadID, string(l.Type),
			l.DistanceKm, l.DTDays, l.Score, l.PStage, string(l.Region), string(l.Resolution)); err != nil {
			return fmt.Errorf("insert link quake=%d well=%s: %w", l.QuakeID, l.WellID, err)
		}
	}

	clsStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO eq_well_association_classified
			(quake_id, best_stage, best_stage_prob, best_well, best_well_type, best_well_prob,
			 best_pad, best_pad_prob, best_d_km, best_dt_days,
			 n_hf_wells, n_wd_wells, n_prod_wells, n_pad_wells)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer clsStmt.Close()

	for _, c := range classified {
		if _, err := clsStmt.ExecContext(ctx,
			c.QuakeID, c.BestStage, c.BestStageProb, c.BestWell, string(c.BestWellType), c.BestWellProb,
			c.BestPad, c.BestPadProb, c.BestDistanceKm, c.BestDTDays,
			c.HFWells, c.WDWells, c.ProdWells, c.PadWells); err != nil {
			return fmt.Errorf("insert classification quake=%d: %w", c.QuakeID, err)
		}
	}

	return tx.Commit()
}

// Links returns all link rows for one quake, ordered deterministically.
func (s *Store) Links(ctx context.Context, quakeID int64) ([]domain.AssociationLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT quake_id, stage_id, well_id, pad_id, type, d_km, dt_days, score, p_stage, region, resolution
		FROM eq_well_association
		WHERE quake_id = ?
		ORDER BY type, well_id, stage_id`, quakeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

// Classified returns the classification row for one quake, or nil.
func (s *Store) Classified(ctx context.Context, quakeID int64) (*domain.Classification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT quake_id, best_stage, best_stage_prob, best_well, best_well_type, best_well_prob,
		       best_pad, best_pad_prob, best_d_km, best_dt_days,
		       n_hf_wells, n_wd_wells, n_prod_wells, n_pad_wells
		FROM eq_well_association_classified WHERE quake_id = ?`, quakeID)

	var c domain.Classification
	var wellType string
	err := row.Scan(&c.QuakeID, &c.BestStage, &c.BestStageProb, &c.BestWell, &wellType, &c.BestWellProb,
		&c.BestPad, &c.BestPadProb, &c.BestDistanceKm, &c.BestDTDays,
		&c.HFWells, &c.WDWells, &c.ProdWells, &c.PadWells)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.BestWellType = domain.ActivityType(wellType)
	return &c, nil
}

func scanLinks(rows *sql.Rows) ([]domain.AssociationLink, error) {
	var out []domain.AssociationLink
	for rows.Next() {
		var l domain.AssociationLink
		var typ, region, resolution string
		if err := rows.Scan(&l.QuakeID, &l.StageID, &l.WellID, &l.PadID, &typ,
			&l.DistanceKm, &l.DTDays, &l.Score, &l.PStage, &region, &resolution); err != nil {
			return nil, err
		}
		l.Type = domain.ActivityType(typ)
		l.Region = domain.Region(region)
		l.Resolution = domain.Resolution(resolution)
		out = append(out, l)
	}
	return out, rows.Err()
}
