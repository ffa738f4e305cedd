// Package catalog reads earthquake origins and well activity records from
// the catalog database and shapes them into domain values.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pgcseis/wellassoc/internal/domain"
)

// Catalog wraps the catalog database handle.
type Catalog struct {
	db *sql.DB
}

// Open opens (and if necessary initializes) the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	return OpenDB(db)
}

// OpenDB wraps an existing handle, for callers sharing one database file
// between the catalog and the association store.
func OpenDB(db *sql.DB) (*Catalog, error) {
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// DB exposes the underlying handle so the association store can share it.
func (c *Catalog) DB() *sql.DB { return c.db }

// Close closes the database handle.
func (c *Catalog) Close() error { return c.db.Close() }

// QuakeSource streams one origin table in quake-id order using a keyed
// cursor, so arbitrarily large catalogs never load at once.
type QuakeSource struct {
	db           *sql.DB
	table        string
	stageCapable bool
	cursor       int64
	done         bool
}

// Quakes returns a batched source over the named origin table. Only the
// known origin tables are accepted; the table name is interpolated into SQL
// and must never come from untrusted input.
func (c *Catalog) Quakes(table string) (*QuakeSource, error) {
	switch table {
	case TableOrigin3D, TableOrigin:
	default:
		return nil, fmt.Errorf("unknown origin table %q", table)
	}
	return &QuakeSource{
		db:           c.db,
		table:        table,
		stageCapable: table == TableOrigin3D,
	}, nil
}

// NextBatch returns up to limit earthquakes after the current cursor. An
// empty batch signals the end of the table.
func (s *QuakeSource) NextBatch(ctx context.Context, limit int) ([]domain.Earthquake, error) {
	if s.done {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT quake_id, lat, lon, depth_km, magnitude, origin_time
		FROM %s
		WHERE quake_id > ?
		ORDER BY quake_id
		LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, query, s.cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []domain.Earthquake
	for rows.Next() {
		var (
			eq       domain.Earthquake
			lat, lon float64
			when     string
		)
		if err := rows.Scan(&eq.QuakeID, &lat, &lon, &eq.DepthKm, &eq.Magnitude, &when); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", s.table, err)
		}
		eq.Time, err = parseTime(when)
		if err != nil {
			return nil, fmt.Errorf("quake %d origin_time: %w", eq.QuakeID, err)
		}
		eq.Location = domain.Point{X: lon, Y: lat, CRS: domain.CRSGeographic}
		eq.Source = s.table
		eq.StageCapable = s.stageCapable
		out = append(out, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(out) > 0 {
		s.cursor = out[len(out)-1].QuakeID
	}
	if len(out) < limit {
		s.done = true
	}
	return out, nil
}

// ActivityFilter selects which activity records to load.
type ActivityFilter struct {
	// Types limits loading to the enabled activity types.
	Types []domain.ActivityType
	// ForceWell demotes one well to trajectory resolution: its stage
	// records are skipped and its trajectory is loaded even though stage
	// data exists. Used to force re-association of everything linked to
	// the well.
	ForceWell string
}

func (f ActivityFilter) wants(t domain.ActivityType) bool {
	for _, ft := range f.Types {
		if ft == t {
			return true
		}
	}
	return false
}

// LoadActivities reads every activity record matching the filter. HF wells
// with stage coverage contribute stage records only; their coarser
// trajectory records are skipped so a quake is never scored against both
// resolutions of the same well.
func (c *Catalog) LoadActivities(ctx context.Context, params domain.Params, f ActivityFilter) ([]domain.Activity, error) {
	var out []domain.Activity

	if f.wants(domain.HF) {
		stages, covered, err := c.loadHFStages(ctx, params, f.ForceWell)
		if err != nil {
			return nil, err
		}
		out = append(out, stages...)

		present, err := c.loadHFPresent(ctx, params, covered)
		if err != nil {
			return nil, err
		}
		out = append(out, present...)
	}

	if f.wants(domain.WD) {
		wd, err := c.loadWDMonthly(ctx, params)
		if err != nil {
			return nil, err
		}
		out = append(out, wd...)
	}

	if f.wants(domain.PROD) {
		prod, err := c.loadProdWells(ctx, params)
		if err != nil {
			return nil, err
		}
		out = append(out, prod...)
	}

	return out, nil
}

// loadHFStages returns stage-resolution HF activities plus the set of wells
// they cover. A forced well is excluded from both so it falls back to its
// trajectory record.
func (c *Catalog) loadHFStages(ctx context.Context, params domain.Params, forceWell string) ([]domain.Activity, map[string]struct{}, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT stage_id, well_id, pad_id, formation, lat, lon, started_at, date_only
		FROM hf_stages
		ORDER BY stage_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query hf_stages: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	covered := make(map[string]struct{})
	for rows.Next() {
		var (
			act      domain.Activity
			lat, lon float64
			started  string
			dateOnly bool
		)
		if err := rows.Scan(&act.StageID, &act.WellID, &act.PadID, &act.Formation,
			&lat, &lon, &started, &dateOnly); err != nil {
			return nil, nil, fmt.Errorf("scan hf_stages row: %w", err)
		}
		if act.WellID == forceWell && forceWell != "" {
			continue
		}
		startedAt, err := parseTime(started)
		if err != nil {
			return nil, nil, fmt.Errorf("stage %d started_at: %w", act.StageID, err)
		}
		act.Type = domain.HF
		act.Resolution = domain.ResolutionStage
		act.Window = params.HFStageWindow(startedAt, dateOnly)
		act.Geometry = []domain.Point{{X: lon, Y: lat, CRS: domain.CRSGeographic}}
		covered[act.WellID] = struct{}{}
		out = append(out, act)
	}
	return out, covered, rows.Err()
}

// loadHFPresent returns trajectory-resolution HF activities for the wells
// without stage coverage, one polyline per well.
func (c *Catalog) loadHFPresent(ctx context.Context, params domain.Params, covered map[string]struct{}) ([]domain.Activity, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT well_id, pad_id, formation, lat, lon, expected_start, expected_end
		FROM hf_present
		ORDER BY well_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("query hf_present: %w", err)
	}
	defer rows.Close()

	var (
		out []domain.Activity
		cur *domain.Activity
	)
	for rows.Next() {
		var (
			wellID, padID, formation string
			lat, lon                 float64
			startS, endS             string
		)
		if err := rows.Scan(&wellID, &padID, &formation, &lat, &lon, &startS, &endS); err != nil {
			return nil, fmt.Errorf("scan hf_present row: %w", err)
		}
		if _, ok := covered[wellID]; ok {
			continue
		}

		if cur == nil || cur.WellID != wellID {
			expStart, err := parseTime(startS)
			if err != nil {
				return nil, fmt.Errorf("well %s expected_start: %w", wellID, err)
			}
			expEnd, err := parseTime(endS)
			if err != nil {
				return nil, fmt.Errorf("well %s expected_end: %w", wellID, err)
			}
			out = append(out, domain.Activity{
				WellID:     wellID,
				PadID:      padID,
				Type:       domain.HF,
				Formation:  formation,
				Resolution: domain.ResolutionPresent,
				Window:     params.HFPresentWindow(expStart, expEnd),
			})
			cur = &out[len(out)-1]
		}
		cur.Geometry = append(cur.Geometry, domain.Point{X: lon, Y: lat, CRS: domain.CRSGeographic})
	}
	return out, rows.Err()
}

// loadWDMonthly returns one activity per reported disposal month.
func (c *Catalog) loadWDMonthly(ctx context.Context, params domain.Params) ([]domain.Activity, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT well_id, pad_id, lat, lon, year_month
		FROM wd_monthly
		ORDER BY well_id, year_month`)
	if err != nil {
		return nil, fmt.Errorf("query wd_monthly: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var (
			act      domain.Activity
			lat, lon float64
			monthS   string
		)
		if err := rows.Scan(&act.WellID, &act.PadID, &lat, &lon, &monthS); err != nil {
			return nil, fmt.Errorf("scan wd_monthly row: %w", err)
		}
		month, err := parseTime(monthS)
		if err != nil {
			return nil, fmt.Errorf("well %s year_month: %w", act.WellID, err)
		}
		act.Type = domain.WD
		act.Resolution = domain.ResolutionStage
		act.Window = params.WDWindow(month)
		act.Geometry = []domain.Point{{X: lon, Y: lat, CRS: domain.CRSGeographic}}
		out = append(out, act)
	}
	return out, rows.Err()
}

// loadProdWells returns the actively producing wells whose status took
// effect after the production cutoff.
func (c *Catalog) loadProdWells(ctx context.Context, params domain.Params) ([]domain.Activity, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT well_id, pad_id, lat, lon, status_eff
		FROM prod_status
		WHERE mode_code = 'ACT' AND ops_type = 'PROD' AND status_eff >= ?
		ORDER BY well_id`,
		params.ProdCutoff.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query prod_status: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var (
			act      domain.Activity
			lat, lon float64
			effS     string
		)
		if err := rows.Scan(&act.WellID, &act.PadID, &lat, &lon, &effS); err != nil {
			return nil, fmt.Errorf("scan prod_status row: %w", err)
		}
		eff, err := parseTime(effS)
		if err != nil {
			return nil, fmt.Errorf("well %s status_eff: %w", act.WellID, err)
		}
		act.Type = domain.PROD
		act.Resolution = domain.ResolutionStage
		act.Window = params.ProdWindow(eff)
		act.Geometry = []domain.Point{{X: lon, Y: lat, CRS: domain.CRSGeographic}}
		out = append(out, act)
	}
	return out, rows.Err()
}

// parseTime accepts RFC 3339 timestamps and bare dates.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
