// Package assoc implements the association engine: candidate generation
// across activity types and the incremental/full batch controller that
// drives scoring, aggregation, and persistence.
package assoc

import (
	"log/slog"

	"github.com/pgcseis/wellassoc/internal/domain"
)

// Candidate is one activity within reach of an earthquake, with the
// geometry already reduced to a planar distance and a decay time offset.
type Candidate struct {
	Activity   *domain.Activity
	Region     domain.Region // the earthquake's region; decides the radius
	DistanceKm float64
	DTDays     float64
}

// preparedActivity caches an activity's normalized geometry so it is
// projected exactly once per run.
type preparedActivity struct {
	act   *domain.Activity
	plane []domain.Point
}

// Generator enumerates candidate activities for one earthquake at a time.
// Only the configured activity types are searched; a disabled type yields no
// candidates no matter how close its activities sit.
type Generator struct {
	byType  map[domain.ActivityType][]preparedActivity
	enabled map[domain.ActivityType]bool
	params  domain.Params
	logger  *slog.Logger

	skipped int
}

// NewGenerator normalizes every activity's geometry up front. Activities
// whose native CRS cannot be resolved are dropped with a warning, per the
// skip-and-continue policy for record-level failures.
func NewGenerator(activities []domain.Activity, enabled []domain.ActivityType, params domain.Params, logger *slog.Logger) *Generator {
	g := &Generator{
		byType:  make(map[domain.ActivityType][]preparedActivity),
		enabled: make(map[domain.ActivityType]bool, len(enabled)),
		params:  params,
		logger:  logger,
	}
	for _, t := range enabled {
		g.enabled[t] = true
	}

	for i := range activities {
		act := &activities[i]
		if !g.enabled[act.Type] {
			continue
		}
		plane, err := normalizePath(act.Geometry)
		if err != nil {
			g.skipped++
			logger.Warn("skipping activity with unresolvable CRS",
				"well_id", act.WellID,
				"stage_id", act.StageID,
				"type", act.Type,
				"error", err,
			)
			continue
		}
		g.byType[act.Type] = append(g.byType[act.Type], preparedActivity{act: act, plane: plane})
	}
	return g
}

// SkippedActivities reports how many activity records were dropped for CRS
// failures while building the generator.
func (g *Generator) SkippedActivities() int { return g.skipped }

// StageWells returns the wells covered by stage-resolution HF data. Their
// stale "present" association rows are purged during incremental runs.
func (g *Generator) StageWells() map[string]struct{} {
	wells := make(map[string]struct{})
	for _, p := range g.byType[domain.HF] {
		if p.act.Resolution == domain.ResolutionStage {
			wells[p.act.WellID] = struct{}{}
		}
	}
	return wells
}

// Candidates returns every enabled activity whose window admits the
// earthquake's origin time and whose geometry lies within the type's
// regional radius. An empty result is the valid "unassociated" outcome.
// A *domain.CRSError means the earthquake itself could not be normalized.
func (g *Generator) Candidates(eq *domain.Earthquake) ([]Candidate, error) {
	loc, err := domain.Normalize(eq.Location)
	if err != nil {
		return nil, err
	}
	region, err := domain.AssignRegion(loc)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, t := range domain.AllActivityTypes {
		radius := g.params.Radius(t, region)
		for _, p := range g.byType[t] {
			if !p.act.Window.Contains(eq.Time) {
				continue
			}
			d := domain.DistanceToPathKm(loc, p.plane)
			if d > radius {
				continue
			}
			out = append(out, Candidate{
				Activity:   p.act,
				Region:     region,
				DistanceKm: d,
				DTDays:     p.act.Window.DTDays(eq.Time),
			})
		}
	}
	return out, nil
}

func normalizePath(path []domain.Point) ([]domain.Point, error) {
	out := make([]domain.Point, len(path))
	for i, p := range path {
		n, err := domain.Normalize(p)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
