package assoc

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgcseis/wellassoc/internal/domain"
)

var quakeTime = time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openWindow admits quakeTime with a small positive decay offset.
func openWindow() domain.Window {
	return domain.Window{
		Start:      quakeTime.AddDate(0, 0, -5),
		DecayStart: quakeTime.AddDate(0, 0, -5),
		End:        quakeTime.AddDate(0, 0, 30),
	}
}

// Coordinates sit inside the KSMMA envelope; 0.005 degrees of latitude is
// roughly 550 m, inside the 1 km HF radius there.
func testActivities() []domain.Activity {
	return []domain.Activity{
		{
			StageID: 11, WellID: "W1", PadID: "P1", Type: domain.HF,
			Formation: "Lower Middle Montney", Resolution: domain.ResolutionStage,
			Window:   openWindow(),
			Geometry: []domain.Point{{X: -121.30, Y: 56.105, CRS: domain.CRSGeographic}},
		},
		{
			WellID: "D1", PadID: "P2", Type: domain.WD,
			Resolution: domain.ResolutionStage,
			Window:     openWindow(),
			Geometry:   []domain.Point{{X: -121.32, Y: 56.12, CRS: domain.CRSGeographic}},
		},
	}
}

func testQuake(id int64) domain.Earthquake {
	return domain.Earthquake{
		QuakeID:      id,
		Location:     domain.Point{X: -121.30, Y: 56.10, CRS: domain.CRSGeographic},
		Time:         quakeTime,
		Source:       "master_origin_3d",
		StageCapable: true,
	}
}

func TestCandidatesWithinRadiusAndWindow(t *testing.T) {
	g := NewGenerator(testActivities(), domain.AllActivityTypes, domain.DefaultParams(), discardLogger())

	eq := testQuake(1)
	cands, err := g.Candidates(&eq)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	for _, cand := range cands {
		assert.Equal(t, domain.RegionKSMMA, cand.Region)
		assert.Greater(t, cand.DTDays, 0.0)
		switch cand.Activity.Type {
		case domain.HF:
			assert.Less(t, cand.DistanceKm, 1.0)
		case domain.WD:
			assert.Less(t, cand.DistanceKm, 5.0)
		}
	}
}

func TestCandidatesDisabledType(t *testing.T) {
	g := NewGenerator(testActivities(), []domain.ActivityType{domain.WD}, domain.DefaultParams(), discardLogger())

	eq := testQuake(1)
	cands, err := g.Candidates(&eq)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, domain.WD, cands[0].Activity.Type)
}

func TestCandidatesOutsideWindow(t *testing.T) {
	acts := testActivities()
	for i := range acts {
		acts[i].Window.End = quakeTime.AddDate(0, 0, -1)
	}
	g := NewGenerator(acts, domain.AllActivityTypes, domain.DefaultParams(), discardLogger())

	eq := testQuake(1)
	cands, err := g.Candidates(&eq)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestCandidatesBeyondRadius(t *testing.T) {
	acts := testActivities()[:1]
	// 0.02 degrees of latitude is roughly 2.2 km, past the 1 km HF radius.
	acts[0].Geometry = []domain.Point{{X: -121.30, Y: 56.12, CRS: domain.CRSGeographic}}
	g := NewGenerator(acts, domain.AllActivityTypes, domain.DefaultParams(), discardLogger())

	eq := testQuake(1)
	cands, err := g.Candidates(&eq)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestCandidatesQuakeCRSError(t *testing.T) {
	g := NewGenerator(testActivities(), domain.AllActivityTypes, domain.DefaultParams(), discardLogger())

	eq := testQuake(1)
	eq.Location.CRS = "EPSG:999999"
	_, err := g.Candidates(&eq)

	var crsErr *domain.CRSError
	require.ErrorAs(t, err, &crsErr)
}

func TestNewGeneratorSkipsBadActivityCRS(t *testing.T) {
	acts := testActivities()
	acts[0].Geometry[0].CRS = "EPSG:999999"
	g := NewGenerator(acts, domain.AllActivityTypes, domain.DefaultParams(), discardLogger())

	assert.Equal(t, 1, g.SkippedActivities())

	eq := testQuake(1)
	cands, err := g.Candidates(&eq)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, domain.WD, cands[0].Activity.Type)
}

func TestStageWells(t *testing.T) {
	acts := testActivities()
	acts = append(acts, domain.Activity{
		WellID: "W3", PadID: "P1", Type: domain.HF,
		Resolution: domain.ResolutionPresent,
		Window:     openWindow(),
		Geometry:   []domain.Point{{X: -121.31, Y: 56.11, CRS: domain.CRSGeographic}},
	})
	g := NewGenerator(acts, domain.AllActivityTypes, domain.DefaultParams(), discardLogger())

	wells := g.StageWells()
	assert.Equal(t, map[string]struct{}{"W1": {}}, wells)
}
