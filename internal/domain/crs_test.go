package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("geographic point projects onto the plane", func(t *testing.T) {
		p, err := Normalize(Point{X: -121.30, Y: 56.10, CRS: CRSGeographic})
		require.NoError(t, err)
		assert.Equal(t, CRSPlane, p.CRS)
		// Zone 10N, about 1.7° east of the central meridian at 56°N.
		assert.InDelta(t, 605_500, p.X, 2_000)
		assert.InDelta(t, 6_218_500, p.Y, 2_000)
	})

	t.Run("idempotent on plane points", func(t *testing.T) {
		once, err := Normalize(Point{X: -121.30, Y: 56.10, CRS: CRSGeographic})
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.InDelta(t, once.X, twice.X, 1e-9)
		assert.InDelta(t, once.Y, twice.Y, 1e-9)
		assert.Equal(t, CRSPlane, twice.CRS)
	})

	t.Run("inverse projection round-trips", func(t *testing.T) {
		x, y := projectUTM(56.10, -121.30)
		lat, lon := inverseUTM(x, y)
		assert.InDelta(t, 56.10, lat, 1e-7)
		assert.InDelta(t, -121.30, lon, 1e-7)
	})

	t.Run("unknown tag fails with CRSError", func(t *testing.T) {
		_, err := Normalize(Point{X: 1, Y: 2, CRS: "EPSG:3857"})
		var cerr *CRSError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, CRS("EPSG:3857"), cerr.Tag)
	})

	t.Run("missing tag fails with CRSError", func(t *testing.T) {
		_, err := Normalize(Point{X: 1, Y: 2})
		var cerr *CRSError
		assert.True(t, errors.As(err, &cerr))
	})
}

func TestDistanceKm(t *testing.T) {
	a := Point{X: 605_000, Y: 6_218_000, CRS: CRSPlane}
	b := Point{X: 608_000, Y: 6_222_000, CRS: CRSPlane}
	assert.InDelta(t, 5.0, DistanceKm(a, b), 1e-9)

	t.Run("one degree of latitude is ~111 km", func(t *testing.T) {
		p, err := Normalize(Point{X: -121.3, Y: 56.0, CRS: CRSGeographic})
		require.NoError(t, err)
		q, err := Normalize(Point{X: -121.3, Y: 57.0, CRS: CRSGeographic})
		require.NoError(t, err)
		assert.InDelta(t, 111.4, DistanceKm(p, q), 0.5)
	})
}

func TestDistanceToPathKm(t *testing.T) {
	path := []Point{
		{X: 0, Y: 0, CRS: CRSPlane},
		{X: 10_000, Y: 0, CRS: CRSPlane},
	}

	t.Run("perpendicular foot inside segment", func(t *testing.T) {
		d := DistanceToPathKm(Point{X: 5_000, Y: 3_000, CRS: CRSPlane}, path)
		assert.InDelta(t, 3.0, d, 1e-9)
	})

	t.Run("clamps to nearest endpoint", func(t *testing.T) {
		d := DistanceToPathKm(Point{X: 14_000, Y: 3_000, CRS: CRSPlane}, path)
		assert.InDelta(t, 5.0, d, 1e-9)
	})

	t.Run("single point path", func(t *testing.T) {
		d := DistanceToPathKm(Point{X: 3_000, Y: 4_000, CRS: CRSPlane}, path[:1])
		assert.InDelta(t, 5.0, d, 1e-9)
	})

	t.Run("degenerate zero-length segment", func(t *testing.T) {
		dup := []Point{path[0], path[0]}
		d := DistanceToPathKm(Point{X: 3_000, Y: 4_000, CRS: CRSPlane}, dup)
		assert.InDelta(t, 5.0, d, 1e-9)
	})
}

func TestAssignRegion(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want Region
	}{
		{"inside KSMMA box", Point{X: -121.3, Y: 56.1, CRS: CRSGeographic}, RegionKSMMA},
		{"north of KSMMA", Point{X: -121.3, Y: 56.5, CRS: CRSGeographic}, RegionNorthern},
		{"west of KSMMA", Point{X: -122.5, Y: 56.1, CRS: CRSGeographic}, RegionNorthern},
		// Near the box's east edge meridian convergence pushes the plane
		// image ~150 m past a corner-projected rectangle; membership must
		// still follow the degree box.
		{"near east edge", Point{X: -121.01, Y: 56.01, CRS: CRSGeographic}, RegionKSMMA},
		{"just past east edge", Point{X: -120.99, Y: 56.01, CRS: CRSGeographic}, RegionNorthern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AssignRegion(tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("already normalized points resolve the same", func(t *testing.T) {
		for _, geo := range []Point{
			{X: -121.3, Y: 56.1, CRS: CRSGeographic},
			{X: -121.01, Y: 56.01, CRS: CRSGeographic},
			{X: -121.59, Y: 56.24, CRS: CRSGeographic},
		} {
			plane, err := Normalize(geo)
			require.NoError(t, err)
			r1, err := AssignRegion(geo)
			require.NoError(t, err)
			r2, err := AssignRegion(plane)
			require.NoError(t, err)
			assert.Equal(t, r1, r2, "geo %+v", geo)
		}
	})

	t.Run("unknown CRS propagates", func(t *testing.T) {
		_, err := AssignRegion(Point{X: 1, Y: 2, CRS: "grid-local"})
		var cerr *CRSError
		assert.ErrorAs(t, err, &cerr)
	})
}
