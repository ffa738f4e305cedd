package domain

import (
	"fmt"
	"math"
)

// CRS tags a coordinate pair with its reference system.
type CRS string

const (
	// CRSGeographic is WGS-84 latitude/longitude in degrees.
	CRSGeographic CRS = "EPSG:4326"
	// CRSPlane is NAD83 / UTM zone 10N in meters, the working plane for all
	// distance arithmetic in this module.
	CRSPlane CRS = "EPSG:26910"
)

// Point is a coordinate pair tagged with its CRS. Geographic points carry
// X=longitude, Y=latitude in degrees; plane points carry easting/northing
// in meters.
type Point struct {
	X, Y float64
	CRS  CRS
}

// CRSError reports a location whose coordinate system cannot be resolved to
// the working plane. The affected record is skipped; the run continues.
type CRSError struct {
	Tag CRS
}

func (e *CRSError) Error() string {
	if e.Tag == "" {
		return "crs: missing coordinate system tag"
	}
	return fmt.Sprintf("crs: unknown coordinate system %q", e.Tag)
}

// GRS80 ellipsoid and UTM zone 10N projection constants.
const (
	semiMajorM      = 6378137.0
	flattening      = 1.0 / 298.257222101
	scaleFactor     = 0.9996
	centralMeridian = -123.0 // zone 10N
	falseEastingM   = 500000.0
)

// Normalize converts a point into the working plane (EPSG:26910).
// Already-normalized points are returned unchanged, so the conversion is
// idempotent. Unknown tags yield a *CRSError.
func Normalize(p Point) (Point, error) {
	switch p.CRS {
	case CRSPlane:
		return p, nil
	case CRSGeographic:
		x, y := projectUTM(p.Y, p.X)
		return Point{X: x, Y: y, CRS: CRSPlane}, nil
	default:
		return Point{}, &CRSError{Tag: p.CRS}
	}
}

// projectUTM is the forward transverse Mercator projection onto UTM zone
// 10N over the GRS80 ellipsoid (Snyder 1987, eqs. 8-9..8-13). Sub-meter
// accurate within the zone, which is far below the kilometer-scale search
// radii used for association.
func projectUTM(latDeg, lonDeg float64) (easting, northing float64) {
	const d2r = math.Pi / 180.0

	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	phi := latDeg * d2r
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	tanPhi := sinPhi / cosPhi

	n := semiMajorM / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := (lonDeg - centralMeridian) * d2r * cosPhi

	e4 := e2 * e2
	e6 := e4 * e2
	m := semiMajorM * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	easting = falseEastingM + scaleFactor*n*(a+
		(1-t+c)*a3/6+
		(5-18*t+t*t+72*c-58*ep2)*a5/120)
	northing = scaleFactor * (m + n*tanPhi*(a2/2+
		(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))
	return easting, northing
}

// inverseUTM is the inverse transverse Mercator projection from UTM zone
// 10N back to geographic degrees (Snyder 1987, eqs. 8-17..8-25 with the
// footpoint-latitude series 3-26). Round-trips with projectUTM to well
// under a centimeter.
func inverseUTM(easting, northing float64) (latDeg, lonDeg float64) {
	const r2d = 180.0 / math.Pi

	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)
	e4 := e2 * e2
	e6 := e4 * e2
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	mu := northing / scaleFactor / (semiMajorM * (1 - e2/4 - 3*e4/64 - 5*e6/256))
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1 := math.Sin(phi1), math.Cos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1
	t1 := tanPhi1 * tanPhi1
	c1 := ep2 * cosPhi1 * cosPhi1
	n1 := semiMajorM / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := semiMajorM * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := (easting - falseEastingM) / (n1 * scaleFactor)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - n1*tanPhi1/r1*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)
	lambda := (d -
		(1+2*t1+c1)*d3/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120) / cosPhi1

	return phi * r2d, centralMeridian + lambda*r2d
}

// DistanceKm returns the planar distance between two normalized points in
// kilometers. Both points must already be on the working plane.
func DistanceKm(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Hypot(dx, dy) / 1000.0
}

// DistanceToPathKm returns the minimum planar distance in kilometers from a
// normalized point to a normalized polyline. A single-point path degenerates
// to point distance.
func DistanceToPathKm(p Point, path []Point) float64 {
	if len(path) == 1 {
		return DistanceKm(p, path[0])
	}
	best := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		if d := distanceToSegmentKm(p, path[i], path[i+1]); d < best {
			best = d
		}
	}
	return best
}

func distanceToSegmentKm(p, a, b Point) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y
	den := abx*abx + aby*aby
	if den == 0 {
		return DistanceKm(p, a)
	}
	u := (apx*abx + apy*aby) / den
	u = math.Max(0, math.Min(1, u))
	closest := Point{X: a.X + u*abx, Y: a.Y + u*aby, CRS: CRSPlane}
	return DistanceKm(p, closest)
}
