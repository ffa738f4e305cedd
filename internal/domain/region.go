package domain

import "time"

// Region names one of the two monitoring regions.
type Region string

const (
	RegionKSMMA    Region = "KSMMA"
	RegionNorthern Region = "Northern Montney"
)

// KSMMA envelope in geographic degrees: lon -121.6..-121.0, lat 56.0..56.25.
// Membership is defined in degree space; a projected rectangle is not an
// acceptable stand-in because meridian convergence skews the plane image of
// the box by hundreds of meters near its east and west edges.
const (
	ksmmaMinLon, ksmmaMaxLon = -121.6, -121.0
	ksmmaMinLat, ksmmaMaxLat = 56.0, 56.25
)

// AssignRegion resolves a point to its monitoring region. Geographic points
// are tested against the degree box directly; plane points are inverse
// projected first.
func AssignRegion(p Point) (Region, error) {
	var lat, lon float64
	switch p.CRS {
	case CRSGeographic:
		lon, lat = p.X, p.Y
	case CRSPlane:
		lat, lon = inverseUTM(p.X, p.Y)
	default:
		return "", &CRSError{Tag: p.CRS}
	}
	if lon >= ksmmaMinLon && lon <= ksmmaMaxLon &&
		lat >= ksmmaMinLat && lat <= ksmmaMaxLat {
		return RegionKSMMA, nil
	}
	return RegionNorthern, nil
}

// Params holds the tunable association constants: search radii, scoring
// weights, and time-window lengths. Zero values are not meaningful; start
// from DefaultParams and override.
type Params struct {
	// RadiusKm is the candidate search radius per type and region.
	RadiusKm map[ActivityType]map[Region]float64

	// Weights is the base score weight per type. HF scores are further
	// multiplied by a formation weight.
	Weights          map[ActivityType]float64
	FormationWeights map[string]float64
	// FormationDefault applies to formations without an explicit weight.
	FormationDefault float64

	// HF stage windows: date-only stage reports are lagged a full day
	// before the decay clock starts; timestamped reports are not.
	HFLagDateOnly time.Duration
	HFLagDateTime time.Duration
	HFTmaxDays    int

	// WD monthly windows.
	WDDelayMonths int
	WDTmaxDays    int

	// PROD windows are open-ended; Tmax only sets the decay time constant.
	ProdTmaxDays int
	// ProdCutoff excludes wells whose production status predates it.
	ProdCutoff time.Time
}

// DefaultParams returns the calibrated defaults for the Montney play.
func DefaultParams() Params {
	return Params{
		RadiusKm: map[ActivityType]map[Region]float64{
			HF:   {RegionKSMMA: 1.0, RegionNorthern: 3.0},
			WD:   {RegionKSMMA: 5.0, RegionNorthern: 10.0},
			PROD: {RegionKSMMA: 1.0, RegionNorthern: 3.0},
		},
		Weights: map[ActivityType]float64{
			HF:   0.9,
			WD:   0.1,
			PROD: 0.05,
		},
		FormationWeights: map[string]float64{
			"Lower Middle Montney": 0.8,
		},
		FormationDefault: 0.2,

		HFLagDateOnly: 24 * time.Hour,
		HFLagDateTime: 0,
		HFTmaxDays:    744,

		WDDelayMonths: 1,
		WDTmaxDays:    365,

		ProdTmaxDays: 365 * 2,
		ProdCutoff:   time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Radius returns the search radius for a type in a region.
func (p Params) Radius(t ActivityType, r Region) float64 {
	return p.RadiusKm[t][r]
}

// FormationWeight returns the HF formation multiplier.
func (p Params) FormationWeight(formation string) float64 {
	if w, ok := p.FormationWeights[formation]; ok {
		return w
	}
	return p.FormationDefault
}

// TmaxDays returns the decay window length for a type.
func (p Params) TmaxDays(t ActivityType) int {
	switch t {
	case HF:
		return p.HFTmaxDays
	case WD:
		return p.WDTmaxDays
	default:
		return p.ProdTmaxDays
	}
}
