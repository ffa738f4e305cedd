package domain

import "time"

// ActivityType identifies the kind of well operation a record describes.
type ActivityType string

const (
	HF   ActivityType = "HF"   // hydraulic fracturing
	WD   ActivityType = "WD"   // water disposal
	PROD ActivityType = "PROD" // production
)

// AllActivityTypes lists every scoreable type in canonical order.
var AllActivityTypes = []ActivityType{HF, WD, PROD}

// Resolution distinguishes precise stage-level geometry from coarser
// well-trajectory ("present") geometry.
type Resolution string

const (
	ResolutionStage   Resolution = "stage"
	ResolutionPresent Resolution = "present"
)

// Earthquake is one catalog hypocenter. Immutable once read.
type Earthquake struct {
	QuakeID   int64
	Location  Point // native CRS as read from the catalog
	DepthKm   float64
	Magnitude float64
	Time      time.Time // origin time in catalog-local time
	Source    string    // origin table the record came from

	// StageCapable marks hypocenters precise enough for stage-level
	// interpretation (relocated origin tables).
	StageCapable bool
}

// Activity is one well operation record: a frac stage, a disposal month, or
// a producing well. Geometry is a single point or, for "present" resolution
// HF records, the well trajectory as a polyline.
type Activity struct {
	StageID    int64 // 0 when the record has no stage granularity
	WellID     string
	PadID      string
	Type       ActivityType
	Formation  string
	Window     Window  // active interval and decay origin
	Geometry   []Point // native CRS; len 1 = point, len >= 2 = trajectory
	Resolution Resolution
}

// AssociationLink is one scored earthquake–activity pair, shaped like a row
// of the association table.
type AssociationLink struct {
	QuakeID    int64
	StageID    int64
	WellID     string
	PadID      string
	Type       ActivityType
	DistanceKm float64
	DTDays     float64
	Score      float64
	PStage     float64
	Region     Region
	Resolution Resolution
}

// Classification is the per-earthquake summary row: the argmax pick at each
// aggregation level plus supporting counts.
type Classification struct {
	QuakeID       int64
	BestStage     int64
	BestStageProb float64
	BestWell      string
	BestWellType  ActivityType
	BestWellProb  float64
	BestPad       string
	BestPadProb   float64

	// Distance and time offset of the best stage pick.
	BestDistanceKm float64
	BestDTDays     float64

	// Distinct wells linked to this quake, by type.
	HFWells   int
	WDWells   int
	ProdWells int

	// Distinct wells contributing to the winning pad.
	PadWells int
}
