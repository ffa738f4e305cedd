// Package domain models earthquake ↔ well-activity association for the
// Montney play in northeast British Columbia.
//
// # Data Source
//
// Earthquake hypocenters come from the regional catalog database, which
// carries two origin tables of differing location quality: a relocated
// high-precision table suitable for stage-level association, and the routine
// catalog with coarser locations. Well activity records (hydraulic-fracture
// stages, water-disposal monthlies, production statuses) originate from the
// provincial regulator's submission data.
//
// # Coordinate Conventions
//
// Native locations arrive either as geographic WGS-84 latitude/longitude
// (EPSG:4326) or already projected onto the working plane, NAD83 / UTM zone
// 10N (EPSG:26910, meters). All distance arithmetic happens on the plane;
// [Normalize] is the single conversion point and is idempotent, so a value
// may be normalized again at any layer without drift. Unknown tags
// produce a [CRSError] and the affected record is skipped, never guessed.
//
// # Regions
//
// Two operational regions with different monitoring densities:
//
//	KSMMA:            the Kiskatinaw Seismic Monitoring and Mitigation Area,
//	                  a small box with dense station coverage and tight
//	                  search radii.
//	Northern Montney: everything else, with looser radii.
//
// Region membership decides the per-type search radius and the distance
// sigma of the scoring kernel.
//
// # Activity Types and Windows
//
//	HF:   hydraulic-fracture stages. Precise stage points where reported
//	      ("stage" resolution); otherwise the well trajectory as a polyline
//	      with the operation's expected date range ("present" resolution).
//	      Stage times reported date-only are lagged one day before the
//	      decay clock starts.
//	WD:   water disposal, reported monthly. The decay clock starts one
//	      month after the injection month opens.
//	PROD: producing wells. Open-ended window from the status effective
//	      date; only wells active on or after the 2010 cutoff count.
//
// # Scoring
//
//	score = w_type [× w_formation for HF] × f_d(distance) × f_t(Δt)
//
// In detailed mode f_d is a Gaussian with sigma = radius/2.45 and f_t an
// exponential decay with tau = Tmax/2.45, both zero-bounded by the candidate
// search itself; simple mode sets both factors to 1 so the score reduces to
// the type weight. Per-quake scores are normalized into P_stage, then
// collapsed and independently re-normalized at well and pad level. A quake
// with no candidate in any enabled type is unassociated: it produces no
// link rows and no classification row, which is distinct from carrying
// zero probability.
package domain
