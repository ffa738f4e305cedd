package domain

import "math"

// AssocMode selects the scoring kernel shape.
type AssocMode string

const (
	// ModeSimple scores every candidate with the bare type weight, useful
	// for audits where only candidate membership matters.
	ModeSimple AssocMode = "simple"
	// ModeDetailed applies the distance and time decay factors.
	ModeDetailed AssocMode = "detailed"
)

// kernelShape converts the search radius (km) or window length (days) into
// the decay constant of the matching kernel: 2.45 sigma of a Gaussian, or
// 2.45 tau of an exponential, covers ~95% of the mass inside the cutoff.
const kernelShape = 2.45

// Kernel turns (distance, time offset) pairs into raw scores. It is pure:
// given its mode and parameters, the same inputs always produce the same
// score.
type Kernel struct {
	Mode   AssocMode
	Params Params
}

// Score computes the raw score for one candidate link. Candidates outside
// the type's search radius score zero; time-window membership is enforced by
// the candidate search, which never emits a quake outside an activity's
// window (PROD windows are open-ended, so no fixed dt cutoff exists).
func (k Kernel) Score(a *Activity, region Region, distanceKm, dtDays float64) float64 {
	radius := k.Params.Radius(a.Type, region)
	if distanceKm > radius || dtDays < 0 {
		return 0
	}

	w := k.Params.Weights[a.Type]
	if a.Type == HF {
		w *= k.Params.FormationWeight(a.Formation)
	}
	if k.Mode != ModeDetailed {
		return w
	}

	sigma := radius / kernelShape
	tau := float64(k.Params.TmaxDays(a.Type)) / kernelShape
	return w * gaussianDistance(distanceKm, sigma) * expDecay(dtDays, tau)
}

// gaussianDistance is exp(-d² / 2σ²).
func gaussianDistance(dKm, sigmaKm float64) float64 {
	if sigmaKm <= 0 {
		return 0
	}
	return math.Exp(-(dKm * dKm) / (2 * sigmaKm * sigmaKm))
}

// expDecay is e^(-dt/τ) with dt ≥ 0.
func expDecay(dtDays, tauDays float64) float64 {
	if dtDays == 0 {
		return 1
	}
	return math.Exp(-dtDays / tauDays)
}
