package domain

import "sort"

// ProbEpsilon is the numerical tolerance on per-quake probability sums.
const ProbEpsilon = 1e-9

// NormalizeStageProbs sets PStage on every link of one earthquake so the
// stage-level probabilities sum to one. Returns false when the raw scores
// sum to zero, in which case the quake is unassociated and no link should
// be persisted.
func NormalizeStageProbs(links []AssociationLink) bool {
	var total float64
	for i := range links {
		total += links[i].Score
	}
	if total <= 0 {
		return false
	}
	for i := range links {
		links[i].PStage = links[i].Score / total
	}
	return true
}

type levelProb struct {
	id     string
	typ    ActivityType
	prob   float64
	distKm float64 // smallest member distance, used for tie-breaks
}

// Classify collapses one earthquake's stage probabilities to well and pad
// level, re-normalizes each level independently, and picks the argmax at
// every level. The three picks are independent: the best pad need not
// contain the best well. Ties break on smaller distance, then smaller id,
// so repeated runs over the same data classify identically.
//
// Links must already carry PStage (see NormalizeStageProbs). ok is false
// when there is nothing to classify.
func Classify(quakeID int64, links []AssociationLink) (c Classification, ok bool) {
	if len(links) == 0 {
		return Classification{}, false
	}

	best := bestLink(links)
	c = Classification{
		QuakeID:        quakeID,
		BestStage:      best.StageID,
		BestStageProb:  best.PStage,
		BestDistanceKm: best.DistanceKm,
		BestDTDays:     best.DTDays,
	}

	wells := collapse(links, func(l AssociationLink) (string, ActivityType) { return l.WellID, l.Type })
	if w, ok := argmax(wells); ok {
		c.BestWell = w.id
		c.BestWellType = w.typ
		c.BestWellProb = w.prob
	}

	pads := collapse(links, func(l AssociationLink) (string, ActivityType) { return l.PadID, "" })
	if p, ok := argmax(pads); ok {
		c.BestPad = p.id
		c.BestPadProb = p.prob
	}

	c.HFWells, c.WDWells, c.ProdWells = countWellsByType(links)
	c.PadWells = countPadWells(links, c.BestPad)
	return c, true
}

// bestLink is the argmax over PStage with distance-then-id tie-breaking.
func bestLink(links []AssociationLink) AssociationLink {
	best := links[0]
	for _, l := range links[1:] {
		if linkLess(best, l) {
			best = l
		}
	}
	return best
}

func linkLess(a, b AssociationLink) bool {
	if b.PStage != a.PStage {
		return b.PStage > a.PStage
	}
	if b.DistanceKm != a.DistanceKm {
		return b.DistanceKm < a.DistanceKm
	}
	return b.StageID < a.StageID
}

// collapse sums PStage by group key and re-normalizes the sums to one.
// Wells are keyed by (well id, type) so a well that both fracs and disposes
// yields one entry per role, matching the classified table's best_well_type
// column; pads pass an empty type. The re-normalization is independent of
// the stage-level denominator: with every link in exactly one group it is
// the identity, but it keeps the level's distribution exact when upstream
// rounding accumulates.
func collapse(links []AssociationLink, key func(AssociationLink) (string, ActivityType)) []levelProb {
	type groupKey struct {
		id  string
		typ ActivityType
	}
	groups := make(map[groupKey]*levelProb)
	order := make([]groupKey, 0, 4)
	var total float64
	for _, l := range links {
		id, typ := key(l)
		k := groupKey{id: id, typ: typ}
		g, seen := groups[k]
		if !seen {
			g = &levelProb{id: id, typ: typ, distKm: l.DistanceKm}
			groups[k] = g
			order = append(order, k)
		}
		g.prob += l.PStage
		if l.DistanceKm < g.distKm {
			g.distKm = l.DistanceKm
		}
		total += l.PStage
	}
	if total <= 0 {
		return nil
	}

	out := make([]levelProb, 0, len(order))
	for _, k := range order {
		g := groups[k]
		out = append(out, levelProb{id: g.id, typ: g.typ, prob: g.prob / total, distKm: g.distKm})
	}
	return out
}

// argmax picks the highest-probability group, breaking ties on smaller
// distance, then ascending id.
func argmax(probs []levelProb) (levelProb, bool) {
	if len(probs) == 0 {
		return levelProb{}, false
	}
	sort.Slice(probs, func(i, j int) bool {
		if probs[i].prob != probs[j].prob {
			return probs[i].prob > probs[j].prob
		}
		if probs[i].distKm != probs[j].distKm {
			return probs[i].distKm < probs[j].distKm
		}
		return probs[i].id < probs[j].id
	})
	return probs[0], true
}

func countWellsByType(links []AssociationLink) (hf, wd, prod int) {
	type wellKey struct {
		wellID string
		typ    ActivityType
	}
	seen := make(map[wellKey]struct{})
	for _, l := range links {
		k := wellKey{wellID: l.WellID, typ: l.Type}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		switch l.Type {
		case HF:
			hf++
		case WD:
			wd++
		case PROD:
			prod++
		}
	}
	return hf, wd, prod
}

func countPadWells(links []AssociationLink, padID string) int {
	seen := make(map[string]struct{})
	for _, l := range links {
		if l.PadID != padID {
			continue
		}
		seen[l.WellID] = struct{}{}
	}
	return len(seen)
}

// WellProbs and PadProbs expose the collapsed distributions for invariant
// checks and reporting; production classification goes through Classify.
func WellProbs(links []AssociationLink) map[string]float64 {
	return probMap(collapse(links, func(l AssociationLink) (string, ActivityType) { return l.WellID, l.Type }))
}

// PadProbs returns the pad-level distribution for one earthquake's links.
func PadProbs(links []AssociationLink) map[string]float64 {
	return probMap(collapse(links, func(l AssociationLink) (string, ActivityType) { return l.PadID, "" }))
}

func probMap(probs []levelProb) map[string]float64 {
	m := make(map[string]float64, len(probs))
	for _, p := range probs {
		m[p.id] += p.prob
	}
	return m
}
