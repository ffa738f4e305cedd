package domain

import "time"

// Window is an activity's active interval plus the instant the time-decay
// clock starts. An open-ended interval has End far in the future rather than
// zero so interval checks stay uniform.
type Window struct {
	Start      time.Time
	DecayStart time.Time
	End        time.Time
}

// HFStageWindow builds the window for one frac stage. Stages reported with a
// full timestamp start (almost) immediately; date-only reports are lagged a
// day to avoid associating quakes that preceded the actual treatment.
func (p Params) HFStageWindow(reported time.Time, dateOnly bool) Window {
	lag := p.HFLagDateTime
	if dateOnly {
		lag = p.HFLagDateOnly
	}
	start := reported.Add(lag)
	return Window{
		Start:      start,
		DecayStart: start,
		End:        start.AddDate(0, 0, p.HFTmaxDays),
	}
}

// HFPresentWindow builds the window for a well-trajectory ("present") HF
// record from the operation's expected date range. The decay clock starts at
// the expected end, when all stages have been placed.
func (p Params) HFPresentWindow(expectedStart, expectedEnd time.Time) Window {
	return Window{
		Start:      expectedStart,
		DecayStart: expectedEnd,
		End:        expectedEnd.AddDate(0, 0, p.HFTmaxDays),
	}
}

// WDWindow builds the window for one disposal month. Injection volumes are
// reported monthly, so the interval opens at the start of the month and the
// decay clock is delayed by WDDelayMonths.
func (p Params) WDWindow(yearMonth time.Time) Window {
	start := time.Date(yearMonth.Year(), yearMonth.Month(), 1, 0, 0, 0, 0, yearMonth.Location())
	return Window{
		Start:      start,
		DecayStart: start.AddDate(0, p.WDDelayMonths, 0),
		End:        start.AddDate(0, 0, p.WDTmaxDays),
	}
}

// ProdWindow builds the open-ended window for a producing well, from its
// status effective date up to the current clock time.
func (p Params) ProdWindow(statusEffective time.Time) Window {
	return Window{
		Start:      statusEffective,
		DecayStart: statusEffective,
		End:        clock.Now(),
	}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DTDays returns the time offset from the decay start in fractional days,
// clipped at zero for quakes that precede it.
func (w Window) DTDays(t time.Time) float64 {
	dt := t.Sub(w.DecayStart).Hours() / 24.0
	if dt < 0 {
		return 0
	}
	return dt
}
