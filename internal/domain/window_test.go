package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestHFStageWindow(t *testing.T) {
	params := DefaultParams()
	reported := time.Date(2023, time.January, 10, 14, 30, 0, 0, time.UTC)

	t.Run("timestamped report starts immediately", func(t *testing.T) {
		w := params.HFStageWindow(reported, false)
		assert.Equal(t, reported, w.Start)
		assert.Equal(t, reported, w.DecayStart)
		assert.Equal(t, reported.AddDate(0, 0, 744), w.End)
	})

	t.Run("date-only report lags a day", func(t *testing.T) {
		day := time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
		w := params.HFStageWindow(day, true)
		assert.Equal(t, day.Add(24*time.Hour), w.Start)
		assert.Equal(t, w.Start, w.DecayStart)
	})
}

func TestWDWindow(t *testing.T) {
	params := DefaultParams()
	w := params.WDWindow(time.Date(2022, time.December, 17, 9, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2022, time.December, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), w.DecayStart)
	assert.Equal(t, w.Start.AddDate(0, 0, 365), w.End)
}

func TestProdWindow(t *testing.T) {
	frozen := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	params := DefaultParams()
	eff := time.Date(2015, time.March, 3, 0, 0, 0, 0, time.UTC)
	w := params.ProdWindow(eff)

	assert.Equal(t, eff, w.Start)
	assert.Equal(t, eff, w.DecayStart)
	assert.Equal(t, frozen, w.End)

	t.Run("open window admits quakes years after start", func(t *testing.T) {
		assert.True(t, w.Contains(time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)))
		assert.False(t, w.Contains(eff.AddDate(0, 0, -1)))
	})
}

func TestWindowDTDays(t *testing.T) {
	w := Window{
		Start:      time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC),
		DecayStart: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC),
	}

	assert.InDelta(t, 14.5, w.DTDays(w.DecayStart.Add(14*24*time.Hour+12*time.Hour)), 1e-9)
	assert.Zero(t, w.DTDays(w.DecayStart))

	t.Run("clipped at zero before the decay start", func(t *testing.T) {
		assert.Zero(t, w.DTDays(w.DecayStart.Add(-48*time.Hour)))
	})
}
