package detector

import (
	"context"

	"github.com/nullteam/toneengine/internal/filter"
	"github.com/nullteam/toneengine/internal/notify"
)

// checkDTMF implements the DTMF decision of spec.md 4.5: pick the
// strongest low/high band, apply the relative-energy gate (relaxed
// by a hysteresis factor once a candidate is already dwelling), map
// to a digit, and emit once dwell reaches detectDTMFChecks. Caller
// holds c.mu.
func (c *Consumer) checkDTMF(ctx context.Context) {
	lowIdx, lowPower := maxPower(c.dtmfLow[:])
	highIdx, highPower := maxPower(c.dtmfHigh[:])

	limitAll := c.totalPower * thresholdRelAll
	limitOne := limitAll * thresholdRelDTMF
	if c.dwell > 0 {
		limitAll *= thresholdRelHist
		limitOne *= thresholdRelHist
	}

	if lowPower < limitOne || highPower < limitOne || lowPower+highPower < limitAll {
		c.candidate = 0
		c.dwell = 0
		c.emitted = false
		return
	}

	digit := filter.DTMFDigits[lowIdx][highIdx]
	if digit != c.candidate {
		c.candidate = digit
		c.dwell = 1
		c.emitted = false
		return
	}

	c.dwell++
	if c.dwell == detectDTMFChecks && !c.emitted {
		c.emitted = true
		if c.metrics != nil {
			c.metrics.RecordDTMFDigit(string(digit))
		}
		if c.dnisEnabled {
			c.handleDNIS(ctx, digit)
		} else {
			c.sink.Notify(ctx, notify.DTMF(c.id, string(digit)))
		}
	}
}

// checkFax implements the fax decision of spec.md 4.5: the upper
// bound guards against overshoot from startup transients, resetting
// all filter state without emitting on overshoot. Caller holds c.mu.
func (c *Consumer) checkFax(ctx context.Context) {
	power := c.faxFilter.Power
	limit := c.totalPower * thresholdRelFax

	if power > c.totalPower {
		c.resetAllFilters()
		if c.metrics != nil {
			c.metrics.RecordFilterOvershootReset()
		}
		return
	}
	if power < limit {
		return
	}

	c.faxDone = true
	if c.metrics != nil {
		c.metrics.RecordFaxEvent()
	}
	caller, called := c.faxCallerOvr, c.faxCalledOvr
	c.sink.Notify(ctx, notify.Fax(c.id, caller, called, c.faxDivertTo))
}

// checkCont implements the continuity decision: identical structure
// to checkFax at threshold 0.90, emitting a pseudo-DTMF 'O'. Caller
// holds c.mu.
func (c *Consumer) checkCont(ctx context.Context) {
	power := c.cotFilter.Power
	limit := c.totalPower * thresholdRelCOT

	if power > c.totalPower {
		c.resetAllFilters()
		if c.metrics != nil {
			c.metrics.RecordFilterOvershootReset()
		}
		return
	}
	if power < limit {
		return
	}

	c.cotDone = true
	if c.metrics != nil {
		c.metrics.RecordContinuityEvent()
	}
	c.sink.Notify(ctx, notify.Continuity(c.id))
}

// resetAllFilters clears every active filter's register history and
// power estimate, used on overshoot detection.
func (c *Consumer) resetAllFilters() {
	c.faxFilter.Reset()
	c.cotFilter.Reset()
	for _, f := range c.dtmfLow {
		f.Reset()
	}
	for _, f := range c.dtmfHigh {
		f.Reset()
	}
}

func maxPower(filters []*filter.Filter) (int, float64) {
	idx, best := 0, filters[0].Power
	for i := 1; i < len(filters); i++ {
		if filters[i].Power > best {
			idx, best = i, filters[i].Power
		}
	}
	return idx, best
}
