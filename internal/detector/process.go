package detector

import "context"

// processSample implements the per-sample work of spec.md 4.5: shift
// the differentiator registers, compute dx, update total power, feed
// every active filter, and run decision checks every 8 samples.
// Caller holds c.mu.
func (c *Consumer) processSample(ctx context.Context, x float64) {
	c.x0, c.x1, c.x2 = c.x1, c.x2, x
	dx := c.x2 - c.x0

	c.totalPower = 0.97*c.totalPower + 0.03*x*x

	if c.faxEnabled && !c.faxDone {
		c.faxFilter.Update(dx)
	}
	if c.cotEnabled && !c.cotDone {
		c.cotFilter.Update(dx)
	}
	if c.dtmfEnabled {
		for i := range c.dtmfLow {
			c.dtmfLow[i].Update(dx)
		}
		for i := range c.dtmfHigh {
			c.dtmfHigh[i].Update(dx)
		}
	}

	c.sampleCount++
	if c.sampleCount < checkCadence {
		return
	}
	c.sampleCount = 0

	if c.totalPower < thresholdAbs {
		c.candidate = 0
		c.dwell = 0
		c.emitted = false
		return
	}

	if c.dtmfEnabled {
		c.checkDTMF(ctx)
	}
	if c.faxEnabled && !c.faxDone {
		c.checkFax(ctx)
	}
	if c.cotEnabled && !c.cotDone {
		c.checkCont(ctx)
	}
}
