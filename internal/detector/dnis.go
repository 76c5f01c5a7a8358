package detector

import (
	"context"
	"regexp"

	"github.com/nullteam/toneengine/internal/notify"
)

// dnisPattern matches a completed "*caller*called*" DNIS sequence.
var dnisPattern = regexp.MustCompile(`^\*([0-9#]*)\*([0-9#]*)\*$`)

// handleDNIS appends digit to the DNIS accumulator and, once it forms
// a complete "*caller*called*" sequence, emits the chan.notify setup
// event and disables DNIS mode. Otherwise it emits the ordinary
// chan.dtmf event for digit. Caller holds c.mu.
func (c *Consumer) handleDNIS(ctx context.Context, digit byte) {
	c.dnisAccum.WriteByte(digit)
	accum := c.dnisAccum.String()

	if m := dnisPattern.FindStringSubmatch(accum); m != nil {
		c.dnisEnabled = false
		if c.metrics != nil {
			c.metrics.RecordDNISCompletion()
		}
		c.sink.Notify(ctx, notify.DNIS(c.id, c.id, m[1], m[2]))
		return
	}
	c.sink.Notify(ctx, notify.DTMF(c.id, string(digit)))
}
