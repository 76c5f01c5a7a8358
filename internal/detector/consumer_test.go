package detector

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/nullteam/toneengine/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toneFrame(ms int, fn func(t float64) float64) []byte {
	n := ms * 8 // samples at 8kHz
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		t := float64(i) / 8000
		v := int16(math.Round(fn(t)))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

func drain(t *testing.T, sink *notify.ChannelSink) []notify.Message {
	t.Helper()
	var out []notify.Message
	for {
		select {
		case m := <-sink.Messages():
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestS1DTMFDigit5(t *testing.T) {
	sink := notify.NewChannelSink(16)
	c := New("chan1", "tone/mono/dtmf", sink, nil)

	frame := toneFrame(200, func(t float64) float64 {
		return 15000 * 0.5 * (math.Sin(2*math.Pi*770*t) + math.Sin(2*math.Pi*1336*t))
	})
	c.Consume(context.Background(), frame)

	msgs := drain(t, sink)
	require.Len(t, msgs, 1)
	assert.Equal(t, "chan.masquerade", msgs[0].Kind)
	assert.Equal(t, "chan.dtmf", msgs[0].Params["message"])
	assert.Equal(t, "5", msgs[0].Params["text"])
	assert.Equal(t, "inband", msgs[0].Params["detected"])
}

func TestS2Silence(t *testing.T) {
	sink := notify.NewChannelSink(16)
	c := New("chan1", "tone/mono/*", sink, nil)

	frame := make([]byte, 1000*8*2) // 1000ms of zeros
	c.Consume(context.Background(), frame)

	assert.Empty(t, drain(t, sink))
}

func TestS3CNGFax(t *testing.T) {
	sink := notify.NewChannelSink(16)
	c := New("chan1", "tone/mono/fax", sink, nil)

	frame := toneFrame(500, func(t float64) float64 {
		return 15000 * math.Sin(2*math.Pi*1100*t)
	})
	c.Consume(context.Background(), frame)

	msgs := drain(t, sink)
	require.Len(t, msgs, 1)
	assert.Equal(t, "call.fax", msgs[0].Params["message"])
	assert.Equal(t, "inband", msgs[0].Params["detected"])
}

func TestS3FaxIsOneShot(t *testing.T) {
	sink := notify.NewChannelSink(16)
	c := New("chan1", "tone/mono/fax", sink, nil)

	frame := toneFrame(500, func(t float64) float64 {
		return 15000 * math.Sin(2*math.Pi*1100*t)
	})
	c.Consume(context.Background(), frame)
	require.Len(t, drain(t, sink), 1)

	// Feed the same fax tone again: no further fax event should fire.
	c.Consume(context.Background(), frame)
	assert.Empty(t, drain(t, sink))
}

func TestExplicitFilterListDisablesUnlistedDefaults(t *testing.T) {
	sink := notify.NewChannelSink(16)
	c := New("chan1", "tone/mono/cotv", sink, nil)

	// CNG fax tone: would fire call.fax if fax detection were still on
	// from the unconditional default, but only cotv was requested.
	frame := toneFrame(500, func(t float64) float64 {
		return 15000 * math.Sin(2*math.Pi*1100*t)
	})
	c.Consume(context.Background(), frame)
	assert.Empty(t, drain(t, sink), "explicit filter-list of cotv alone must not also run fax detection")
}

func TestS4DNIS(t *testing.T) {
	sink := notify.NewChannelSink(16)
	c := New("chan1", "tone/mono/dtmf,callsetup", sink, nil)

	digits := []struct {
		digit  byte
		lo, hi float64
	}{
		{'*', 941, 1209},
		{'1', 697, 1209}, {'2', 697, 1336}, {'3', 697, 1477},
		{'*', 941, 1209},
		{'4', 770, 1209}, {'5', 770, 1336}, {'6', 770, 1477}, {'7', 852, 1209},
		{'*', 941, 1209},
	}

	for _, d := range digits {
		gap := toneFrame(40, func(t float64) float64 { return 0 })
		tone := toneFrame(120, func(t float64) float64 {
			return 15000 * 0.5 * (math.Sin(2*math.Pi*d.lo*t) + math.Sin(2*math.Pi*d.hi*t))
		})
		c.Consume(context.Background(), gap)
		c.Consume(context.Background(), tone)
		c.Consume(context.Background(), gap)
	}

	msgs := drain(t, sink)
	var setup *notify.Message
	for i := range msgs {
		if msgs[i].Kind == "chan.notify" {
			setup = &msgs[i]
		}
	}
	require.NotNil(t, setup, "expected exactly one chan.notify setup event")
	assert.Equal(t, "setup", setup.Params["operation"])
	assert.Equal(t, "123", setup.Params["caller"])
	assert.Equal(t, "4567", setup.Params["called"])
}

func TestDTMFIdempotentPerDwellCycle(t *testing.T) {
	sink := notify.NewChannelSink(16)
	c := New("chan1", "tone/mono/dtmf", sink, nil)

	// 200ms continuous tone: one dwell-reset cycle once emitted, dwell
	// keeps incrementing past 32 checks without re-emitting.
	frame := toneFrame(200, func(t float64) float64 {
		return 15000 * 0.5 * (math.Sin(2*math.Pi*770*t) + math.Sin(2*math.Pi*1336*t))
	})
	c.Consume(context.Background(), frame)
	assert.Len(t, drain(t, sink), 1)
}

func TestFaxDivertTarget(t *testing.T) {
	sink := notify.NewChannelSink(16)
	c := New("chan1", "tone/mono/fax", sink, nil)
	c.SetFaxDivert("ivr-1000", true, "1000", "2000")

	frame := toneFrame(500, func(t float64) float64 {
		return 15000 * math.Sin(2*math.Pi*1100*t)
	})
	c.Consume(context.Background(), frame)

	msgs := drain(t, sink)
	require.Len(t, msgs, 1)
	assert.Equal(t, "call.execute", msgs[0].Params["message"])
	assert.Equal(t, "ivr-1000", msgs[0].Params["callto"])
	assert.Equal(t, "fax", msgs[0].Params["reason"])
	assert.Equal(t, "1000", msgs[0].Params["caller"])
	assert.Equal(t, "2000", msgs[0].Params["called"])
}
