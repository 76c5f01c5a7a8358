package detector

import (
	"context"
	"encoding/binary"
	"log/slog"
	"strings"
	"sync"

	"github.com/nullteam/toneengine/internal/filter"
	"github.com/nullteam/toneengine/internal/metrics"
	"github.com/nullteam/toneengine/internal/notify"
)

// ChannelMode selects how a Consumer extracts a mono sample stream
// from incoming frames.
type ChannelMode int

const (
	Mono  ChannelMode = iota
	Left              // odd (1-based) samples: the first of each stereo pair
	Right             // even (1-based) samples: the second of each stereo pair
	Mixed             // sum of each stereo pair
)

// Detection thresholds, squared-energy comparisons (spec.md 4.5).
const (
	thresholdAbs     = 1e6
	thresholdRelFax  = 0.95
	thresholdRelCOT  = 0.90
	thresholdRelAll  = 0.60
	thresholdRelDTMF = 0.33
	thresholdRelHist = 0.75

	detectDTMFChecks = 32 // dwell checks at the 1ms check cadence == 32ms
	checkCadence     = 8  // samples between checks (~1ms at 8kHz)
)

// Consumer is a per-stream tone detector: its filter bank, decision
// state, and the options selected at construction.
type Consumer struct {
	id      string
	sink    notify.Sink
	logger  *slog.Logger
	mode    ChannelMode
	metrics *metrics.Metrics

	mu sync.Mutex

	// Differentiator registers over the raw (post channel-mode) sample
	// stream: x[n-2], x[n-1], x[n].
	x0, x1, x2  float64
	totalPower  float64
	sampleCount int

	faxEnabled   bool
	faxUsesCED   bool
	faxFilter    *filter.Filter
	faxDone      bool
	faxDivertTo  string
	faxCallerOvr string
	faxCalledOvr string

	cotEnabled  bool
	cotUsesSend bool
	cotFilter   *filter.Filter
	cotDone     bool

	dtmfEnabled bool
	dtmfLow     [4]*filter.Filter
	dtmfHigh    [4]*filter.Filter
	candidate   byte
	dwell       int
	emitted     bool

	dnisEnabled bool
	dnisAccum   strings.Builder
}

// New parses streamName of the form "tone/<mode>/<filter-list>" (mode
// in {mono,mixed,left,right}, default mono; filter-list a
// comma-separated subset of fax,rfax,cotv,cots,dtmf,callsetup,*) and
// builds a ready-to-use Consumer identified by id, emitting events to
// sink.
func New(id, streamName string, sink notify.Sink, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		id:     id,
		sink:   sink,
		logger: logger,
		mode:   Mono,
	}

	mode, options := parseStreamName(streamName)
	c.mode = mode

	// Defaults per spec.md 4.5: fax and dtmf on, cotv/cots/callsetup off.
	c.faxEnabled = true
	c.dtmfEnabled = true

	explicit := len(options) > 0 && !(len(options) == 1 && options[0] == "*")
	if explicit {
		c.faxEnabled = false
		c.dtmfEnabled = false
		c.cotEnabled = false
		c.dnisEnabled = false
	}

	all := false
	for _, opt := range options {
		switch opt {
		case "fax":
			c.faxEnabled = true
		case "rfax":
			c.faxEnabled = true
			c.faxUsesCED = true
		case "cotv":
			c.cotEnabled = true
		case "cots":
			c.cotEnabled = true
			c.cotUsesSend = true
		case "dtmf":
			c.dtmfEnabled = true
		case "callsetup":
			c.dnisEnabled = true
		case "*":
			all = true
		}
	}
	if all {
		c.faxEnabled = true
		c.dtmfEnabled = true
	}

	faxCoeffs := filter.CNG
	if c.faxUsesCED {
		faxCoeffs = filter.CED
	}
	c.faxFilter = filter.New(faxCoeffs)

	cotCoeffs := filter.COTVerified
	if c.cotUsesSend {
		cotCoeffs = filter.COTSend
	}
	c.cotFilter = filter.New(cotCoeffs)

	for i := range c.dtmfLow {
		c.dtmfLow[i] = filter.New(filter.DTMFLow[i])
	}
	for i := range c.dtmfHigh {
		c.dtmfHigh[i] = filter.New(filter.DTMFHigh[i])
	}

	return c
}

// WithMetrics attaches a Metrics recorder; subsequent detection events
// report to it. Returns c for chaining.
func (c *Consumer) WithMetrics(m *metrics.Metrics) *Consumer {
	c.metrics = m
	return c
}

// parseStreamName splits "tone/<mode>/<filter-list>" into a
// ChannelMode and the filter-list options. Any other shape is treated
// as an empty filter-list with mono mode.
func parseStreamName(streamName string) (ChannelMode, []string) {
	parts := strings.Split(streamName, "/")
	mode := Mono
	var options []string
	if len(parts) >= 2 {
		switch strings.ToLower(parts[1]) {
		case "mono":
			mode = Mono
		case "left":
			mode = Left
		case "right":
			mode = Right
		case "mixed":
			mode = Mixed
		}
	}
	if len(parts) >= 3 && parts[2] != "" {
		options = strings.Split(parts[2], ",")
	}
	return mode, options
}

// SetFaxDivert configures call-diversion parameters applied to the
// next fax detection event on this consumer: when divert is true and
// target is non-empty, the emitted event is call.execute with
// callto=target instead of call.fax. caller/called, when non-empty,
// override the values reported in the event.
func (c *Consumer) SetFaxDivert(target string, divert bool, caller, called string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if divert {
		c.faxDivertTo = target
	} else {
		c.faxDivertTo = ""
	}
	c.faxCallerOvr = caller
	c.faxCalledOvr = called
}

// extractMono reduces a raw PCM frame to a mono int16 sample stream
// per the configured ChannelMode. frame must have an even length for
// Mono, or a length that is a multiple of 4 for Left/Right/Mixed.
func extractMono(frame []byte, mode ChannelMode) []int16 {
	switch mode {
	case Mono:
		out := make([]int16, len(frame)/2)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(frame[i*2:]))
		}
		return out
	default:
		pairs := len(frame) / 4
		out := make([]int16, pairs)
		for i := 0; i < pairs; i++ {
			l := int16(binary.LittleEndian.Uint16(frame[i*4:]))
			r := int16(binary.LittleEndian.Uint16(frame[i*4+2:]))
			switch mode {
			case Left:
				out[i] = l
			case Right:
				out[i] = r
			case Mixed:
				out[i] = int16(int32(l) + int32(r))
			}
		}
		return out
	}
}

// Consume feeds a raw PCM frame through the detector: channel-mode
// extraction, per-sample differentiation and filtering, and decision
// checks every 8 samples. ctx is forwarded to the notify.Sink.
func (c *Consumer) Consume(ctx context.Context, frame []byte) {
	samples := extractMono(frame, c.mode)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range samples {
		c.processSample(ctx, float64(s))
	}
}
