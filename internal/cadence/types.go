package cadence

import "github.com/nullteam/toneengine/internal/waveform"

// Segment is one fragment of a Cadence: a run length in samples, an
// optional waveform reference (nil means silence), and whether it
// participates on repeat passes. A Segment with SampleCount == 0 is
// the end-of-cadence sentinel.
type Segment = waveform.DecodedSegment

// Cadence is an ordered, non-empty sequence of Segments terminated by
// a sentinel Segment with SampleCount == 0. At least one non-sentinel
// Segment has SampleCount > 0.
type Cadence struct {
	Segments []Segment
}

// RepeatAll is true iff every non-sentinel segment is repeatable.
func (c *Cadence) RepeatAll() bool {
	for _, s := range c.Segments {
		if s.SampleCount == 0 {
			break
		}
		if !s.Repeatable {
			return false
		}
	}
	return true
}

// Descriptor is a named, registered Cadence.
type Descriptor struct {
	Name      string // canonical key, e.g. "dial" or "en/dial"
	Alias     string // short form, e.g. "dt"; empty if none
	Cadence   *Cadence
	RepeatAll bool
}
