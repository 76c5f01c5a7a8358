package waveform

import (
	"strconv"
	"strings"
)

// DecodedSegment is the result of decoding one comma-separated element
// of a cadence description.
type DecodedSegment struct {
	SampleCount int
	Waveform    *Waveform // nil means silence
	Repeatable  bool
}

// DecodeSegment accepts "[!]desc[/duration_ms]". A leading '!' marks a
// non-repeating segment (default: repeating). Default duration is
// 1000 ms (8000 samples); any other duration is rounded up to the next
// multiple of 20 ms. desc == "0" yields silence, which is not a failure.
func DecodeSegment(cache *Cache, desc string) (DecodedSegment, error) {
	repeatable := true
	rest := desc
	if strings.HasPrefix(rest, "!") {
		repeatable = false
		rest = rest[1:]
	}

	freq := rest
	sampleCount := 8000
	if pos := strings.IndexByte(rest, '/'); pos >= 0 {
		freq = rest[:pos]
		durStr := rest[pos+1:]
		if ms, err := strconv.Atoi(durStr); err == nil && ms > 0 {
			rounded := (ms + 19) / 20 * 20
			sampleCount = rounded / 20 * 160
		}
	}

	if n, err := strconv.Atoi(freq); err == nil && n == 0 {
		return DecodedSegment{SampleCount: sampleCount, Waveform: nil, Repeatable: repeatable}, nil
	}

	w, err := cache.Get(freq)
	if err != nil {
		return DecodedSegment{}, err
	}
	return DecodedSegment{SampleCount: sampleCount, Waveform: w, Repeatable: repeatable}, nil
}
