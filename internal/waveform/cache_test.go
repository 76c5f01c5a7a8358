package waveform

import (
	"math"
	"testing"

	"github.com/mjibson/go-dsp/fft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheInternsSameDescriptor(t *testing.T) {
	c := NewCache()
	w1, err := c.Get("770")
	require.NoError(t, err)
	w2, err := c.Get("770")
	require.NoError(t, err)
	assert.Same(t, w1, w2)
	assert.Equal(t, 1, c.Len())
}

func TestCacheNormalizesOperandOrder(t *testing.T) {
	c := NewCache()
	w1, err := c.Get("1336+941")
	require.NoError(t, err)
	w2, err := c.Get("941+1336")
	require.NoError(t, err)
	assert.Same(t, w1, w2, "additive descriptors differing only in operand order must intern to the same buffer")
	assert.Equal(t, 1, c.Len())
}

func TestCacheRejectsGarbage(t *testing.T) {
	c := NewCache()
	_, err := c.Get("not-a-tone")
	assert.Error(t, err)
}

func TestSingleToneEvenFrequencyHalvesBuffer(t *testing.T) {
	c := NewCache()
	w, err := c.Get("852") // even -> exact periodicity, half-length buffer
	require.NoError(t, err)
	assert.Equal(t, 4000, w.Len())
}

func TestSingleToneOddFrequencyFullBuffer(t *testing.T) {
	c := NewCache()
	w, err := c.Get("697") // odd
	require.NoError(t, err)
	assert.Equal(t, 8000, w.Len())
}

func TestReferenceTone421UsesLiteralTable(t *testing.T) {
	c := NewCache()
	w, err := c.Get("421")
	require.NoError(t, err)
	require.Equal(t, 19, w.Len(), "421 must use the fixed 19-sample reference table, not generic synthesis")
	for i, want := range tone421hz {
		assert.Equal(t, want, w.At(i+1))
	}
}

func TestNoiseBuffer(t *testing.T) {
	c := NewCache()
	w, err := c.Get("noise")
	require.NoError(t, err)
	assert.Equal(t, 1000, w.Len())
}

// TestSpectralPeakMatchesFrequency independently verifies synthesized
// single-tone waveforms by running an FFT over one period and checking
// the dominant bin lands on the requested frequency, rather than
// re-deriving the same sine formula the code under test uses.
func TestSpectralPeakMatchesFrequency(t *testing.T) {
	c := NewCache()
	w, err := c.Get("941")
	require.NoError(t, err)

	n := w.Len()
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = float64(w.At(i + 1))
	}
	spectrum := fft.FFTReal(samples)

	bestBin, bestMag := 0, 0.0
	for i := 1; i < n/2; i++ {
		mag := math.Hypot(real(spectrum[i]), imag(spectrum[i]))
		if mag > bestMag {
			bestMag = mag
			bestBin = i
		}
	}
	binHz := float64(bestBin) * 8000 / float64(n)
	assert.InDelta(t, 941.0, binHz, 8000.0/float64(n)+1, "dominant FFT bin should land near 941Hz")
}

func TestDecodeSegmentSilenceZero(t *testing.T) {
	c := NewCache()
	seg, err := DecodeSegment(c, "0/500")
	require.NoError(t, err)
	assert.Nil(t, seg.Waveform)
	assert.Equal(t, 4000, seg.SampleCount)
}

func TestDecodeSegmentDefaultDuration(t *testing.T) {
	c := NewCache()
	seg, err := DecodeSegment(c, "421")
	require.NoError(t, err)
	assert.Equal(t, 8000, seg.SampleCount)
	assert.True(t, seg.Repeatable)
}

func TestDecodeSegmentNonRepeating(t *testing.T) {
	c := NewCache()
	seg, err := DecodeSegment(c, "!421/40")
	require.NoError(t, err)
	assert.False(t, seg.Repeatable)
	assert.Equal(t, 320, seg.SampleCount) // 40ms -> 2 * 160
}

func TestDecodeSegmentRoundsUpToMultipleOf20ms(t *testing.T) {
	c := NewCache()
	seg, err := DecodeSegment(c, "421/121")
	require.NoError(t, err)
	// 121ms rounds up to 140ms -> 7*160 = 1120
	assert.Equal(t, 1120, seg.SampleCount)
}
