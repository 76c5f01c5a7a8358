package tonesource

import (
	"context"
	"testing"
	"time"

	"github.com/nullteam/toneengine/internal/cadence"
	"github.com/nullteam/toneengine/internal/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestCadence(t *testing.T, cache *waveform.Cache, descs ...string) *cadence.Cadence {
	t.Helper()
	segs := make([]cadence.Segment, 0, len(descs)+1)
	for _, d := range descs {
		seg, err := waveform.DecodeSegment(cache, d)
		require.NoError(t, err)
		segs = append(segs, seg)
	}
	segs = append(segs, cadence.Segment{})
	return &cadence.Cadence{Segments: segs}
}

func TestCadenceTotalsOneShot(t *testing.T) {
	cache := waveform.NewCache()
	c := buildTestCadence(t, cache, "!421/100", "!0/100")
	src := New("test", c, 0, nil)

	var total int
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	src.Run(ctx, func(frame []int16) { total += len(frame) })

	assert.Equal(t, 1600, total, "100ms+100ms at 8kHz is 1600 samples")
}

func TestCadenceRepeatsUntilStopped(t *testing.T) {
	cache := waveform.NewCache()
	c := buildTestCadence(t, cache, "421/20", "0/20") // repeating segments, infinite by default
	src := New("test", c, Infinite, nil)

	var frames int
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		src.Run(ctx, func(frame []int16) {
			frames++
			if frames == 5 {
				src.Stop()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop in time")
	}
	assert.GreaterOrEqual(t, frames, 5)
}

func TestPacingDriftBound(t *testing.T) {
	cache := waveform.NewCache()
	c := buildTestCadence(t, cache, "421/2000", "0/2000")
	src := New("test", c, Infinite, nil)

	const n = 100
	var frames int
	start := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		src.Run(ctx, func(frame []int16) {
			frames++
			if frames == n {
				src.Stop()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("source did not emit n frames in time")
	}
	elapsed := time.Since(start)
	wantMs := float64(n) * 20
	gotMs := float64(elapsed.Milliseconds())
	assert.InDelta(t, wantMs, gotMs, 20, "N frames should take N*20ms within one frame")
}

func TestSetRepeatCounterZeroTerminatesAtNextAdvance(t *testing.T) {
	cache := waveform.NewCache()
	c := buildTestCadence(t, cache, "421/20", "0/20")
	src := New("test", c, Infinite, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		src.Run(ctx, func(frame []int16) {
			src.SetRepeatCounter(0)
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("source did not terminate after repeat counter reached 0")
	}
}

func TestNonRepeatableSegmentsTerminateAfterFirstPass(t *testing.T) {
	cache := waveform.NewCache()
	c := buildTestCadence(t, cache, "!0/40", "!421/120", "!0/40")
	src := New("test", c, 1_000_000, nil) // huge repeat count; should still terminate after one pass

	var total int
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	src.Run(ctx, func(frame []int16) { total += len(frame) })

	assert.Equal(t, 1600, total) // 40+120+40 = 200ms -> 1600 samples
}
