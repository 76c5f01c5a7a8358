package tonesource

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nullteam/toneengine/internal/cadence"
)

// FrameSamples is the fixed output frame size: 160 samples = 320
// bytes = 20 ms at 8 kHz.
const FrameSamples = 160

// FrameDuration is the wall-clock pacing interval between frames.
const FrameDuration = 20 * time.Millisecond

// ByteRate is the PCM byte rate (2 bytes/sample, 8000 samples/s).
const ByteRate = 16000

// Source is a cooperative real-time producer: it walks a Cadence,
// emitting FrameSamples-sized frames paced to wall-clock time, until
// the cadence (non-repeating) exhausts or it is stopped externally.
type Source struct {
	name   string
	logger *slog.Logger

	mu            sync.Mutex
	cadence       *cadence.Cadence
	repeatCounter int64 // <0 means unlimited; 0 terminates at the next segment advance; >0 counts down

	segmentCursor int
	sampleIndex   int
	periodIndex   int
	firstPass     bool

	bytesEmitted atomic.Int64
	startTime    time.Time

	refs   atomic.Int32
	done   chan struct{}
	stopCh chan struct{}
	once   sync.Once
}

// Infinite is the repeatCounter sentinel meaning "repeat until Stop is
// called or the cadence lands on a non-repeatable segment".
const Infinite int64 = -1

// New creates a Source over c, named for diagnostics. repeatCounter <
// 0 means "repeat indefinitely until stopped" (see Infinite); 0
// terminates the source at its next segment advance; a positive value
// counts down at each cadence wrap. The source does not start its
// emission loop until Run is called.
func New(name string, c *cadence.Cadence, repeatCounter int64, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{
		name:          name,
		logger:        logger,
		cadence:       c,
		repeatCounter: repeatCounter,
		firstPass:     true,
		done:          make(chan struct{}),
		stopCh:        make(chan struct{}),
	}
	s.refs.Store(1)
	return s
}

// Name returns the canonical cadence name this source was created for.
func (s *Source) Name() string { return s.name }

// AddRef increments the external reference count, used by Pool to
// share a running repeating source across multiple requesters.
func (s *Source) AddRef() { s.refs.Add(1) }

// Release decrements the external reference count and returns the
// count remaining.
func (s *Source) Release() int32 { return s.refs.Add(-1) }

// RefCount reports the current external reference count.
func (s *Source) RefCount() int32 { return s.refs.Load() }

// Stop requests termination; it takes effect at the next segment
// advance or frame boundary, within one frame (20 ms) worst case.
func (s *Source) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

// Done is closed once the emission loop has exited.
func (s *Source) Done() <-chan struct{} { return s.done }

// BytesEmitted reports the total PCM bytes emitted so far.
func (s *Source) BytesEmitted() int64 { return s.bytesEmitted.Load() }

// ByteRateSoFar computes the realized byte rate using the
// overflow-avoiding identity (bytes*1e6 + t/2) / t, t in microseconds.
// Returns 0 before the first frame.
func (s *Source) ByteRateSoFar() int64 {
	elapsed := time.Since(s.startTime).Microseconds()
	if elapsed <= 0 {
		return 0
	}
	bytes := s.bytesEmitted.Load()
	return (bytes*1_000_000 + elapsed/2) / elapsed
}

// Run drives the paced emission loop, calling emit for each frame of
// 160 PCM samples. It returns when the cadence exhausts, ctx is
// cancelled, or Stop is called. Run is intended to be invoked once,
// from a dedicated worker goroutine.
func (s *Source) Run(ctx context.Context, emit func(frame []int16)) {
	defer close(s.done)

	s.startTime = time.Now()
	deadline := s.startTime

	frame := make([]int16, FrameSamples)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		filled, terminated := s.fillFrame(frame)
		if filled > 0 {
			emit(frame)
			s.bytesEmitted.Add(int64(FrameSamples * 2))
		}

		if terminated {
			return
		}

		deadline = deadline.Add(FrameDuration)
		if sleep := time.Until(deadline); sleep > 0 {
			t := time.NewTimer(sleep)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return
			case <-s.stopCh:
				t.Stop()
				return
			}
		}
	}
}

// fillFrame fills frame with the next 160 samples, advancing segment
// state as needed. It reports how many samples came from the cadence
// (the rest of a frame cut short by termination is zero-filled) and
// whether the cadence has terminated.
func (s *Source) fillFrame(frame []int16) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < len(frame); i++ {
		for s.currentSegment().SampleCount == 0 || s.sampleIndex >= s.currentSegment().SampleCount {
			if s.advanceSegment() {
				filled := i
				for ; i < len(frame); i++ {
					frame[i] = 0
				}
				return filled, true
			}
		}
		seg := s.currentSegment()
		if seg.Waveform != nil {
			s.periodIndex++
			frame[i] = seg.Waveform.At(s.periodIndex)
		} else {
			frame[i] = 0
		}
		s.sampleIndex++
	}
	return len(frame), false
}

func (s *Source) currentSegment() cadence.Segment {
	return s.cadence.Segments[s.segmentCursor]
}

// advanceSegment moves to the next segment, implementing the
// end-of-cadence wrap/repeat/terminate rules. Returns true if the
// source has terminated.
func (s *Source) advanceSegment() bool {
	s.segmentCursor++
	s.sampleIndex = 0
	s.periodIndex = 0

	if s.segmentCursor >= len(s.cadence.Segments) || s.cadence.Segments[s.segmentCursor].SampleCount == 0 {
		// Hit (or passed) the sentinel: wrap or terminate.
		if s.repeatCounter == 0 {
			return true
		}
		if s.repeatCounter > 0 {
			s.repeatCounter--
			if s.repeatCounter == 0 {
				return true
			}
		}
		s.segmentCursor = 0
		s.firstPass = false
	}

	// On non-first passes, skip non-repeatable segments.
	for !s.firstPass && s.segmentCursor < len(s.cadence.Segments) &&
		s.cadence.Segments[s.segmentCursor].SampleCount > 0 &&
		!s.cadence.Segments[s.segmentCursor].Repeatable {
		s.segmentCursor++
	}

	if s.segmentCursor >= len(s.cadence.Segments) || s.cadence.Segments[s.segmentCursor].SampleCount == 0 {
		// Wrapping landed only on non-repeatable/sentinel segments.
		return true
	}
	return false
}

// SetRepeatCounter atomically updates the repeat counter; setting it
// to 0 terminates the source at the next segment advance.
func (s *Source) SetRepeatCounter(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeatCounter = n
}
