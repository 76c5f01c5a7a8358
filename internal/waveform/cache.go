package waveform

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/nullteam/toneengine/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const sampleRate = 8000

// Waveform is an immutable, single-period PCM buffer. Position 0 holds
// the period length N; positions 1..N hold the samples. Readers advance
// cyclically over 1..N, matching the length-prefixed convention the
// cadence decoder also uses for externally supplied raw data.
type Waveform struct {
	data []int16
}

// Len returns the period length N (number of samples in one period).
func (w *Waveform) Len() int {
	if w == nil || len(w.data) == 0 {
		return 0
	}
	return int(w.data[0])
}

// At returns the sample at 1-based cyclic position pos (pos wraps into 1..N).
func (w *Waveform) At(pos int) int16 {
	n := w.Len()
	if n == 0 {
		return 0
	}
	if pos > n || pos < 1 {
		pos = ((pos - 1) % n) + 1
		if pos < 1 {
			pos += n
		}
	}
	return w.data[pos]
}

// fromSamples builds a length-prefixed Waveform from raw period samples.
func fromSamples(samples []int16) *Waveform {
	buf := make([]int16, len(samples)+1)
	buf[0] = int16(len(samples))
	copy(buf[1:], samples)
	return &Waveform{data: buf}
}

// FromRaw wraps an externally owned PCM period buffer in the same
// length-prefixed convention synthesized waveforms use (DESIGN NOTES,
// "rawdata frame"). The caller retains ownership of samples; FromRaw
// copies it.
func FromRaw(samples []int16) *Waveform {
	if len(samples) == 0 {
		return nil
	}
	return fromSamples(samples)
}

// descriptor is a normalized, parsed frequency descriptor.
type descriptor struct {
	noise bool
	f1    int
	f2    int // 0 if single tone
	mod   bool
}

// parseDescriptor accepts "noise" | F1 | F1"+"F2 | F1"*"F2.
func parseDescriptor(desc string) (descriptor, error) {
	desc = strings.TrimSpace(desc)
	if desc == "noise" {
		return descriptor{noise: true}, nil
	}
	var sep byte
	sepPos := -1
	for i := 0; i < len(desc); i++ {
		if desc[i] == '+' || desc[i] == '*' {
			sep = desc[i]
			sepPos = i
			break
		}
	}
	if sepPos < 0 {
		f1, err := strconv.Atoi(desc)
		if err != nil || f1 <= 0 {
			return descriptor{}, fmt.Errorf("waveform: invalid frequency descriptor %q", desc)
		}
		return normalize(descriptor{f1: f1}), nil
	}
	f1, err := strconv.Atoi(desc[:sepPos])
	if err != nil || f1 <= 0 {
		return descriptor{}, fmt.Errorf("waveform: invalid frequency descriptor %q", desc)
	}
	f2, err := strconv.Atoi(desc[sepPos+1:])
	if err != nil || f2 <= 0 {
		return descriptor{}, fmt.Errorf("waveform: invalid frequency descriptor %q", desc)
	}
	d := descriptor{f1: f1, f2: f2, mod: sep == '*'}
	return normalize(d), nil
}

// normalize swaps operands so F1 >= F2: descriptors differing only in
// operand order are considered equal.
func normalize(d descriptor) descriptor {
	if d.f2 != 0 && d.f1 < d.f2 {
		d.f1, d.f2 = d.f2, d.f1
	}
	return d
}

// key is the canonical cache key for a normalized descriptor.
func (d descriptor) key() string {
	if d.noise {
		return "noise"
	}
	if d.f2 == 0 {
		return strconv.Itoa(d.f1)
	}
	op := "+"
	if d.mod {
		op = "*"
	}
	return fmt.Sprintf("%d%s%d", d.f1, op, d.f2)
}

// synthesize generates the PCM period for a parsed descriptor, following
// the formulas of spec.md 4.1.
func synthesize(d descriptor) []int16 {
	if d.noise {
		return synthesizeNoise(1)
	}
	if d.f2 == 0 {
		if d.f1 == 421 {
			samples := make([]int16, len(tone421hz))
			copy(samples, tone421hz)
			return samples
		}
		n := sampleRate
		if d.f1%2 == 0 {
			n = sampleRate / 2
		}
		samples := make([]int16, n)
		step := 2 * math.Pi / sampleRate
		for x := 0; x < n; x++ {
			y := math.Sin(float64(x) * step * float64(d.f1))
			samples[x] = int16(math.Round(5000 * y))
		}
		return samples
	}
	n := sampleRate
	samples := make([]int16, n)
	step := 2 * math.Pi / sampleRate
	for x := 0; x < n; x++ {
		y := math.Sin(float64(x) * step * float64(d.f1))
		z := math.Sin(float64(x) * step * float64(d.f2))
		var v float64
		if d.mod {
			v = y * (1 + 0.5*z)
		} else {
			v = y + z
		}
		samples[x] = int16(math.Round(5000 * v))
	}
	return samples
}

// synthesizeNoise builds a 1000-sample block of pseudo-random noise at
// level L in [1,15].
func synthesizeNoise(level int) []int16 {
	if level < 1 {
		level = 1
	}
	if level > 15 {
		level = 15
	}
	ofs := 65535 >> uint(level)
	max := 2*ofs + 1
	samples := make([]int16, 1000)
	for x := range samples {
		samples[x] = int16(rand.Intn(max) - ofs)
	}
	return samples
}

// Cache interns synthesized waveforms, content-addressed by normalized
// frequency descriptor. First lookup synthesizes; subsequent lookups
// return the same buffer. Synthesis of a given descriptor is
// deduplicated across concurrent callers with singleflight rather than
// a single global lock, so unrelated descriptors still synthesize in
// parallel.
type Cache struct {
	group   singleflight.Group
	mu      sync.RWMutex
	byKey   map[string]*Waveform
	metrics *metrics.Metrics
}

// NewCache creates an empty, ready-to-use waveform cache.
func NewCache() *Cache {
	return &Cache{byKey: make(map[string]*Waveform)}
}

// WithMetrics attaches a Metrics recorder; subsequent Get calls report
// cache hits and misses to it. Returns c for chaining.
func (c *Cache) WithMetrics(m *metrics.Metrics) *Cache {
	c.metrics = m
	return c
}

// Get parses, normalizes, synthesizes (on first reference) and interns
// the waveform for desc. It returns a nil Waveform and a non-nil error
// for an unparseable descriptor or a failed synthesis.
func (c *Cache) Get(desc string) (*Waveform, error) {
	d, err := parseDescriptor(desc)
	if err != nil {
		return nil, err
	}
	key := d.key()

	c.mu.RLock()
	if w, ok := c.byKey[key]; ok {
		c.mu.RUnlock()
		if c.metrics != nil {
			c.metrics.RecordWaveformCacheHit()
		}
		return w, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		if w, ok := c.byKey[key]; ok {
			c.mu.RUnlock()
			return w, nil
		}
		c.mu.RUnlock()

		samples := synthesize(d)
		if samples == nil {
			return nil, fmt.Errorf("waveform: synthesis failed for %q", desc)
		}
		w := fromSamples(samples)

		c.mu.Lock()
		c.byKey[key] = w
		size := len(c.byKey)
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.RecordWaveformCacheMiss(size)
		}
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Waveform), nil
}

// Len reports how many distinct waveforms are currently interned.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}
