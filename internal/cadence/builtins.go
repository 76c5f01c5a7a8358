package cadence

import (
	"fmt"

	"github.com/nullteam/toneengine/internal/waveform"
)

// buildCadence decodes a comma-separated list of segment descriptors
// (the grammar of waveform.DecodeSegment) against cache and appends
// the end-of-cadence sentinel.
func buildCadence(cache *waveform.Cache, descs ...string) (*Cadence, error) {
	segs := make([]Segment, 0, len(descs)+1)
	for _, d := range descs {
		seg, err := waveform.DecodeSegment(cache, d)
		if err != nil {
			return nil, fmt.Errorf("cadence: segment %q: %w", d, err)
		}
		segs = append(segs, seg)
	}
	segs = append(segs, Segment{}) // sentinel: SampleCount == 0
	return &Cadence{Segments: segs}, nil
}

// dtmfCadence builds the standard 40ms gap / 120ms tone / 40ms gap
// shape shared by every DTMF digit. Every segment is marked
// non-repeating ("!"), so the cadence is not repeat_all: it plays
// exactly once and terminates regardless of any requested repeat
// count, and a Source built over it is never pool-shared.
func dtmfCadence(cache *waveform.Cache, freq string) (*Cadence, error) {
	return buildCadence(cache, "!0/40", "!"+freq+"/120", "!0/40")
}

// builtinAlias maps a short alias to its canonical cadence name, per
// the fixed alias table (e.g. "dt" -> "dial").
var builtinAlias = map[string]string{
	"dt":  "dial",
	"bz":  "busy",
	"rg":  "ring",
	"sd":  "specdial",
	"cg":  "congestion",
	"oo":  "outoforder",
	"cw":  "callwaiting",
	"inf": "info",
	"mw":  "milliwatt",
	"sil": "silence",
	"ns":  "noise",
}

// digitFreq maps each oneshot DTMF name to its dual-tone descriptor,
// grounded on the standard 4x4 DTMF grid (low-group+high-group).
var digitFreq = map[string]string{
	"1": "697+1209", "2": "697+1336", "3": "697+1477", "a": "697+1633",
	"4": "770+1209", "5": "770+1336", "6": "770+1477", "b": "770+1633",
	"7": "852+1209", "8": "852+1336", "9": "852+1477", "c": "852+1633",
	"*": "941+1209", "0": "941+1336", "#": "941+1477", "d": "941+1633",
}

// registerBuiltins populates r's default table with the standard
// cadence set and its oneshot DTMF table, synthesizing waveforms
// through cache. Errors here indicate a bug in the built-in table
// itself, not bad user input, so callers may treat them as fatal.
func registerBuiltins(r *Registry, cache *waveform.Cache) error {
	type entry struct {
		name  string
		alias string
		descs []string
	}
	entries := []entry{
		{"dial", "dt", []string{"421"}},
		{"busy", "bz", []string{"421/500", "0/500"}},
		{"ring", "rg", []string{"421/1000", "0/4000"}},
		{"specdial", "sd", []string{"421/950", "0/50"}},
		{"congestion", "cg", []string{"421/250", "0/250"}},
		{"outoforder", "oo", []string{
			"421/100", "0/100", "421/100", "0/100", "421/100", "0/100",
			"421/200", "0/200",
		}},
		{"callwaiting", "cw", []string{"0/20", "421/100", "0/100", "421/100", "0/20"}},
		{"info", "inf", []string{"941/330", "0/30", "1454/330", "0/30", "1777/330", "0/1000"}},
		{"milliwatt", "mw", []string{"1000"}},
		{"silence", "sil", []string{"0"}},
		{"noise", "ns", []string{"noise"}},
		{"probe/0", "", []string{"1000"}},
		{"probe/1", "", []string{"2000"}},
		{"probe/2", "", []string{"2804"}},
		{"cotv", "", []string{"2010"}},
		{"cots", "", []string{"1780"}},
	}
	for _, e := range entries {
		c, err := buildCadence(cache, e.descs...)
		if err != nil {
			return err
		}
		r.Register(e.name, "", e.alias, c)
	}

	for digit, freq := range digitFreq {
		c, err := dtmfCadence(cache, freq)
		if err != nil {
			return err
		}
		name := "dtmf/" + digit
		r.registerOneshot(name, digit, c)
	}
	return nil
}
