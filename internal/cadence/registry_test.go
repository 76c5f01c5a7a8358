package cadence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nullteam/toneengine/internal/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(waveform.NewCache(), nil)
	require.NoError(t, err)
	return r
}

func TestResolveBuiltinDefaultTable(t *testing.T) {
	r := newTestRegistry(t)
	d, canon, ok := r.Resolve("dial", "", false)
	require.True(t, ok)
	assert.Equal(t, "dial", canon)
	assert.True(t, d.RepeatAll)
}

func TestResolveUnknownNameFails(t *testing.T) {
	r := newTestRegistry(t)
	_, _, ok := r.Resolve("nonexistent", "", false)
	assert.False(t, ok)
}

func TestResolveOneshotRequiresFlag(t *testing.T) {
	r := newTestRegistry(t)
	_, _, ok := r.Resolve("dtmf/5", "", false)
	assert.False(t, ok, "oneshot table must not be consulted unless oneshot=true")

	d, canon, ok := r.Resolve("dtmf/5", "", true)
	require.True(t, ok)
	assert.Equal(t, "dtmf/5", canon)
	assert.False(t, d.RepeatAll, "DTMF digit cadences are finite, not repeat-all")
}

func TestResolveAliasCanonicalizes(t *testing.T) {
	r := newTestRegistry(t)
	d, canon, ok := r.Resolve("dt", "", false)
	require.True(t, ok)
	assert.Equal(t, "dial", canon)
	assert.Same(t, d.Cadence, mustResolve(t, r, "dial"))
}

func mustResolve(t *testing.T, r *Registry, name string) *Cadence {
	t.Helper()
	d, _, ok := r.Resolve(name, "", false)
	require.True(t, ok)
	return d.Cadence
}

func TestResolvePrefixBeforeDefault(t *testing.T) {
	r := newTestRegistry(t)
	enCadence, err := buildCadence(r.cache, "421/100", "0/100")
	require.NoError(t, err)
	r.Register("greeting", "en", "", enCadence)

	defCadence, err := buildCadence(r.cache, "941/100", "0/100")
	require.NoError(t, err)
	r.Register("greeting", "", "", defCadence)

	d, canon, ok := r.Resolve("greeting", "en", false)
	require.True(t, ok)
	assert.Equal(t, "en/greeting", canon)
	assert.Same(t, enCadence, d.Cadence)
}

func TestResolveDefaultLanguageFallback(t *testing.T) {
	r := newTestRegistry(t)
	r.SetDefaultLanguage("fr")
	frCadence, err := buildCadence(r.cache, "421/100", "0/100")
	require.NoError(t, err)
	r.Register("greeting", "fr", "", frCadence)

	d, canon, ok := r.Resolve("greeting", "", false)
	require.True(t, ok)
	assert.Equal(t, "fr/greeting", canon)
	assert.Same(t, frCadence, d.Cadence)
}

func TestResolveFallsThroughToDefaultLangAfterPrefixMiss(t *testing.T) {
	r := newTestRegistry(t)
	r.SetDefaultLanguage("fr")
	frCadence, err := buildCadence(r.cache, "421/100", "0/100")
	require.NoError(t, err)
	r.Register("greeting", "fr", "", frCadence)

	// "en/greeting" does not exist; the lookup must still fall through
	// to "fr/greeting" (the default language) rather than stopping at
	// the explicit-prefix miss.
	d, canon, ok := r.Resolve("greeting", "en", false)
	require.True(t, ok)
	assert.Equal(t, "fr/greeting", canon)
	assert.Same(t, frCadence, d.Cadence)
}

func TestRegisterReplacesNotMutates(t *testing.T) {
	r := newTestRegistry(t)
	c1, err := buildCadence(r.cache, "421/100")
	require.NoError(t, err)
	r.Register("custom", "", "", c1)
	d1, _, ok := r.Resolve("custom", "", false)
	require.True(t, ok)

	c2, err := buildCadence(r.cache, "941/100")
	require.NoError(t, err)
	r.Register("custom", "", "", c2)
	d2, _, ok := r.Resolve("custom", "", false)
	require.True(t, ok)

	assert.Same(t, c1, d1.Cadence, "handle captured before replacement keeps observing the old cadence")
	assert.Same(t, c2, d2.Cadence)
	assert.NotSame(t, d1.Cadence, d2.Cadence)
}

func TestBusyCadenceTotals(t *testing.T) {
	r := newTestRegistry(t)
	d, _, ok := r.Resolve("busy", "", false)
	require.True(t, ok)
	var total int
	for _, s := range d.Cadence.Segments {
		total += s.SampleCount
	}
	assert.Equal(t, 8000, total, "busy is 500ms on + 500ms off == one second at 8kHz")
}

func TestLoadPackOverridesBuiltin(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	yamlContent := `
cadences:
  - language: ""
    name: "dial"
    description: "421/250, 0/250"
  - language: "es"
    name: "dial"
    alias: "esdt"
    description: "350+440"
  - language: ""
    name: "broken"
    description: "not-a-freq/100"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))
	require.NoError(t, LoadPack(r, path))

	d, canon, ok := r.Resolve("dial", "", false)
	require.True(t, ok)
	assert.Equal(t, "dial", canon)
	var total int
	for _, s := range d.Cadence.Segments {
		total += s.SampleCount
	}
	// 250ms rounds up to 260ms -> 13*160 = 2080 samples per segment.
	assert.Equal(t, 4160, total)

	d, canon, ok = r.Resolve("dial", "es", false)
	require.True(t, ok)
	assert.Equal(t, "es/dial", canon)

	d2, _, ok := r.Resolve("esdt", "", false)
	require.True(t, ok)
	assert.Same(t, d.Cadence, d2.Cadence)

	_, _, ok = r.Resolve("broken", "", false)
	assert.False(t, ok, "invalid entry in a pack must be skipped, not registered")
}
