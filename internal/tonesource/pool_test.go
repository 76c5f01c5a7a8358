package tonesource

import (
	"testing"
	"time"

	"github.com/nullteam/toneengine/internal/cadence"
	"github.com/nullteam/toneengine/internal/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) (*Pool, *cadence.Registry) {
	t.Helper()
	cache := waveform.NewCache()
	reg, err := cadence.NewRegistry(cache, nil)
	require.NoError(t, err)
	return NewPool(reg, nil), reg
}

func TestGetToneUnknownNameReturnsNil(t *testing.T) {
	p, _ := newTestPool(t)
	defer p.Close()
	src := p.GetTone("not-a-real-cadence", "", func([]int16) {})
	assert.Nil(t, src)
}

func TestGetToneSharesRepeatingCadence(t *testing.T) {
	p, _ := newTestPool(t)
	defer p.Close()

	s1 := p.GetTone("dial", "", func([]int16) {})
	require.NotNil(t, s1)
	s2 := p.GetTone("dial", "", func([]int16) {})
	require.NotNil(t, s2)

	assert.Same(t, s1, s2, "repeat_all cadences must share one running Source")
	assert.EqualValues(t, 2, s1.RefCount())
}

func TestGetToneDoesNotShareOneShotCadence(t *testing.T) {
	p, _ := newTestPool(t)
	defer p.Close()

	s1 := p.GetTone("dtmf/5", "", func([]int16) {})
	require.NotNil(t, s1)
	s2 := p.GetTone("dtmf/5", "", func([]int16) {})
	require.NotNil(t, s2)

	assert.NotSame(t, s1, s2, "non repeat_all cadences must not be pool-shared")
}

func TestActiveNamesReflectsSharedSources(t *testing.T) {
	p, _ := newTestPool(t)
	defer p.Close()

	src := p.GetTone("busy", "", func([]int16) {})
	require.NotNil(t, src)
	assert.Contains(t, p.ActiveNames(), "busy")

	p.Release(src)
	time.Sleep(50 * time.Millisecond)
	assert.NotContains(t, p.ActiveNames(), "busy")
}
