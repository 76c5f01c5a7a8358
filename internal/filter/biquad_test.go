package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateAccumulatesPower(t *testing.T) {
	f := New(DTMFLow[0])
	assert.Equal(t, 0.0, f.Power)
	for i := 0; i < 200; i++ {
		x := math.Sin(2 * math.Pi * 697 / 8000 * float64(i))
		f.Update(x)
	}
	assert.Greater(t, f.Power, 0.0, "resonator tuned to its own frequency should accumulate power")
}

func TestOffBandFilterAccumulatesLessPower(t *testing.T) {
	onBand := New(DTMFLow[0])   // 697 Hz
	offBand := New(DTMFHigh[3]) // 1633 Hz
	for i := 0; i < 400; i++ {
		x := math.Sin(2 * math.Pi * 697 / 8000 * float64(i))
		onBand.Update(x)
		offBand.Update(x)
	}
	assert.Greater(t, onBand.Power, offBand.Power)
}

func TestResetClearsStateNotCoefficients(t *testing.T) {
	f := New(CNG)
	for i := 0; i < 50; i++ {
		f.Update(math.Sin(2 * math.Pi * 1100 / 8000 * float64(i)))
	}
	assert.NotEqual(t, 0.0, f.Power)
	f.Reset()
	assert.Equal(t, 0.0, f.Power)
	assert.Equal(t, CNG, f.c)
}

func TestRetuneSwapsCoefficientsAndResets(t *testing.T) {
	f := New(CNG)
	f.Update(1.0)
	f.Retune(CED)
	assert.Equal(t, CED, f.c)
	assert.Equal(t, 0.0, f.Power)
}

func TestDTMFDigitsGridMatchesStandardKeypad(t *testing.T) {
	assert.Equal(t, byte('5'), DTMFDigits[1][1])
	assert.Equal(t, byte('*'), DTMFDigits[3][0])
	assert.Equal(t, byte('#'), DTMFDigits[3][2])
}
