package filter

// Coeffs parameterizes a resonator biquad: y[n] = x[n]/Gain +
// Y0*y[n-2] + Y1*y[n-1]. The constants are produced by an external
// filter-design tool at specific center frequencies and must be
// reproduced bit-identically, never regenerated.
type Coeffs struct {
	Gain float64
	Y0   float64
	Y1   float64
}

// powerDecay and powerGain are the EMA constants shared by every
// power estimate in the detector: power = 0.97*power + 0.03*y^2.
const (
	powerDecay = 0.97
	powerGain  = 0.03
)

// Filter is one running biquad instance: its coefficients, its
// y[n-2]/y[n-1]/y[n] register history, and its power estimate.
type Filter struct {
	c      Coeffs
	y0, y1 float64 // y[n-2], y[n-1]
	Power  float64
}

// New creates a Filter parameterized by c, with zeroed state.
func New(c Coeffs) *Filter {
	return &Filter{c: c}
}

// Reset zeroes the register history and power estimate, leaving the
// coefficients unchanged. Used when a filter overshoots its own
// consumer's total power (a startup-transient artifact).
func (f *Filter) Reset() {
	f.y0, f.y1 = 0, 0
	f.Power = 0
}

// Retune replaces this filter's coefficients and resets its state,
// switching the filter to another target frequency (e.g. CNG -> CED).
func (f *Filter) Retune(c Coeffs) {
	f.c = c
	f.Reset()
}

// Update feeds one pre-differentiated sample through the biquad,
// advancing the register history and power estimate, and returns the
// new y[n].
func (f *Filter) Update(dx float64) float64 {
	y := dx/f.c.Gain + f.c.Y0*f.y0 + f.c.Y1*f.y1
	f.y0, f.y1 = f.y1, y
	f.Power = powerDecay*f.Power + powerGain*y*y
	return y
}
