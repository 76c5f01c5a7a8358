// Package waveform synthesizes and interns single-period PCM buffers
// for the tone engine: pure sinusoids, additive and amplitude-modulated
// mixes, and comfort noise, at a fixed 8 kHz sample rate.
package waveform
