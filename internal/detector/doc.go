// Package detector is the real-time consumer half of the tone engine:
// it feeds incoming PCM samples through an IIR filter bank and runs
// DTMF, fax (CNG/CED), and continuity-test decision logic, emitting
// structured events to a notify.Sink as conditions are met.
package detector
