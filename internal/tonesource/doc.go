// Package tonesource is the real-time producer half of the tone
// engine: a Source walks a cadence and emits fixed-size 20ms PCM
// frames paced to wall-clock time, and a Pool shares one running
// Source across concurrent requests for the same repeating cadence.
package tonesource
