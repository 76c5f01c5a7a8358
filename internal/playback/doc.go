// Package playback drives a local speaker device with PCM frames from
// a tonesource.Source, for the CLI's "play" demo path. It is not part
// of the core tone engine: attaching a Source to an audio output
// device has nothing to do with the cadence/waveform/filter semantics
// the core specifies.
package playback
