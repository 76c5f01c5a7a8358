// Package cadence holds the registry of named cadences: ordered lists
// of segments (waveform + duration + repeat flag) describing how a
// tone is keyed on and off over time. It ships a built-in table of
// standard cadences and lets operators extend or override it with
// YAML-described packs loaded at runtime.
package cadence
