// Package filter implements the second-order resonator biquads and
// power tracking the tone detector runs its candidate bands through,
// plus the bit-identical coefficient tables those bands are tuned to.
package filter
