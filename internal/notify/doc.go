// Package notify defines the structured event messages the tone
// detector emits, and the Sink interface through which they are
// delivered to whatever message bus a deployment wires in.
package notify
