package notify

import (
	"context"
	"log/slog"
)

// Message is a structured detection event: a kind plus string-keyed
// parameters, matching the event table of spec.md 6.
type Message struct {
	Kind   string
	Params map[string]string
}

// Sink receives detection events. Implementations must not block the
// caller for long: the detector calls Notify inline with frame
// delivery.
type Sink interface {
	Notify(ctx context.Context, msg Message)
}

// DTMF builds the chan.masquerade DTMF event: message=chan.dtmf,
// text=<digit>, detected=inband.
func DTMF(id, digit string) Message {
	return Message{Kind: "chan.masquerade", Params: map[string]string{
		"id": id, "message": "chan.dtmf", "text": digit, "detected": "inband",
	}}
}

// Continuity builds the chan.masquerade continuity event: a
// pseudo-DTMF 'O' digit.
func Continuity(id string) Message {
	return DTMF(id, "O")
}

// Fax builds the chan.masquerade fax event. When divertTarget is
// non-empty the event is call.execute/reason=fax; otherwise call.fax.
func Fax(id, caller, called, divertTarget string) Message {
	if divertTarget != "" {
		return Message{Kind: "chan.masquerade", Params: map[string]string{
			"id": id, "message": "call.execute", "callto": divertTarget,
			"reason": "fax", "caller": caller, "called": called,
		}}
	}
	return Message{Kind: "chan.masquerade", Params: map[string]string{
		"id": id, "message": "call.fax", "detected": "inband",
		"caller": caller, "called": called,
	}}
}

// DNIS builds the chan.notify setup event with captured caller/called.
func DNIS(id, targetID, caller, called string) Message {
	return Message{Kind: "chan.notify", Params: map[string]string{
		"id": id, "targetid": targetID, "operation": "setup",
		"caller": caller, "called": called,
	}}
}

// LogSink is a Sink that writes every message to a structured logger,
// used as the default when no external message bus is wired in.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink creates a LogSink; a nil logger falls back to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Notify(_ context.Context, msg Message) {
	args := make([]any, 0, len(msg.Params)*2+2)
	args = append(args, "kind", msg.Kind)
	for k, v := range msg.Params {
		args = append(args, k, v)
	}
	s.Logger.Info("tone event", args...)
}

// ChannelSink is a Sink backed by a buffered channel, used by tests
// to observe emitted events without wiring a real message bus.
type ChannelSink struct {
	ch chan Message
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(capacity int) *ChannelSink {
	return &ChannelSink{ch: make(chan Message, capacity)}
}

func (s *ChannelSink) Notify(_ context.Context, msg Message) {
	select {
	case s.ch <- msg:
	default:
	}
}

// Messages exposes the underlying channel for draining in tests.
func (s *ChannelSink) Messages() <-chan Message {
	return s.ch
}
