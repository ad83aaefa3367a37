package dispatch

import (
	"encoding/json"
	"log/slog"

	"github.com/Juleshb/umunsiapp-realtime/internal/metrics"
	"github.com/Juleshb/umunsiapp-realtime/internal/registry"
)

// Deliverer writes a payload to a set of connections, best effort. A write
// that fails for one connection never affects the others. Implemented by
// registry.Registry.
type Deliverer interface {
	Deliver(ids []registry.ConnectionID, data []byte) int
}

// Dispatcher is the single entry point for event fan-out: it resolves a
// target to connections via the router and hands the serialized frame to
// the registry for delivery. Fire-and-forget: no retries, no queueing, no
// errors surfaced to callers. A fault costs a dropped notification, never
// corrupted presence state.
type Dispatcher struct {
	router *Router
	sink   Deliverer
}

func NewDispatcher(router *Router, sink Deliverer) *Dispatcher {
	return &Dispatcher{router: router, sink: sink}
}

// Dispatch serializes the event and writes it to every connection the
// target resolves to. Returns the number of deliveries accepted; zero
// matches is a silent no-op.
func (d *Dispatcher) Dispatch(event string, payload any, target Target) int {
	metrics.DispatchEventsTotal.WithLabelValues(event).Inc()

	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("Failed to marshal event", "event", event, "error", err)
		return 0
	}

	ids := d.router.Resolve(target)
	if len(ids) == 0 {
		metrics.DispatchDropsTotal.WithLabelValues("empty_target").Inc()
		return 0
	}

	delivered := d.sink.Deliver(ids, data)
	metrics.DispatchDeliveriesTotal.Add(float64(delivered))
	slog.Debug("Event dispatched", "event", event, "resolved", len(ids), "delivered", delivered)
	return delivered
}

// DispatchChat routes a chat message to the recipient's connections and
// echoes it to the sender's, keeping all of the sender's tabs in sync.
func (d *Dispatcher) DispatchChat(from, to, body string) {
	msg := ChatMessage{From: from, To: to, Body: body}
	d.Dispatch(EventChatMessage, msg, PersonalChannel(to))
	if from != to {
		d.Dispatch(EventChatMessage, msg, PersonalChannel(from))
	}
}

// DispatchTyping routes a typing indicator to the recipient only.
func (d *Dispatcher) DispatchTyping(from, to string, isTyping bool) {
	d.Dispatch(EventTyping, TypingIndicator{From: from, To: to, IsTyping: isTyping}, PersonalChannel(to))
}

// BroadcastPresence announces a presence transition to every connection.
// Wired as the presence tracker's transition callback (via a goroutine hop,
// since the tracker is updated inside the registry's command loop).
func (d *Dispatcher) BroadcastPresence(userID string, isOnline bool) {
	d.Dispatch(EventUserOnline, PresenceChanged{UserID: userID, IsOnline: isOnline}, Broadcast())
}

// Publish broadcasts a content-mutation event from a collaborator that just
// mutated persistent state. The topic and payload are opaque here; clients
// filter by topic. Callers publish only after their mutation has durably
// succeeded.
func (d *Dispatcher) Publish(topic string, payload json.RawMessage) {
	d.Dispatch(topic, payload, Broadcast())
}
