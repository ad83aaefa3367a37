// Package dispatch routes typed events to connection sets.
//
// Targets (personal channel, broadcast, broadcast-except-sender) are
// resolved lazily against the registry at dispatch time. Delivery is
// at-most-once with no guarantees: disconnected clients simply miss events.
package dispatch
