package dispatch

import (
	"github.com/Juleshb/umunsiapp-realtime/internal/registry"
)

// Snapshotter provides point-in-time views of the live connection set.
// Implemented by registry.Registry; each call returns one consistent
// snapshot, never a half-updated membership.
type Snapshotter interface {
	ConnectionsFor(userID string) []registry.ConnectionID
	AllConnections() []registry.ConnectionID
}

type targetKind int

const (
	targetPersonal targetKind = iota
	targetBroadcast
	targetBroadcastExceptSender
)

// Target is an abstract delivery address, resolved lazily against the live
// registry at dispatch time. Membership changes continuously, so resolved
// sets are never cached.
type Target struct {
	kind    targetKind
	userID  string
	exclude registry.ConnectionID
}

// PersonalChannel addresses every connection currently associated with userID.
func PersonalChannel(userID string) Target {
	return Target{kind: targetPersonal, userID: userID}
}

// Broadcast addresses every registered connection, associated or not.
func Broadcast() Target {
	return Target{kind: targetBroadcast}
}

// BroadcastExceptSender addresses every registered connection except the
// given one.
func BroadcastExceptSender(sender registry.ConnectionID) Target {
	return Target{kind: targetBroadcastExceptSender, exclude: sender}
}

// Router maps targets to concrete connection sets.
type Router struct {
	snapshots Snapshotter
}

func NewRouter(snapshots Snapshotter) *Router {
	return &Router{snapshots: snapshots}
}

// Resolve returns the connections a target currently addresses. Exactly one
// registry snapshot is taken per resolution. Unknown users resolve to an
// empty set; dispatching to an empty set is a valid no-op.
func (r *Router) Resolve(target Target) []registry.ConnectionID {
	switch target.kind {
	case targetPersonal:
		return r.snapshots.ConnectionsFor(target.userID)
	case targetBroadcast:
		return r.snapshots.AllConnections()
	case targetBroadcastExceptSender:
		all := r.snapshots.AllConnections()
		ids := all[:0]
		for _, id := range all {
			if id != target.exclude {
				ids = append(ids, id)
			}
		}
		return ids
	default:
		return nil
	}
}
