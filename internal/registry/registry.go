package registry

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Juleshb/umunsiapp-realtime/internal/metrics"
)

const (
	commandBufferSize = 256
	stopTimeout       = 10 * time.Second
	depthSampleEvery  = 1 * time.Second
)

// ConnectionID uniquely identifies one live connection for the lifetime of
// its network session.
type ConnectionID = uuid.UUID

// PresenceSink receives reference-count updates as connections associate
// and disconnect. Implemented by presence.Tracker.
type PresenceSink interface {
	Increment(userID string)
	Decrement(userID string)
}

// connection is the registry's record for one live session. userID is empty
// until the client announces its identity via Associate.
type connection struct {
	userID string
	writer *clientWriter
}

// --- Command types ---

type registryCmd interface{ isRegistryCmd() }

type baseRegistryCmd struct{}

func (baseRegistryCmd) isRegistryCmd() {}

type registerCmd struct {
	baseRegistryCmd
	conn         *websocket.Conn
	replyChannel chan ConnectionID
}

type associateCmd struct {
	baseRegistryCmd
	id     ConnectionID
	userID string
}

type unregisterCmd struct {
	baseRegistryCmd
	id ConnectionID
}

type connectionsForCmd struct {
	baseRegistryCmd
	userID       string
	replyChannel chan []ConnectionID
}

type allConnectionsCmd struct {
	baseRegistryCmd
	replyChannel chan []ConnectionID
}

type deliverCmd struct {
	baseRegistryCmd
	ids          []ConnectionID
	data         []byte
	replyChannel chan int
}

type touchCmd struct {
	baseRegistryCmd
	id ConnectionID
}

type lenCmd struct {
	baseRegistryCmd
	replyChannel chan int
}

type stopCmd struct {
	baseRegistryCmd
}

// Registry tracks every live WebSocket connection and which user it belongs
// to. All mutable state is owned by a single goroutine processing commands
// from cmdCh, so register/associate/unregister sequences never interleave
// into an inconsistent membership set and reads always observe a complete
// snapshot.
type Registry struct {
	cmdCh       chan registryCmd
	clock       clockwork.Clock
	connections map[ConnectionID]*connection
	byUser      map[string]map[ConnectionID]struct{}
	presence    PresenceSink
	done        chan struct{}
}

// NewRegistry creates a registry and starts its command loop. presence may
// be nil (useful in tests); when set, Associate and Unregister drive its
// reference counts from inside the command loop, so the sink must be fast,
// in-memory, and must not call back into the registry synchronously.
func NewRegistry(presence PresenceSink, clock clockwork.Clock) *Registry {
	r := &Registry{
		cmdCh:       make(chan registryCmd, commandBufferSize),
		clock:       clock,
		connections: make(map[ConnectionID]*connection),
		byUser:      make(map[string]map[ConnectionID]struct{}),
		presence:    presence,
		done:        make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Registry) run() {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Registry panic recovered", "panic", rec)
			metrics.RegistryPanicsTotal.Inc()
			r.closeAll("registry failure")
		}
	}()
	defer close(r.done)

	depthTicker := r.clock.NewTicker(depthSampleEvery)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			metrics.RegistryCommandChannelDepth.Set(float64(len(r.cmdCh)))
		case cmd := <-r.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				c.replyChannel <- r.handleRegister(c.conn)
			case associateCmd:
				r.handleAssociate(c.id, c.userID)
			case unregisterCmd:
				r.handleUnregister(c.id)
			case connectionsForCmd:
				c.replyChannel <- idsFromSet(r.byUser[c.userID])
			case allConnectionsCmd:
				ids := make([]ConnectionID, 0, len(r.connections))
				for id := range r.connections {
					ids = append(ids, id)
				}
				c.replyChannel <- ids
			case deliverCmd:
				c.replyChannel <- r.handleDeliver(c.ids, c.data)
			case touchCmd:
				if conn, exists := r.connections[c.id]; exists {
					conn.writer.recordActivity()
				}
			case lenCmd:
				c.replyChannel <- len(r.connections)
			case stopCmd:
				r.closeAll("server shutting down")
				return
			}
		}
	}
}

func (r *Registry) handleRegister(conn *websocket.Conn) ConnectionID {
	id := uuid.New()
	r.connections[id] = &connection{writer: newClientWriter(conn, r.clock)}
	metrics.RegistryConnectionsCurrent.Set(float64(len(r.connections)))
	slog.Debug("Connection registered", "connection_id", id.String(), "total_connections", len(r.connections))
	return id
}

func (r *Registry) handleAssociate(id ConnectionID, userID string) {
	conn, exists := r.connections[id]
	if !exists {
		// Association raced with disconnect. Nothing to bind, nothing leaks.
		slog.Debug("Associate on unknown connection ignored", "connection_id", id.String())
		return
	}
	if conn.userID == userID {
		return
	}

	// Re-association is last-write-wins: leave the old user's count, join
	// the new user's.
	if conn.userID != "" {
		r.removeFromUser(conn.userID, id)
		if r.presence != nil {
			r.presence.Decrement(conn.userID)
		}
	}

	conn.userID = userID
	set, exists := r.byUser[userID]
	if !exists {
		set = make(map[ConnectionID]struct{})
		r.byUser[userID] = set
	}
	set[id] = struct{}{}
	if r.presence != nil {
		r.presence.Increment(userID)
	}
	slog.Debug("Connection associated", "connection_id", id.String(), "user_id", userID)
}

func (r *Registry) handleUnregister(id ConnectionID) {
	conn, exists := r.connections[id]
	if !exists {
		// Disconnect handlers can fire more than once; the second is a no-op.
		return
	}

	conn.writer.stop()
	delete(r.connections, id)
	if conn.userID != "" {
		r.removeFromUser(conn.userID, id)
		if r.presence != nil {
			r.presence.Decrement(conn.userID)
		}
	}
	metrics.RegistryConnectionsCurrent.Set(float64(len(r.connections)))
	slog.Debug("Connection unregistered", "connection_id", id.String(), "user_id", conn.userID, "total_connections", len(r.connections))
}

// handleDeliver pushes data onto each target connection's send buffer.
// Stale IDs are skipped; clients with a full buffer are evicted. Returns
// the number of successful deliveries.
func (r *Registry) handleDeliver(ids []ConnectionID, data []byte) int {
	delivered := 0
	var slow []ConnectionID
	for _, id := range ids {
		conn, exists := r.connections[id]
		if !exists {
			metrics.DispatchDropsTotal.WithLabelValues("stale_connection").Inc()
			continue
		}
		select {
		case conn.writer.sendChannel <- data:
			delivered++
		default:
			slow = append(slow, id)
		}
	}

	for _, id := range slow {
		slog.Warn("Disconnecting slow client", "connection_id", id.String())
		metrics.RegistrySlowClientsEvicted.Inc()
		metrics.DispatchDropsTotal.WithLabelValues("slow_client").Inc()
		r.handleUnregister(id)
	}
	return delivered
}

func (r *Registry) removeFromUser(userID string, id ConnectionID) {
	set, exists := r.byUser[userID]
	if !exists {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.byUser, userID)
	}
}

func (r *Registry) closeAll(reason string) {
	for id, conn := range r.connections {
		conn.writer.stopGraceful(reason)
		delete(r.connections, id)
		if conn.userID != "" {
			r.removeFromUser(conn.userID, id)
			if r.presence != nil {
				r.presence.Decrement(conn.userID)
			}
		}
	}
	metrics.RegistryConnectionsCurrent.Set(0)
}

func idsFromSet(set map[ConnectionID]struct{}) []ConnectionID {
	ids := make([]ConnectionID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// --- Public API ---

// Register inserts a new unassociated connection and starts its writer.
// The returned ID is the connection's handle for all later calls.
func (r *Registry) Register(conn *websocket.Conn) ConnectionID {
	replyCh := make(chan ConnectionID, 1)
	r.cmdCh <- registerCmd{conn: conn, replyChannel: replyCh}
	return <-replyCh
}

// Associate binds a connection to a user, driving the presence refcount.
// A no-op if the connection is already gone. Associating an already-bound
// connection with a different user leaves the old user and joins the new.
func (r *Registry) Associate(id ConnectionID, userID string) {
	r.cmdCh <- associateCmd{id: id, userID: userID}
}

// Unregister removes a connection, stopping its writer and decrementing
// presence if it was associated. Idempotent.
func (r *Registry) Unregister(id ConnectionID) {
	r.cmdCh <- unregisterCmd{id: id}
}

// ConnectionsFor returns a point-in-time snapshot of the connections
// associated with userID. Empty for unknown users.
func (r *Registry) ConnectionsFor(userID string) []ConnectionID {
	replyCh := make(chan []ConnectionID, 1)
	r.cmdCh <- connectionsForCmd{userID: userID, replyChannel: replyCh}
	return <-replyCh
}

// AllConnections returns a point-in-time snapshot of every registered
// connection, associated or not.
func (r *Registry) AllConnections() []ConnectionID {
	replyCh := make(chan []ConnectionID, 1)
	r.cmdCh <- allConnectionsCmd{replyChannel: replyCh}
	return <-replyCh
}

// Deliver writes data to each listed connection, best effort. A connection
// that disappeared since resolution is skipped; a slow one is evicted.
// Returns the number of deliveries that were accepted.
func (r *Registry) Deliver(ids []ConnectionID, data []byte) int {
	if len(ids) == 0 {
		return 0
	}
	replyCh := make(chan int, 1)
	r.cmdCh <- deliverCmd{ids: ids, data: data, replyChannel: replyCh}
	return <-replyCh
}

// Touch records inbound activity for a connection's idle tracking.
func (r *Registry) Touch(id ConnectionID) {
	r.cmdCh <- touchCmd{id: id}
}

// Len returns the current number of registered connections.
func (r *Registry) Len() int {
	replyCh := make(chan int, 1)
	r.cmdCh <- lenCmd{replyChannel: replyCh}
	return <-replyCh
}

// Stop closes every connection and shuts down the command loop. Blocks
// until the loop has exited or the stop timeout is reached.
func (r *Registry) Stop() {
	r.cmdCh <- stopCmd{}

	timeout := r.clock.NewTimer(stopTimeout)
	defer timeout.Stop()

	select {
	case <-r.done:
		slog.Info("Registry stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Registry stop timeout exceeded", "timeout", stopTimeout)
		metrics.RegistryStopTimeoutsTotal.Inc()
	}
}
