package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/Juleshb/umunsiapp-realtime/internal/metrics"
	"github.com/Juleshb/umunsiapp-realtime/internal/platform/correlation"
	"github.com/Juleshb/umunsiapp-realtime/internal/registry"
)

const (
	maxFrameBytes    = 8192
	maxChatBodyRunes = 2000
	maxUserIDBytes   = 128
)

// inboundFrame is the wire shape of every client-to-server message.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinPayload struct {
	UserID string `json:"userId"`
}

type chatPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type typingPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	IsTyping bool   `json:"isTyping"`
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	if !s.rateLimit.Allow(ip) {
		metrics.ConnectionsRejectedTotal.WithLabelValues("rate_limit").Inc()
		return c.String(429, "Too many connection attempts")
	}
	if !s.ipLimit.Acquire(ip) {
		metrics.ConnectionsRejectedTotal.WithLabelValues("ip_limit").Inc()
		return c.String(429, "Too many connections from this address")
	}
	if !s.globalLimit.Acquire() {
		s.ipLimit.Release(ip)
		metrics.ConnectionsRejectedTotal.WithLabelValues("global_limit").Inc()
		return c.String(503, "Server at capacity")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.ipLimit.Release(ip)
		s.globalLimit.Release()
		metrics.ConnectionsRejectedTotal.WithLabelValues("origin").Inc()
		slog.Warn("WebSocket upgrade failed", "error", err, "remote_addr", ip)
		return nil
	}

	ctx := correlation.WithID(context.Background(), correlation.NewID())

	conn.SetReadLimit(maxFrameBytes)
	id := s.registry.Register(conn)
	slog.InfoContext(ctx, "Client connected", "connection_id", id.String(), "remote_addr", ip)

	// Read pump: blocks until the client disconnects, times out, or errors.
	// Every exit path runs the same unregister, so refcounts never leak.
	frameLimit := rate.NewLimiter(rate.Limit(s.config.FrameRate), s.config.FrameBurst)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.registry.Touch(id)

		if !frameLimit.Allow() {
			metrics.WebSocketInboundFramesTotal.WithLabelValues("", "rate_limited").Inc()
			continue
		}

		s.handleInboundFrame(ctx, id, data)
	}

	s.registry.Unregister(id)
	s.ipLimit.Release(ip)
	s.globalLimit.Release()
	slog.InfoContext(ctx, "Client disconnected", "connection_id", id.String())

	return nil
}

// handleInboundFrame parses and routes one client frame. Malformed frames
// are counted and dropped; they never close the connection.
func (s *Server) handleInboundFrame(ctx context.Context, id registry.ConnectionID, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		metrics.WebSocketInboundFramesTotal.WithLabelValues("", "malformed").Inc()
		slog.DebugContext(ctx, "Malformed frame dropped", "connection_id", id.String(), "error", err)
		return
	}

	switch frame.Event {
	case "join":
		var p joinPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.UserID == "" || len(p.UserID) > maxUserIDBytes {
			metrics.WebSocketInboundFramesTotal.WithLabelValues("join", "malformed").Inc()
			return
		}
		s.registry.Associate(id, p.UserID)
		metrics.WebSocketInboundFramesTotal.WithLabelValues("join", "ok").Inc()

	case "chat-message":
		var p chatPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || !validChat(p) {
			metrics.WebSocketInboundFramesTotal.WithLabelValues("chat-message", "malformed").Inc()
			return
		}
		s.dispatcher.DispatchChat(p.From, p.To, p.Body)
		metrics.WebSocketInboundFramesTotal.WithLabelValues("chat-message", "ok").Inc()

	case "typing":
		var p typingPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.From == "" || p.To == "" {
			metrics.WebSocketInboundFramesTotal.WithLabelValues("typing", "malformed").Inc()
			return
		}
		s.dispatcher.DispatchTyping(p.From, p.To, p.IsTyping)
		metrics.WebSocketInboundFramesTotal.WithLabelValues("typing", "ok").Inc()

	default:
		metrics.WebSocketInboundFramesTotal.WithLabelValues(frame.Event, "malformed").Inc()
		slog.DebugContext(ctx, "Unknown event dropped", "connection_id", id.String(), "event", frame.Event)
	}
}

func validChat(p chatPayload) bool {
	if p.From == "" || p.To == "" || p.Body == "" {
		return false
	}
	if len(p.From) > maxUserIDBytes || len(p.To) > maxUserIDBytes {
		return false
	}
	return utf8.RuneCountInString(p.Body) <= maxChatBodyRunes
}
