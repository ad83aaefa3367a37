package server

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"

	"github.com/labstack/echo/v4"
)

const maxPublishTopicBytes = 128

// publishRequest is the body request handlers send after mutating
// persistent state. The payload is opaque; clients filter on the topic.
type publishRequest struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// handlePublish broadcasts a content-mutation event to every connected
// client. Fire-and-forget: a valid request is always accepted, even when
// nobody is connected to receive it.
func (s *Server) handlePublish(c echo.Context) error {
	if s.config.PublishToken != "" {
		token := c.Request().Header.Get("X-Publish-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.PublishToken)) != 1 {
			return c.JSON(401, map[string]string{"error": "invalid publish token"})
		}
	}

	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request body"})
	}
	if req.Topic == "" || len(req.Topic) > maxPublishTopicBytes {
		return c.JSON(400, map[string]string{"error": "topic is required"})
	}
	if len(req.Payload) == 0 {
		req.Payload = json.RawMessage("null")
	}

	s.dispatcher.Publish(req.Topic, req.Payload)
	slog.Debug("Content mutation published", "topic", req.Topic)

	return c.JSON(202, map[string]string{"status": "accepted"})
}
