package dispatch

// Outbound event names. Content-mutation topics (new-story, story-updated,
// story-deleted, post-like-updated, post-comment-updated,
// article-comment-updated, ...) arrive from collaborators via Publish and
// are passed through verbatim; clients filter on them, the dispatcher does
// not interpret them.
const (
	EventChatMessage = "chat-message"
	EventTyping      = "typing"
	EventUserOnline  = "user-online"
)

// Envelope is the wire frame for every outbound event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ChatMessage is a direct message between two users. Delivery goes to every
// connection of the recipient and is echoed to every connection of the
// sender, so all of the sender's tabs see the message too.
type ChatMessage struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// TypingIndicator signals that a user started or stopped typing to another.
// Never echoed back to the sender.
type TypingIndicator struct {
	From     string `json:"from"`
	To       string `json:"to"`
	IsTyping bool   `json:"isTyping"`
}

// PresenceChanged announces a user's online/offline transition to everyone.
type PresenceChanged struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}
