package websocket

import (
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"
)

// Message types sent to the admin UI.
const (
	MessageSitesChanged = "sites_changed"
	MessagePagesChanged = "pages_changed"
	MessageReload       = "reload"
)

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// client is one connected browser.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	addr    string
}
