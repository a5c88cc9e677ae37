package http

import (
	"net/http"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/Zainify/onlineportal-sub001/internal/notify"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
	writeWait        = 10 * time.Second
)

type NotificationHandler struct {
	dispatcher *notify.Dispatcher
	hub        *notify.Hub
	upgrader   websocket.Upgrader
}

func NewNotificationHandler(dispatcher *notify.Dispatcher, hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		hub:        hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Feed lists the caller's stored notifications, newest first.
func (h *NotificationHandler) Feed(c *gin.Context) {
	limit := atoiDefault(c.Query("limit"), defaultFeedLimit)
	if limit < 1 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	items, err := h.dispatcher.Feed(c.Request.Context(), identity(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	c.JSON(http.StatusOK, items)
}

// ServeWS upgrades the request and pushes every notification addressed to the caller
// until the client disconnects.
func (h *NotificationHandler) ServeWS(c *gin.Context) {
	id := identity(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(id)
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("user_id", id.UserID).Msg("ws write error")
				conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case n, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "notification", Payload: n}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage{Type: "subscribed"}

	// Inbound frames are ignored; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
