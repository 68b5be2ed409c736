// Package live streams recorded check results to the dashboard over a
// websocket.
package live

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pagewatch/internal/api/auth"
	"pagewatch/internal/events"
)

const (
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	subscriberSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts requests without an Origin header and requests whose
// Origin host matches the requested host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(r.Host))
	originHost := strings.ToLower(strings.TrimSpace(u.Host))
	return host == originHost
}

// Handler upgrades authenticated requests and forwards the caller's events.
type Handler struct {
	broker *events.Broker
}

// NewHandler creates a live feed handler reading from broker.
func NewHandler(broker *events.Broker) *Handler {
	return &Handler{broker: broker}
}

// Stream handles GET /api/v1/live
//
// Every PageCheck recorded for one of the caller's websites is written as a
// JSON text message. Client messages are read and discarded.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		log.Debug().Err(err).Msg("Live feed upgrade failed")
		return
	}

	userID := auth.UserID(c)
	sub := h.broker.Subscribe(userID, subscriberSize)
	log.Debug().Uint("user_id", userID).Msg("Live feed subscriber connected")

	h.serve(conn, sub)

	log.Debug().Uint("user_id", userID).Msg("Live feed subscriber disconnected")
}

func (h *Handler) serve(conn *websocket.Conn, sub *events.Subscription) {
	defer conn.Close()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
