package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wefixit/wefixit-backend/internal/middleware"
	"github.com/wefixit/wefixit-backend/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = wsPongWait * 2 / 3
)

// EventSubscriber hands out admin event feeds.
type EventSubscriber interface {
	Subscribe() (<-chan services.Event, func())
}

type EventsHandler struct {
	hub      EventSubscriber
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

// NewEventsHandler accepts websocket upgrades from the allowed origins and
// from clients that send no Origin header.
func NewEventsHandler(hub EventSubscriber, allowedOrigins []string, logger *logrus.Logger) *EventsHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		logger: logger,
	}
}

// Stream upgrades to a websocket and forwards hub events until either side
// goes away. The route must sit behind the admin auth middleware.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	defer conn.Close()

	entry := h.logger.WithField("remote", r.RemoteAddr)
	if admin, ok := middleware.AdminFromContext(r.Context()); ok {
		entry = entry.WithField("admin", admin.Username)
	}
	entry.Info("Admin event stream opened")
	defer entry.Info("Admin event stream closed")

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	// The reader only services control frames; it signals when the peer leaves.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
