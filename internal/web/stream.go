package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
	middleware "github.com/tejusbharadwaj/renugrid/internal/grpc/middlewares"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleStream pushes the current state on connect and after every update
// until the client goes away or the store is closed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.logger.WithField("request_id", middleware.RequestID(r.Context()))
	log.Debug("Stream client connected")

	updates, cancel := s.store.Subscribe(4)
	defer cancel()

	// the reader only handles control frames and notices disconnects
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.push(conn, s.store.Snapshot()); err != nil {
		log.WithError(err).Debug("Stream write failed")
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			log.Debug("Stream client disconnected")
			return
		case <-r.Context().Done():
			return
		case st, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := s.push(conn, st); err != nil {
				log.WithError(err).Debug("Stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Debug("Stream ping failed")
				return
			}
		}
	}
}

func (s *Server) push(conn *websocket.Conn, st dashboard.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(NewStateView(st, s.loc))
}
