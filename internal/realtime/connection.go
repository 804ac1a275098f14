package realtime

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ServeConn bridges one websocket connection to a hub subscription: frames
// from the subscription are written to the socket, and the socket is kept
// alive with pings. Returns when the peer disconnects, stops answering
// pings, or the subscription is closed; the subscription is unsubscribed
// before returning.
func ServeConn(hub *Hub, conn *websocket.Conn, sub *Subscription, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	defer func() {
		hub.Unsubscribe(sub)
		conn.Close()
	}()

	// Reader only services control frames; client payloads are ignored.
	go func() {
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unsubscribe(sub)
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-sub.C():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("websocket write failed",
					slog.String("thread_id", sub.ThreadID()),
					slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
