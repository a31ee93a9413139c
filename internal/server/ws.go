package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"miden-wallet-lab/internal/flow"
	"miden-wallet-lab/internal/observability"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// flowSocket streams flow stage events to WebSocket clients. Each connection
// gets its own registry subscription; a client that stops reading loses
// events rather than stalling flows.
type flowSocket struct {
	registry *flow.Registry
	upgrader websocket.Upgrader
	log      *log.Logger
}

func newFlowSocket(registry *flow.Registry, logger *log.Logger) *flowSocket {
	return &flowSocket{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The UIs are served from other origins during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logger,
	}
}

func (s *flowSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Optional wallet filter: ?wallet=<address> narrows the stream to one
	// wallet's flows.
	wallet := r.URL.Query().Get("wallet")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("websocket upgrade failed: %v", err)
		return
	}

	observability.DefaultMetrics.WSConnections.Inc()
	defer observability.DefaultMetrics.WSConnections.Dec()
	defer conn.Close()

	events, cancel := s.registry.Subscribe()
	defer cancel()

	// The read loop only exists to observe the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if wallet != "" && ev.Wallet != wallet {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
