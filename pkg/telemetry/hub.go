// Package telemetry publishes control loop snapshots over a websocket and
// accepts host command lines from the same connection.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gwillem/armctl/pkg/control"
	"github.com/gwillem/armctl/pkg/host"
)

const writeWait = 200 * time.Millisecond

// Hub fans snapshots out to every connected client. Text frames from a
// client are parsed as host command lines.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	cmds    chan<- host.Command
	log     zerolog.Logger
	up      websocket.Upgrader
}

// NewHub creates a Hub that forwards host commands to cmds.
func NewHub(cmds chan<- host.Command, log zerolog.Logger) *Hub {
	return &Hub{
		clients: map[*websocket.Conn]bool{},
		cmds:    cmds,
		log:     log,
		up:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Handler returns the HTTP routes: /ws and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWS upgrades the request and reads command lines until the client
// goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.log.Info().Str("remote", r.RemoteAddr).Msg("telemetry client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
		h.log.Info().Str("remote", r.RemoteAddr).Msg("telemetry client gone")
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		for _, cmd := range host.Parse(string(data)) {
			select {
			case h.cmds <- cmd:
			case <-r.Context().Done():
				return
			}
		}
	}
}

// HandleHealth reports the number of connected clients.
func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"clients": h.Clients()})
}

// Broadcast sends s to every client. Clients that fail the write are
// dropped.
func (h *Hub) Broadcast(s control.Snapshot) {
	b, err := json.Marshal(s)
	if err != nil {
		h.log.Error().Err(err).Msg("encode snapshot")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug().Err(err).Msg("write snapshot")
			delete(h.clients, c)
			c.Close()
		}
	}
}

// Run broadcasts every snapshot from states until ctx is done or states
// is closed.
func (h *Hub) Run(ctx context.Context, states <-chan control.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			h.Broadcast(s)
		}
	}
}

// ListenAndServe serves the hub on addr until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	h.log.Info().Str("addr", addr).Msg("telemetry listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
