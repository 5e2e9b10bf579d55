package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olahol/melody"

	"moneyflow/internal/core"
	"moneyflow/internal/log"
)

// EventFinanceChanged is the websocket event type sent after every change.
const EventFinanceChanged = "finance:changed"

// ChangeEvent is the websocket message telling dashboards to refetch.
type ChangeEvent struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Op     string `json:"op"`
	ID     string `json:"id,omitempty"`
	Month  string `json:"month,omitempty"`
}

// Hub fans change events out to every connected dashboard. Clients only
// listen; inbound messages are ignored.
type Hub struct {
	m      *melody.Melody
	logger *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	logger = logger.WithComponent(log.ComponentRealtime)

	m := melody.New()
	m.Config.MaxMessageSize = 4 * 1024
	// Keep idle connections alive behind proxies.
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		logger.Debug("Dashboard connected", log.FieldClientIP, s.Request.RemoteAddr)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		logger.Debug("Dashboard disconnected", log.FieldClientIP, s.Request.RemoteAddr)
	})
	m.HandleError(func(s *melody.Session, err error) {
		logger.Warn("WebSocket error", log.FieldError, err)
	})

	return &Hub{m: m, logger: logger}
}

// ServeHTTP upgrades the request to a websocket session.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.m.HandleRequest(w, r); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to upgrade websocket", log.FieldError, err)
	}
}

// Broadcast sends the change to every open session.
func (h *Hub) Broadcast(change core.Change) error {
	msg, err := json.Marshal(ChangeEvent{
		Type:   EventFinanceChanged,
		Entity: change.Entity,
		Op:     change.Op,
		ID:     change.ID,
		Month:  change.Month,
	})
	if err != nil {
		return err
	}
	if h.m.IsClosed() {
		return nil
	}
	return h.m.Broadcast(msg)
}

// Sessions returns the number of connected dashboards.
func (h *Hub) Sessions() int {
	return h.m.Len()
}

// Close disconnects every session.
func (h *Hub) Close() error {
	if h.m.IsClosed() {
		return nil
	}
	return h.m.Close()
}
