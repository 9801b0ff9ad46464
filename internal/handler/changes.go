package handler

import (
	"net/http"

	"github.com/climatologylab/labsite/internal/auth"
	"github.com/climatologylab/labsite/internal/metrics"
	"github.com/climatologylab/labsite/internal/websocket"
)

// Changes announces dashboard content mutations to open dashboards and
// counts them.
type Changes struct {
	hub     *websocket.Hub
	metrics *metrics.App
}

func NewChanges(hub *websocket.Hub, m *metrics.App) *Changes {
	return &Changes{hub: hub, metrics: m}
}

func (c *Changes) record(r *http.Request, entity, action string, id int64) {
	if c == nil {
		return
	}
	if c.metrics != nil {
		c.metrics.ContentChanges.WithLabelValues(entity, action).Inc()
	}
	if c.hub != nil {
		var by string
		if sc, ok := auth.FromContext(r.Context()); ok {
			by = sc.Username
		}
		c.hub.Broadcast(websocket.NewMessage(entity, action, id, by))
	}
}

// isActive defaults a missing flag to true, matching new rows in the dashboard.
func isActive(b *bool) bool {
	return b == nil || *b
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
