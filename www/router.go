// Package www is the operator poll surface: a read-mostly JSON API over the
// gateway's managers plus an SSE feed of live events. The UI itself renders
// elsewhere; it only polls and listens here.
package www

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ccugateway/engine"
	"ccugateway/gateway"
)

type Handlers struct {
	gw       *gateway.Gateway
	eventHub *EventHub
}

// NewRouter builds the HTTP handler. The returned stop function halts the
// SSE hub.
func NewRouter(gw *gateway.Gateway, bus *engine.EventBus) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupBusListeners(bus)

	h := &Handlers{gw: gw, eventHub: hub}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/events", hub.SSEHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealth)
		r.Get("/sensors", h.apiSensors)
		r.Get("/sensors/statistics", h.apiSensorStatistics)
		r.Get("/modules", h.apiModules)
		r.Get("/stock", h.apiStock)
		r.Get("/orders/active", h.apiActiveOrders)
		r.Get("/orders/completed", h.apiCompletedOrders)
		r.Get("/orders/plan", h.apiOrderPlan)
		r.Get("/messages", h.apiMessages)

		r.Post("/factory/reset", h.apiFactoryReset)
		r.Post("/messages/clear", h.apiClearMessages)
		r.Post("/orders", h.apiCreateOrder)
		r.Post("/charge", h.apiCharge)
		r.Post("/fts/action", h.apiFTSAction)
		r.Post("/camera", h.apiCamera)
	})

	return r, hub.Stop
}

func (h *Handlers) jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
