package www

import (
	"encoding/json"
	"net/http"

	"ccugateway/gateway"
)

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	active, completed := h.gw.Production().Counts()
	h.jsonOK(w, map[string]any{
		"status":           "ok",
		"active_orders":    active,
		"completed_orders": completed,
		"sse_clients":      h.eventHub.ClientCount(),
	})
}

func (h *Handlers) apiSensors(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.gw.Sensors().GetAll())
}

func (h *Handlers) apiSensorStatistics(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.gw.Sensors().Statistics())
}

func (h *Handlers) apiModules(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.gw.Modules().All())
}

func (h *Handlers) apiStock(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.gw.Inventory().Snapshot())
}

func (h *Handlers) apiActiveOrders(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.gw.Production().ActiveOrders())
}

func (h *Handlers) apiCompletedOrders(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.gw.Production().CompletedOrders())
}

func (h *Handlers) apiOrderPlan(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.jsonError(w, "missing id", http.StatusBadRequest)
		return
	}
	plan, ok := h.gw.Production().MergedPlan(id)
	if !ok {
		h.jsonError(w, "order not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, map[string]any{
		"orderId":       id,
		"steps":         plan,
		"currentModule": h.gw.Production().CurrentModule(id),
	})
}

func (h *Handlers) apiMessages(w http.ResponseWriter, r *http.Request) {
	if topic := r.URL.Query().Get("topic"); topic != "" {
		h.jsonOK(w, h.gw.Messages().History(topic))
		return
	}
	h.jsonOK(w, h.gw.Messages().Buffers())
}

func (h *Handlers) apiClearMessages(w http.ResponseWriter, r *http.Request) {
	h.gw.Messages().ClearHistory()
	h.jsonOK(w, map[string]string{"status": "cleared"})
}

func (h *Handlers) apiFactoryReset(w http.ResponseWriter, r *http.Request) {
	if !h.gw.ResetFactory() {
		h.jsonError(w, "publish failed", http.StatusBadGateway)
		return
	}
	h.jsonOK(w, map[string]string{"status": "sent"})
}

type orderRequest struct {
	OrderType string `json:"orderType"` // PRODUCTION or STORAGE
	Type      string `json:"type"`      // workpiece color
}

func (h *Handlers) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid body", http.StatusBadRequest)
		return
	}
	var ok bool
	switch req.OrderType {
	case "PRODUCTION":
		ok = h.gw.SendCustomerOrder(req.Type)
	case "STORAGE":
		ok = h.gw.SendRawMaterialOrder(req.Type)
	default:
		h.jsonError(w, "unknown orderType", http.StatusBadRequest)
		return
	}
	if !ok {
		h.jsonError(w, "publish failed", http.StatusBadGateway)
		return
	}
	h.jsonOK(w, map[string]string{"status": "sent"})
}

type chargeRequest struct {
	Module string `json:"module"`
	Charge bool   `json:"charge"`
}

func (h *Handlers) apiCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !h.gw.SendChargeCommand(req.Module, req.Charge) {
		h.jsonError(w, "publish failed", http.StatusBadGateway)
		return
	}
	h.jsonOK(w, map[string]string{"status": "sent"})
}

type ftsActionRequest struct {
	Action   string         `json:"action"` // dock or undock
	Metadata map[string]any `json:"metadata"`
}

func (h *Handlers) apiFTSAction(w http.ResponseWriter, r *http.Request) {
	var req ftsActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid body", http.StatusBadRequest)
		return
	}
	var actionType string
	switch req.Action {
	case "dock":
		actionType = gateway.FTSActionDock
	case "undock":
		actionType = gateway.FTSActionUndock
	default:
		h.jsonError(w, "unknown action", http.StatusBadRequest)
		return
	}
	if !h.gw.SendFTSInstantAction(actionType, req.Metadata) {
		h.jsonError(w, "publish failed", http.StatusBadGateway)
		return
	}
	h.jsonOK(w, map[string]string{"status": "sent"})
}

type cameraRequest struct {
	Cmd    string  `json:"cmd"`
	Degree float64 `json:"degree"`
}

func (h *Handlers) apiCamera(w http.ResponseWriter, r *http.Request) {
	var req cameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !h.gw.SendCameraCommand(req.Cmd, req.Degree) {
		h.jsonError(w, "publish failed", http.StatusBadGateway)
		return
	}
	h.jsonOK(w, map[string]string{"status": "sent"})
}
