package www

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"ccugateway/engine"
)

type SSEEvent struct {
	Event string
	Data  string
}

type EventHub struct {
	mu        sync.RWMutex
	clients   map[chan SSEEvent]struct{}
	broadcast chan SSEEvent
	stopChan  chan struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:   make(map[chan SSEEvent]struct{}),
		broadcast: make(chan SSEEvent, 256),
		stopChan:  make(chan struct{}),
	}
}

func (h *EventHub) Start() {
	go h.run()
}

func (h *EventHub) Stop() {
	select {
	case h.stopChan <- struct{}{}:
	default:
	}
}

func (h *EventHub) run() {
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-h.stopChan:
			return
		case evt := <-h.broadcast:
			h.mu.RLock()
			for ch := range h.clients {
				select {
				case ch <- evt:
				default:
					// drop if full
				}
			}
			h.mu.RUnlock()
		case <-keepalive.C:
			h.mu.RLock()
			for ch := range h.clients {
				select {
				case ch <- SSEEvent{Event: "keepalive", Data: "ping"}:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *EventHub) Broadcast(event, data string) {
	select {
	case h.broadcast <- SSEEvent{Event: event, Data: data}:
	default:
	}
}

func (h *EventHub) AddClient() chan SSEEvent {
	ch := make(chan SSEEvent, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) RemoveClient(ch chan SSEEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SSEHandler streams hub events to one client until it disconnects.
func (h *EventHub) SSEHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.AddClient()
	defer h.RemoveClient(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data)
			flusher.Flush()
		}
	}
}

// SetupBusListeners wires gateway events to SSE broadcasts.
func (h *EventHub) SetupBusListeners(bus *engine.EventBus) {
	bus.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.SensorUpdatedEvent)
		h.Broadcast("sensor-update", fmt.Sprintf(`{"topic":%q}`, ev.Topic))
	}, engine.EventSensorUpdated)

	bus.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.ModuleStatusChangedEvent)
		h.Broadcast("module-update", fmt.Sprintf(`{"serial":%q,"connected":%t,"availability":%q}`,
			ev.Serial, ev.Connected, ev.Availability))
	}, engine.EventModuleStatusChanged)

	bus.SubscribeTypes(func(evt engine.Event) {
		h.Broadcast("stock-update", `{"changed":true}`)
	}, engine.EventStockChanged)

	bus.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.OrderEvent)
		h.Broadcast("order-update", fmt.Sprintf(`{"type":"active","orderId":%q,"state":%q}`,
			ev.OrderID, ev.State))
	}, engine.EventOrderActive)

	bus.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.OrderEvent)
		h.Broadcast("order-update", fmt.Sprintf(`{"type":"completed","orderId":%q}`, ev.OrderID))
	}, engine.EventOrderCompleted)

	bus.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.MessageEvent)
		h.Broadcast("message-rejected", fmt.Sprintf(`{"topic":%q}`, ev.Topic))
	}, engine.EventMessageRejected)

	bus.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.ConnectionEvent)
		connected := evt.Type == engine.EventBrokerConnected
		h.Broadcast("broker-status", fmt.Sprintf(`{"connected":%t,"detail":%q}`, connected, ev.Detail))
	}, engine.EventBrokerConnected, engine.EventBrokerDisconnected)
}
