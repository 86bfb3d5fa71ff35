package statecache

import (
	"context"
	"log"
	"time"

	"ccugateway/engine"
	"ccugateway/gateway"
)

// Mirror subscribes to the event bus and refreshes the Redis keys whose
// source state changed. Refreshes are coalesced through a short ticker so a
// burst of retained-message replay does not hammer Redis.
type Mirror struct {
	store *Store
	gw    *gateway.Gateway

	dirty  chan engine.EventType
	stopCh chan struct{}
}

func NewMirror(store *Store, gw *gateway.Gateway, bus *engine.EventBus) *Mirror {
	m := &Mirror{
		store:  store,
		gw:     gw,
		dirty:  make(chan engine.EventType, 256),
		stopCh: make(chan struct{}),
	}
	bus.SubscribeTypes(func(evt engine.Event) {
		select {
		case m.dirty <- evt.Type:
		default:
			// The ticker refresh catches anything dropped here.
		}
	},
		engine.EventSensorUpdated,
		engine.EventModuleStatusChanged,
		engine.EventStockChanged,
		engine.EventOrderActive,
		engine.EventOrderCompleted,
	)
	return m
}

// Start flushes stale keys and begins the refresh loop.
func (m *Mirror) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := m.store.Flush(ctx); err != nil {
		log.Printf("statecache: flush: %v", err)
	}
	cancel()
	go m.run()
}

func (m *Mirror) Stop() {
	close(m.stopCh)
}

func (m *Mirror) run() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	pending := make(map[engine.EventType]struct{})
	for {
		select {
		case <-m.stopCh:
			return
		case t := <-m.dirty:
			pending[t] = struct{}{}
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			m.refresh(pending)
			pending = make(map[engine.EventType]struct{})
		}
	}
}

func (m *Mirror) refresh(pending map[engine.EventType]struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, ok := pending[engine.EventSensorUpdated]; ok {
		if err := m.store.SetSensors(ctx, m.gw.Sensors().GetAll()); err != nil {
			log.Printf("statecache: mirror sensors: %v", err)
		}
	}
	if _, ok := pending[engine.EventModuleStatusChanged]; ok {
		if err := m.store.SetModules(ctx, m.gw.Modules().All()); err != nil {
			log.Printf("statecache: mirror modules: %v", err)
		}
	}
	if _, ok := pending[engine.EventStockChanged]; ok {
		if err := m.store.SetStock(ctx, m.gw.Inventory().Snapshot()); err != nil {
			log.Printf("statecache: mirror stock: %v", err)
		}
	}
	if _, ok := pending[engine.EventOrderActive]; ok {
		if err := m.store.SetActiveOrders(ctx, m.gw.Production().ActiveOrders()); err != nil {
			log.Printf("statecache: mirror active orders: %v", err)
		}
	}
	if _, ok := pending[engine.EventOrderCompleted]; ok {
		if err := m.store.SetCompletedOrders(ctx, m.gw.Production().CompletedOrders()); err != nil {
			log.Printf("statecache: mirror completed orders: %v", err)
		}
		// Completion also shrinks the active set.
		if err := m.store.SetActiveOrders(ctx, m.gw.Production().ActiveOrders()); err != nil {
			log.Printf("statecache: mirror active orders: %v", err)
		}
	}
}
