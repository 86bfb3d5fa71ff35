// Package gateway is the routing hub: every inbound broker message enters
// through OnMessage, is validated against the registry schema, and fans out
// to the domain state managers. The outbound publish path lives here too.
package gateway

import (
	"encoding/json"
	"log"
	"time"

	"ccugateway/config"
	"ccugateway/engine"
	"ccugateway/inventory"
	"ccugateway/messages"
	"ccugateway/modules"
	"ccugateway/production"
	"ccugateway/registry"
	"ccugateway/sensors"
	"ccugateway/topics"
)

// Publisher is the broker publish path; satisfied by messaging.Client.
type Publisher interface {
	Publish(topic string, payload any, qos byte, retain bool) bool
}

// Exporter is the optional analytics fan-out; a nil implementation is fine.
type Exporter interface {
	Export(topic string, raw []byte, retained bool)
}

// Gateway owns the managers by value. One Gateway is constructed per
// process; everything that needs shared state holds the same instance.
type Gateway struct {
	reg       *registry.Registry
	publisher Publisher
	exporter  Exporter
	bus       *engine.EventBus
	debug     bool

	messages   *messages.Manager
	sensors    *sensors.Manager
	modules    *modules.Manager
	inventory  *inventory.Manager
	production *production.Manager

	sensorTopics    map[string]struct{}
	stockTopics     map[string]struct{}
	productionRoute map[string]func([]byte) error
}

// New wires the gateway and its managers. The publisher may be nil in tests;
// publishing then fails with a logged error instead of panicking.
func New(cfg *config.Config, reg *registry.Registry, publisher Publisher, exporter Exporter, bus *engine.EventBus) *Gateway {
	g := &Gateway{
		reg:       reg,
		publisher: publisher,
		exporter:  exporter,
		bus:       bus,
		debug:     cfg.Debug(),
		messages:  messages.NewManager(reg, messages.DefaultHistory),
		sensors:   sensors.NewManager(),
		modules:   modules.NewManager(reg),
	}
	g.inventory = inventory.NewManager(g)
	g.production = production.NewManager(reg, cfg.Workflows.Production)

	g.sensorTopics = topicSet(reg.MQTTSubscriptions("sensor"))
	g.stockTopics = topicSet(reg.MQTTSubscriptions("inventory"))
	g.productionRoute = g.buildProductionRoute()
	return g
}

func topicSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, t := range list {
		set[t] = struct{}{}
	}
	return set
}

// buildProductionRoute precomputes the per-topic production dispatch table so
// the hot path does no allocation or pattern matching.
func (g *Gateway) buildProductionRoute() map[string]func([]byte) error {
	route := map[string]func([]byte) error{
		registry.TopicOrderActive:    g.production.ProcessActive,
		registry.TopicOrderCompleted: g.production.ProcessCompleted,
		registry.TopicOrderResponse:  g.production.ProcessCCUResponse,
		registry.TopicOrderRequest: func([]byte) error {
			// The CCU publishes this topic; inbound copies are broker echo.
			log.Printf("gateway: order request echo observed")
			return nil
		},
	}
	// Action states feeding the plan merge come from the FTS plus the
	// stations that confirm workpiece handover.
	for _, name := range []string{"HBW", "AIQS", "DPS"} {
		if serial, ok := g.reg.ResolveSerial(name); ok {
			route[registry.PrefixModule+serial+"/state"] = g.production.ProcessModuleState
		}
	}
	if serial, ok := g.reg.ResolveSerial("FTS"); ok {
		route[registry.PrefixFTS+serial+"/state"] = g.production.ProcessFTSState
	}
	return route
}

// OnMessage is the single inbound entry point, called by the MQTT client in
// per-topic arrival order. Returns false when the message was rejected or a
// handler failed; errors never propagate past this boundary.
func (g *Gateway) OnMessage(topic string, raw []byte, qos byte, retained bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("gateway: handler panic on %s: %v", topic, r)
			ok = false
		}
	}()

	received := time.Now()

	var payload any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			log.Printf("gateway: dropping %s: invalid JSON: %v", topic, err)
			g.emitRejected(topic, retained, []string{"invalid JSON"})
			return false
		}
	}

	if res := g.messages.Validate(topic, payload); !res.OK() {
		log.Printf("gateway: dropping %s: validation failed: %v", topic, res.Errors)
		g.emitRejected(topic, retained, res.Errors)
		return false
	}

	g.messages.Append(messages.Record{
		Topic:     topic,
		Payload:   payload,
		Raw:       raw,
		Timestamp: received,
		QoS:       qos,
		Retained:  retained,
	})
	g.exportAccepted(topic, raw, retained)

	if err := g.route(topic, raw, payload, received); err != nil {
		log.Printf("gateway: handler error on %s: %v", topic, err)
		return false
	}
	g.emit(engine.EventMessageAccepted, engine.MessageEvent{Topic: topic, Retained: retained})
	return true
}

// route applies the first-match rule list. Module and FTS state topics that
// also carry order action states fan out to the production manager after the
// status update; everything else stops at its first handler.
func (g *Gateway) route(topic string, raw []byte, payload any, received time.Time) error {
	if _, ok := g.sensorTopics[topic]; ok {
		obj, _ := payload.(map[string]any)
		g.sensors.Process(topic, obj, received)
		g.emit(engine.EventSensorUpdated, engine.SensorUpdatedEvent{Topic: topic})
		return nil
	}

	if cls := topics.Classify(topic); cls == topics.ClassModule || cls == topics.ClassFTS || topic == registry.TopicPairingState {
		if obj, isObj := payload.(map[string]any); isObj && topic != registry.TopicPairingState {
			if g.modules.Process(topic, obj) {
				status := g.modules.Status(topics.Serial(topic))
				g.emit(engine.EventModuleStatusChanged, engine.ModuleStatusChangedEvent{
					Serial:       status.Serial,
					Connected:    status.Connected,
					Availability: status.Availability,
				})
			} else {
				g.debugf("gateway: state for unknown serial on %s ignored", topic)
			}
		}
		if handler, ok := g.productionRoute[topic]; ok {
			return handler(raw)
		}
		return nil
	}

	if _, ok := g.stockTopics[topic]; ok {
		obj, _ := payload.(map[string]any)
		g.inventory.ProcessStock(obj, received)
		snap := g.inventory.Snapshot()
		g.emit(engine.EventStockChanged, engine.StockChangedEvent{
			Available: snap.Available,
			Need:      snap.Need,
		})
		return nil
	}

	if handler, ok := g.productionRoute[topic]; ok {
		if err := handler(raw); err != nil {
			return err
		}
		g.emitOrderEvents(topic)
		return nil
	}

	g.debugf("gateway: no handler for %s", topic)
	return nil
}

func (g *Gateway) emitOrderEvents(topic string) {
	switch topic {
	case registry.TopicOrderActive:
		for _, o := range g.production.ActiveOrders() {
			g.emit(engine.EventOrderActive, engine.OrderEvent{
				OrderID:   o.OrderID,
				OrderType: o.OrderType,
				Workpiece: o.Type,
				State:     o.State,
			})
		}
	case registry.TopicOrderCompleted:
		for _, o := range g.production.CompletedOrders() {
			g.emit(engine.EventOrderCompleted, engine.OrderEvent{
				OrderID:   o.OrderID,
				OrderType: o.OrderType,
				Workpiece: o.Type,
				State:     o.State,
			})
		}
	}
}

// PublishMessage serializes and publishes with the given QoS and retain
// flag. Failures are logged and returned as false; no retry.
func (g *Gateway) PublishMessage(topic string, payload any, qos byte, retain bool) bool {
	if g.publisher == nil {
		log.Printf("gateway: publish %s: no broker client", topic)
		return false
	}
	ok := g.publisher.Publish(topic, payload, qos, retain)
	g.emit(engine.EventCommandPublished, engine.CommandPublishedEvent{Topic: topic, Success: ok})
	return ok
}

// Publish implements inventory.Publisher.
func (g *Gateway) Publish(topic string, payload any, qos byte, retain bool) bool {
	return g.PublishMessage(topic, payload, qos, retain)
}

func (g *Gateway) emit(t engine.EventType, payload any) {
	if g.bus != nil {
		g.bus.Emit(engine.Event{Type: t, Payload: payload})
	}
}

func (g *Gateway) emitRejected(topic string, retained bool, errs []string) {
	g.emit(engine.EventMessageRejected, engine.MessageEvent{Topic: topic, Retained: retained, Errors: errs})
}

func (g *Gateway) exportAccepted(topic string, raw []byte, retained bool) {
	if g.exporter != nil {
		g.exporter.Export(topic, raw, retained)
	}
}

func (g *Gateway) debugf(format string, args ...any) {
	if g.debug {
		log.Printf(format, args...)
	}
}

// Manager accessors for the operator surface.

func (g *Gateway) Messages() *messages.Manager     { return g.messages }
func (g *Gateway) Sensors() *sensors.Manager       { return g.sensors }
func (g *Gateway) Modules() *modules.Manager       { return g.modules }
func (g *Gateway) Inventory() *inventory.Manager   { return g.inventory }
func (g *Gateway) Production() *production.Manager { return g.production }
func (g *Gateway) Registry() *registry.Registry    { return g.reg }
