package production

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"ccugateway/registry"
)

// Manager tracks active and completed orders plus the raw MQTT step events
// collected per order. One mutex guards all three maps; every read hands out
// defensive copies.
type Manager struct {
	mu sync.Mutex

	reg       *registry.Registry
	workflows map[string][]string

	active    map[string]*Order
	completed map[string]*Order
	mqttSteps map[string][]Step

	lastActiveUpdate time.Time
}

func NewManager(reg *registry.Registry, workflows map[string][]string) *Manager {
	return &Manager{
		reg:       reg,
		workflows: workflows,
		active:    make(map[string]*Order),
		completed: make(map[string]*Order),
		mqttSteps: make(map[string][]Step),
	}
}

// ProcessActive ingests a ccu/order/active payload: an array of orders, the
// broker's full view. A null or empty array clears the active set. Orders
// without an id are skipped; duplicate ids within one array are test-data
// noise, logged and last-write-wins.
func (m *Manager) ProcessActive(raw []byte) error {
	var orders []Order
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &orders); err != nil {
			return fmt.Errorf("production: decode active orders: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(orders) == 0 {
		if len(m.active) > 0 {
			log.Printf("production: clearing %d active order(s)", len(m.active))
		}
		m.active = make(map[string]*Order)
		m.lastActiveUpdate = time.Now()
		return nil
	}

	for i := range orders {
		order := orders[i]
		if order.OrderID == "" {
			log.Printf("production: skipping active order without orderId")
			continue
		}
		if _, dup := m.active[order.OrderID]; dup {
			log.Printf("production: duplicate orderId %s in active set, overwriting", order.OrderID)
		}
		m.active[order.OrderID] = &order
	}
	m.lastActiveUpdate = time.Now()
	return nil
}

// ProcessCompleted moves orders named in a ccu/order/completed payload from
// the active set into the completed set. Removal and insertion happen under
// the same lock hold.
func (m *Manager) ProcessCompleted(raw []byte) error {
	var orders []Order
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &orders); err != nil {
			return fmt.Errorf("production: decode completed orders: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range orders {
		order := orders[i]
		if order.OrderID == "" {
			continue
		}
		if _, dup := m.completed[order.OrderID]; dup {
			log.Printf("production: duplicate orderId %s in completed set, overwriting", order.OrderID)
		}
		delete(m.active, order.OrderID)
		m.completed[order.OrderID] = &order
	}
	return nil
}

// Wire shapes for action-state extraction. Modules disagree on where the
// orderId lives, so both levels are read.
type stateMessage struct {
	SerialNumber string       `json:"serialNumber"`
	OrderID      string       `json:"orderId"`
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	ActionState  *actionState `json:"actionState"`
}

type actionState struct {
	ID                string `json:"id"`
	OrderID           string `json:"orderId"`
	Command           string `json:"command"`
	State             string `json:"state"`
	StartedAt         string `json:"startedAt"`
	StoppedAt         string `json:"stoppedAt"`
	DependentActionID string `json:"dependentActionId"`
	Source            string `json:"source"`
	Target            string `json:"target"`
}

// ProcessModuleState records the action state from a processing module's
// state topic as a MANUFACTURE step event.
func (m *Manager) ProcessModuleState(raw []byte) error {
	return m.appendActionState(raw, StepManufacture)
}

// ProcessFTSState records the transport vehicle's action state as a
// NAVIGATION step event.
func (m *Manager) ProcessFTSState(raw []byte) error {
	return m.appendActionState(raw, StepNavigation)
}

// ProcessCCUResponse records a step event from the ccu/order/response topic.
// The step type is inferred: navigation endpoints mean NAVIGATION.
func (m *Manager) ProcessCCUResponse(raw []byte) error {
	return m.appendActionState(raw, "")
}

func (m *Manager) appendActionState(raw []byte, stepType string) error {
	var msg stateMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("production: decode state message: %w", err)
	}
	as := msg.ActionState
	if as == nil {
		// State messages without an action in flight are routine.
		return nil
	}

	orderID := as.OrderID
	if orderID == "" {
		orderID = msg.OrderID
	}
	if orderID == "" {
		return nil
	}

	source := as.Source
	if source == "" {
		source = msg.Source
	}
	target := as.Target
	if target == "" {
		target = msg.Target
	}
	if stepType == "" {
		if source != "" || target != "" {
			stepType = StepNavigation
		} else {
			stepType = StepManufacture
		}
	}

	step := Step{
		ID:                as.ID,
		Type:              stepType,
		State:             as.State,
		StartedAt:         as.StartedAt,
		StoppedAt:         as.StoppedAt,
		SerialNumber:      msg.SerialNumber,
		DependentActionID: as.DependentActionID,
	}
	switch stepType {
	case StepNavigation:
		step.Source = source
		step.Target = target
	case StepManufacture:
		step.Command = as.Command
		if mod, ok := m.reg.Module(msg.SerialNumber); ok {
			step.ModuleType = mod.Name
		}
	}

	m.mu.Lock()
	m.mqttSteps[orderID] = append(m.mqttSteps[orderID], step)
	m.mu.Unlock()
	return nil
}

// Plan returns the synthetic plan for an order. PRODUCTION plans are always
// regenerated from the workpiece workflow; broker-provided steps only enter
// via the merge. STORAGE orders take the broker steps verbatim.
func (m *Manager) Plan(order *Order) []Step {
	if order.OrderType == OrderTypeStorage {
		return append([]Step(nil), order.ProductionSteps...)
	}
	workflow, ok := m.workflows[order.Type]
	if !ok {
		log.Printf("production: no workflow for workpiece %q, empty plan", order.Type)
		return nil
	}
	return GeneratePlan(workflow)
}

// MergedPlan computes the plan for an order with live step status overlaid.
// The merge runs from scratch on the full event list every call.
func (m *Manager) MergedPlan(orderID string) ([]Step, bool) {
	m.mu.Lock()
	order, ok := m.active[orderID]
	if !ok {
		order, ok = m.completed[orderID]
	}
	if !ok {
		m.mu.Unlock()
		return nil, false
	}
	orderCopy := *order
	events := append([]Step(nil), m.mqttSteps[orderID]...)
	m.mu.Unlock()

	return Merge(m.Plan(&orderCopy), events), true
}

// CurrentModule names the module an active order is at right now, for UI
// highlighting. Empty when the order is unknown or nothing is in flight.
func (m *Manager) CurrentModule(orderID string) string {
	merged, ok := m.MergedPlan(orderID)
	if !ok {
		return ""
	}
	return ActiveModule(merged)
}

// CurrentIntersections returns the navigation endpoints of the order's
// active transport leg.
func (m *Manager) CurrentIntersections(orderID string) (source, target string, ok bool) {
	merged, found := m.MergedPlan(orderID)
	if !found {
		return "", "", false
	}
	return ActiveIntersections(merged)
}

// ActiveOrders returns a sorted snapshot of the active set.
func (m *Manager) ActiveOrders() []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedOrders(m.active)
}

// CompletedOrders returns a sorted snapshot of the completed set.
func (m *Manager) CompletedOrders() []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedOrders(m.completed)
}

// Counts returns the active and completed totals.
func (m *Manager) Counts() (active, completed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active), len(m.completed)
}

// StepEvents returns the raw MQTT step records collected for an order.
func (m *Manager) StepEvents(orderID string) []Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Step(nil), m.mqttSteps[orderID]...)
}

// LastActiveUpdate reports when the active set last changed.
func (m *Manager) LastActiveUpdate() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActiveUpdate
}

func sortedOrders(set map[string]*Order) []Order {
	out := make([]Order, 0, len(set))
	for _, o := range set {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}
