// Package inventory tracks the high-bay stock grid and publishes customer
// and raw-material order requests.
package inventory

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"ccugateway/messages"
	"ccugateway/registry"
)

// Workpiece colors.
const (
	ColorRed   = "RED"
	ColorBlue  = "BLUE"
	ColorWhite = "WHITE"
)

// Order types for ccu/order/request.
const (
	OrderTypeProduction = "PRODUCTION"
	OrderTypeStorage    = "STORAGE"
)

// Positions is the fixed high-bay grid, row-major.
var Positions = []string{"A1", "A2", "A3", "B1", "B2", "B3", "C1", "C2", "C3"}

const perColorTarget = 3

// Publisher is the outbound path; satisfied by the gateway.
type Publisher interface {
	Publish(topic string, payload any, qos byte, retain bool) bool
}

// Snapshot is the derived inventory view.
type Snapshot struct {
	Inventory  map[string]string `json:"inventory"` // position -> color or ""
	Available  map[string]int    `json:"available"`
	Need       map[string]int    `json:"need"`
	LastUpdate time.Time         `json:"last_update"`
}

// Manager owns the 3x3 stock grid.
type Manager struct {
	mu         sync.Mutex
	grid       map[string]string
	lastUpdate time.Time
	publisher  Publisher
}

func NewManager(publisher Publisher) *Manager {
	return &Manager{
		grid:      emptyGrid(),
		publisher: publisher,
	}
}

func emptyGrid() map[string]string {
	g := make(map[string]string, len(Positions))
	for _, p := range Positions {
		g[p] = ""
	}
	return g
}

func validColor(c string) bool {
	return c == ColorRed || c == ColorBlue || c == ColorWhite
}

// ProcessStock rebuilds the grid from a full stock snapshot. Previous cells
// are cleared first: the payload is the whole truth, not a delta.
func (m *Manager) ProcessStock(payload map[string]any, received time.Time) {
	items, _ := payload["stockItems"].([]any)

	grid := emptyGrid()
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		pos, _ := item["location"].(string)
		if _, known := grid[pos]; !known {
			continue
		}
		wp, _ := item["workpiece"].(map[string]any)
		color, _ := wp["type"].(string)
		if !validColor(color) {
			continue
		}
		grid[pos] = color
	}

	m.mu.Lock()
	m.grid = grid
	m.lastUpdate = received
	m.mu.Unlock()

	log.Printf("inventory: stock snapshot applied (%d items) at %s",
		len(items), received.Format("15:04:05"))
}

// Snapshot returns the current grid plus the derived per-color counts.
// Callers always get a complete view, even before the first stock message:
// the cold-start default is an empty grid with full need.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Inventory:  make(map[string]string, len(m.grid)),
		Available:  map[string]int{ColorRed: 0, ColorBlue: 0, ColorWhite: 0},
		Need:       map[string]int{},
		LastUpdate: m.lastUpdate,
	}
	for pos, color := range m.grid {
		snap.Inventory[pos] = color
		if color != "" {
			snap.Available[color]++
		}
	}
	for _, color := range []string{ColorRed, ColorBlue, ColorWhite} {
		need := perColorTarget - snap.Available[color]
		if need < 0 {
			need = 0
		}
		snap.Need[color] = need
	}
	return snap
}

// SendCustomerOrder publishes a PRODUCTION order request for one workpiece.
func (m *Manager) SendCustomerOrder(workpieceType string) bool {
	return m.sendOrderRequest(OrderTypeProduction, workpieceType)
}

// SendRawMaterialOrder publishes a STORAGE order request to restock.
func (m *Manager) SendRawMaterialOrder(workpieceType string) bool {
	return m.sendOrderRequest(OrderTypeStorage, workpieceType)
}

func (m *Manager) sendOrderRequest(orderType, workpieceType string) bool {
	if !validColor(workpieceType) {
		log.Printf("inventory: rejecting order request with workpiece %q", workpieceType)
		return false
	}
	payload := map[string]any{
		"orderId":   uuid.New().String(),
		"orderType": orderType,
		"type":      workpieceType,
		"timestamp": messages.FormatTimestamp(time.Now()),
	}
	ok := m.publisher.Publish(registry.TopicOrderRequest, payload, 1, false)
	if ok {
		log.Printf("inventory: sent %s order for %s (%s)", orderType, workpieceType, payload["orderId"])
	}
	return ok
}
