package engine

const (
	EventMessageAccepted EventType = iota + 1
	EventMessageRejected
	EventSensorUpdated
	EventModuleStatusChanged
	EventStockChanged
	EventOrderActive
	EventOrderCompleted
	EventCommandPublished
	EventBrokerConnected
	EventBrokerDisconnected
)

// --- Event payloads ---

type MessageEvent struct {
	Topic    string
	Retained bool
	Errors   []string // rejection reasons, empty for accepted
}

type SensorUpdatedEvent struct {
	Topic string
}

type ModuleStatusChangedEvent struct {
	Serial       string
	Connected    bool
	Availability string
}

type StockChangedEvent struct {
	Available map[string]int
	Need      map[string]int
}

type OrderEvent struct {
	OrderID   string
	OrderType string
	Workpiece string
	State     string
}

type CommandPublishedEvent struct {
	Topic   string
	Success bool
}

type ConnectionEvent struct {
	Detail string
}
