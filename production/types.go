// Package production tracks live production and storage orders and
// reconciles the synthetic production plan against the action-state events
// the shop floor reports over MQTT.
package production

// Order and step states, shared wire vocabulary.
const (
	StatePending    = "PENDING"
	StateEnqueued   = "ENQUEUED"
	StateInProgress = "IN_PROGRESS"
	StateFinished   = "FINISHED"
	StateFailed     = "FAILED"
)

// Order types.
const (
	OrderTypeProduction = "PRODUCTION"
	OrderTypeStorage    = "STORAGE"
)

// Step types.
const (
	StepNavigation  = "NAVIGATION"
	StepManufacture = "MANUFACTURE"
)

// Step commands beyond the per-station processing commands.
const (
	CommandPick = "PICK"
	CommandDrop = "DROP"
)

// Fixed plan endpoints.
const (
	StationHBW = "HBW"
	StationDPS = "DPS"
)

// Order is one production or storage order as delivered on the order topics.
type Order struct {
	OrderID         string `json:"orderId"`
	OrderType       string `json:"orderType"`
	Type            string `json:"type"` // workpiece color
	State           string `json:"state"`
	ProductionSteps []Step `json:"productionSteps"`
	ReceivedAt      string `json:"receivedAt,omitempty"`
	StartedAt       string `json:"startedAt,omitempty"`
	StoppedAt       string `json:"stoppedAt,omitempty"`
	WorkpieceID     string `json:"workpieceId,omitempty"`
}

// Step is one element of a plan. Synthetic plan steps carry stable string
// ids ("hbw_pick", "nav_to_mill", ...); live MQTT steps carry the real
// action id.
type Step struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	Source            string `json:"source,omitempty"`
	Target            string `json:"target,omitempty"`
	ModuleType        string `json:"moduleType,omitempty"`
	Command           string `json:"command,omitempty"`
	State             string `json:"state"`
	StartedAt         string `json:"startedAt,omitempty"`
	StoppedAt         string `json:"stoppedAt,omitempty"`
	SerialNumber      string `json:"serialNumber,omitempty"`
	DependentActionID string `json:"dependentActionId,omitempty"`
	Description       string `json:"description,omitempty"`

	// Raw MQTT attributes stashed on merged steps for diagnostics.
	MQTTID         string `json:"mqttId,omitempty"`
	MQTTSource     string `json:"mqttSource,omitempty"`
	MQTTTarget     string `json:"mqttTarget,omitempty"`
	MQTTModuleType string `json:"mqttModuleType,omitempty"`
	MQTTCommand    string `json:"mqttCommand,omitempty"`
}
