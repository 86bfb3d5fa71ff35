package registry

// Topic constants used across the gateway.
const (
	TopicSensorBME680 = "/j1/txt/1/i/bme680"
	TopicSensorLDR    = "/j1/txt/1/i/ldr"
	TopicSensorCam    = "/j1/txt/1/i/cam"
	TopicStock        = "/j1/txt/1/f/i/stock"
	TopicCameraPTU    = "/j1/txt/1/o/ptu"

	TopicOrderActive    = "ccu/order/active"
	TopicOrderCompleted = "ccu/order/completed"
	TopicOrderRequest   = "ccu/order/request"
	TopicOrderResponse  = "ccu/order/response"
	TopicPairingState   = "ccu/pairing/state"
	TopicFactoryReset   = "ccu/set/reset"
	TopicCharge         = "ccu/set/charge"
	TopicGlobal         = "ccu/global"

	PrefixModule = "module/v1/ff/"
	PrefixFTS    = "fts/v1/ff/"
)

// Default returns the compiled-in catalog for the standard model factory.
// It mirrors the shipped catalog yaml so cold starts and tests work without
// an external file.
func Default() *Registry {
	modules := []ModuleInfo{
		{Serial: "SVR3QA0022", Name: "HBW", Type: TypeStorage, Icon: "warehouse", Commands: []string{"PICK", "DROP", "STORE"}, IPRange: "192.168.0.80/28"},
		{Serial: "SVR3QA2178", Name: "MILL", Type: TypeProcessing, Icon: "mill", Commands: []string{"PICK", "MILL", "DROP"}, IPRange: "192.168.0.40/28"},
		{Serial: "SVR4H76449", Name: "DRILL", Type: TypeProcessing, Icon: "drill", Commands: []string{"PICK", "DRILL", "DROP"}, IPRange: "192.168.0.50/28"},
		{Serial: "SVR4H76530", Name: "AIQS", Type: TypeQuality, Icon: "camera-check", Commands: []string{"PICK", "CHECK_QUALITY", "DROP"}, IPRange: "192.168.0.60/28"},
		{Serial: "SVR4H73275", Name: "DPS", Type: TypeInputOut, Icon: "conveyor", Commands: []string{"PICK", "DROP", "INPUT_RGB", "RGB_NFC"}, IPRange: "192.168.0.90/28"},
		{Serial: "5iO4", Name: "FTS", Type: TypeTransport, Icon: "agv", Commands: []string{"DOCK", "UNDOCK", "CHARGE"}, IPRange: "192.168.0.100/28"},
		{Serial: "CHRG0", Name: "CHRG", Type: TypeCharging, Icon: "charging-station", Commands: []string{}, IPRange: "192.168.0.70/28"},
	}

	schemas := map[string]map[string]FieldSpec{
		TopicSensorBME680: {
			"ts":  {Kind: KindString},
			"t":   {Kind: KindNumber, Required: true},
			"rt":  {Kind: KindNumber},
			"h":   {Kind: KindNumber, Required: true},
			"rh":  {Kind: KindNumber},
			"p":   {Kind: KindNumber, Required: true},
			"iaq": {Kind: KindNumber, Required: true},
			"aq":  {Kind: KindNumber},
		},
		TopicSensorLDR: {
			"ts":  {Kind: KindString},
			"ldr": {Kind: KindNumber, Required: true},
			"br":  {Kind: KindNumber},
		},
		TopicSensorCam: {
			"ts":   {Kind: KindString},
			"data": {Kind: KindString, Required: true},
		},
		TopicStock: {
			"ts":         {Kind: KindString},
			"stockItems": {Kind: KindArray, Required: true},
		},
		TopicOrderRequest: {
			"orderId":   {Kind: KindString, Required: true},
			"orderType": {Kind: KindString, Required: true},
			"type":      {Kind: KindString, Required: true},
			"timestamp": {Kind: KindString, Required: true},
		},
		TopicFactoryReset: {
			"reset":     {Kind: KindBool, Required: true},
			"timestamp": {Kind: KindString, Required: true},
		},
		TopicCharge: {
			"serialNumber": {Kind: KindString, Required: true},
			"charge":       {Kind: KindBool, Required: true},
			"timestamp":    {Kind: KindString},
		},
		TopicGlobal: {
			"command":   {Kind: KindString, Required: true},
			"params":    {Kind: KindObject},
			"timestamp": {Kind: KindString, Required: true},
		},
		TopicCameraPTU: {
			"ts":     {Kind: KindString, Required: true},
			"cmd":    {Kind: KindString, Required: true},
			"degree": {Kind: KindNumber},
		},
	}

	// Per-serial module topics get connection schemas; state and factsheet
	// payloads vary too much between firmware revisions to pin down.
	for _, m := range modules {
		prefix := PrefixModule
		if m.Type == TypeTransport {
			prefix = PrefixFTS
		}
		schemas[prefix+m.Serial+"/connection"] = map[string]FieldSpec{
			"connectionState": {Kind: KindString, Required: true},
			"timestamp":       {Kind: KindString},
			"headerId":        {Kind: KindNumber},
		}
	}

	subscriptions := map[string][]string{
		"sensor": {
			TopicSensorBME680,
			TopicSensorLDR,
			TopicSensorCam,
		},
		"module": {
			"module/v1/ff/+/state",
			"module/v1/ff/+/connection",
			"module/v1/ff/+/factsheet",
		},
		"fts": {
			"fts/v1/ff/+/state",
			"fts/v1/ff/+/connection",
		},
		"order": {
			TopicOrderActive,
			TopicOrderCompleted,
			TopicOrderResponse,
			TopicOrderRequest,
		},
		"inventory": {
			TopicStock,
		},
		"pairing": {
			TopicPairingState,
		},
	}

	directions := map[string]string{
		TopicOrderRequest: DirectionOutbound,
		TopicFactoryReset: DirectionOutbound,
		TopicCharge:       DirectionOutbound,
		TopicGlobal:       DirectionOutbound,
		TopicCameraPTU:    DirectionOutbound,
		"fts/v1/ff/5iO4/instantAction": DirectionOutbound,
	}

	functions := map[string]map[string]BusinessFunction{
		"dashboard": {
			"sensor_readings": {
				SubscribedTopics: subscriptions["sensor"],
				Callback:         "Process",
				Manager:          "SensorManager",
			},
			"module_status": {
				SubscribedTopics: append(subscriptions["module"], subscriptions["fts"]...),
				Callback:         "Process",
				Manager:          "ModuleStatusManager",
			},
			"inventory": {
				SubscribedTopics: subscriptions["inventory"],
				Callback:         "ProcessStock",
				Manager:          "OrderManager",
			},
			"production_orders": {
				SubscribedTopics: subscriptions["order"],
				Callback:         "Process",
				Manager:          "ProductionOrderManager",
			},
		},
	}

	r, err := build(&catalogFile{
		Modules:       modules,
		Schemas:       schemas,
		Subscriptions: subscriptions,
		Directions:    directions,
		Functions:     functions,
	})
	if err != nil {
		// The default catalog is compile-time data; failing to build it is
		// a programming error.
		panic(err)
	}
	return r
}
