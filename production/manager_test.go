package production

import (
	"encoding/json"
	"fmt"
	"testing"

	"ccugateway/registry"
)

func testWorkflows() map[string][]string {
	return map[string][]string{
		"RED":   {"DRILL", "MILL", "AIQS"},
		"BLUE":  {"MILL", "DRILL", "AIQS"},
		"WHITE": {"MILL", "DRILL", "AIQS"},
	}
}

func newTestManager() *Manager {
	return NewManager(registry.Default(), testWorkflows())
}

func activePayload(t *testing.T, orders ...Order) []byte {
	t.Helper()
	raw, err := json.Marshal(orders)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestProcessActiveUpsert(t *testing.T) {
	m := newTestManager()

	err := m.ProcessActive(activePayload(t,
		Order{OrderID: "o-1", OrderType: OrderTypeProduction, Type: "BLUE"},
		Order{OrderID: "o-2", OrderType: OrderTypeProduction, Type: "RED"},
	))
	if err != nil {
		t.Fatal(err)
	}

	active, completed := m.Counts()
	if active != 2 || completed != 0 {
		t.Fatalf("counts = (%d, %d)", active, completed)
	}
	orders := m.ActiveOrders()
	if orders[0].OrderID != "o-1" || orders[1].OrderID != "o-2" {
		t.Errorf("active orders = %v", orders)
	}
	if m.LastActiveUpdate().IsZero() {
		t.Error("last active update not recorded")
	}
}

func TestProcessActiveClearsOnNullAndEmpty(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("null"), []byte("[]")} {
		m := newTestManager()
		if err := m.ProcessActive(activePayload(t, Order{OrderID: "o-1", Type: "BLUE"})); err != nil {
			t.Fatal(err)
		}
		if err := m.ProcessActive(raw); err != nil {
			t.Fatalf("payload %q: %v", raw, err)
		}
		if active, _ := m.Counts(); active != 0 {
			t.Errorf("payload %q: active = %d, want 0", raw, active)
		}
	}
}

func TestProcessActiveSkipsMissingID(t *testing.T) {
	m := newTestManager()
	if err := m.ProcessActive(activePayload(t, Order{Type: "BLUE"}, Order{OrderID: "o-1", Type: "RED"})); err != nil {
		t.Fatal(err)
	}
	if active, _ := m.Counts(); active != 1 {
		t.Errorf("active = %d, want 1", active)
	}
}

func TestProcessActiveDuplicateLastWriteWins(t *testing.T) {
	m := newTestManager()
	err := m.ProcessActive(activePayload(t,
		Order{OrderID: "o-1", Type: "BLUE"},
		Order{OrderID: "o-1", Type: "RED"},
	))
	if err != nil {
		t.Fatal(err)
	}
	orders := m.ActiveOrders()
	if len(orders) != 1 || orders[0].Type != "RED" {
		t.Errorf("active orders = %v", orders)
	}
}

func TestProcessActiveBadJSON(t *testing.T) {
	m := newTestManager()
	if err := m.ProcessActive([]byte("{not json")); err == nil {
		t.Error("bad payload accepted")
	}
}

func TestCompletedMovesOutOfActive(t *testing.T) {
	m := newTestManager()
	if err := m.ProcessActive(activePayload(t,
		Order{OrderID: "o-1", Type: "BLUE"},
		Order{OrderID: "o-2", Type: "RED"},
	)); err != nil {
		t.Fatal(err)
	}

	if err := m.ProcessCompleted(activePayload(t, Order{OrderID: "o-1", Type: "BLUE", State: StateFinished})); err != nil {
		t.Fatal(err)
	}

	active, completed := m.Counts()
	if active != 1 || completed != 1 {
		t.Fatalf("counts = (%d, %d), want (1, 1)", active, completed)
	}
	if m.ActiveOrders()[0].OrderID != "o-2" {
		t.Errorf("remaining active = %v", m.ActiveOrders())
	}
	if m.CompletedOrders()[0].OrderID != "o-1" {
		t.Errorf("completed = %v", m.CompletedOrders())
	}
}

func TestCompletedUnknownOrderStillRecorded(t *testing.T) {
	m := newTestManager()
	if err := m.ProcessCompleted(activePayload(t, Order{OrderID: "ghost"})); err != nil {
		t.Fatal(err)
	}
	if _, completed := m.Counts(); completed != 1 {
		t.Errorf("completed = %d, want 1", completed)
	}
}

func stateEvent(orderID, serial, command, state string) []byte {
	return []byte(fmt.Sprintf(`{
		"serialNumber": %q,
		"actionState": {
			"id": "act-1",
			"orderId": %q,
			"command": %q,
			"state": %q,
			"startedAt": "2026-08-30T10:00:00.000Z"
		}
	}`, serial, orderID, command, state))
}

func TestModuleStateAppendsManufactureStep(t *testing.T) {
	m := newTestManager()

	// MILL serial from the default catalog.
	if err := m.ProcessModuleState(stateEvent("o-1", "SVR3QA2178", "PICK", StateInProgress)); err != nil {
		t.Fatal(err)
	}

	events := m.StepEvents("o-1")
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	got := events[0]
	if got.Type != StepManufacture || got.Command != "PICK" || got.State != StateInProgress {
		t.Errorf("event = %+v", got)
	}
	if got.ModuleType != "MILL" {
		t.Errorf("module type = %q, want MILL resolved from serial", got.ModuleType)
	}
}

func TestFTSStateAppendsNavigationStep(t *testing.T) {
	m := newTestManager()

	raw := []byte(`{
		"serialNumber": "5iO4",
		"orderId": "o-1",
		"actionState": {"id": "act-2", "state": "IN_PROGRESS", "source": "HBW", "target": "MILL"}
	}`)
	if err := m.ProcessFTSState(raw); err != nil {
		t.Fatal(err)
	}

	events := m.StepEvents("o-1")
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	got := events[0]
	if got.Type != StepNavigation || got.Source != "HBW" || got.Target != "MILL" {
		t.Errorf("event = %+v", got)
	}
}

func TestCCUResponseInfersStepType(t *testing.T) {
	m := newTestManager()

	nav := []byte(`{"actionState": {"orderId": "o-1", "state": "FINISHED", "source": "MILL", "target": "DRILL"}}`)
	mfg := []byte(`{"actionState": {"orderId": "o-1", "state": "FINISHED", "command": "DROP"}}`)
	if err := m.ProcessCCUResponse(nav); err != nil {
		t.Fatal(err)
	}
	if err := m.ProcessCCUResponse(mfg); err != nil {
		t.Fatal(err)
	}

	events := m.StepEvents("o-1")
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != StepNavigation {
		t.Errorf("endpoint event type = %q", events[0].Type)
	}
	if events[1].Type != StepManufacture {
		t.Errorf("command event type = %q", events[1].Type)
	}
}

func TestStateWithoutActionIsNoOp(t *testing.T) {
	m := newTestManager()
	if err := m.ProcessModuleState([]byte(`{"serialNumber": "SVR3QA2178"}`)); err != nil {
		t.Fatal(err)
	}
	if len(m.StepEvents("o-1")) != 0 {
		t.Error("idle state message produced a step event")
	}
}

func TestStateWithoutOrderIDDropped(t *testing.T) {
	m := newTestManager()
	if err := m.ProcessModuleState([]byte(`{"serialNumber": "SVR3QA2178", "actionState": {"state": "IN_PROGRESS"}}`)); err != nil {
		t.Fatal(err)
	}
	if len(m.StepEvents("")) != 0 {
		t.Error("orderless action state recorded")
	}
}

func TestPlanForStorageOrderVerbatim(t *testing.T) {
	m := newTestManager()
	order := &Order{
		OrderID:   "s-1",
		OrderType: OrderTypeStorage,
		ProductionSteps: []Step{
			{ID: "broker-step", Type: StepNavigation, Source: "DPS", Target: "HBW", State: StateEnqueued},
		},
	}
	plan := m.Plan(order)
	if len(plan) != 1 || plan[0].ID != "broker-step" {
		t.Errorf("storage plan = %v", plan)
	}
}

func TestPlanForProductionAlwaysRegenerated(t *testing.T) {
	m := newTestManager()
	order := &Order{
		OrderID:   "p-1",
		OrderType: OrderTypeProduction,
		Type:      "BLUE",
		ProductionSteps: []Step{
			{ID: "broker-step", Type: StepManufacture, State: StateFinished},
		},
	}
	plan := m.Plan(order)
	if len(plan) != 16 {
		t.Fatalf("plan length = %d, want 16", len(plan))
	}
	for _, s := range plan {
		if s.ID == "broker-step" {
			t.Error("broker step leaked into the synthetic plan")
		}
	}
}

func TestPlanUnknownWorkpiece(t *testing.T) {
	m := newTestManager()
	if plan := m.Plan(&Order{OrderID: "p-1", OrderType: OrderTypeProduction, Type: "GREEN"}); plan != nil {
		t.Errorf("plan = %v, want nil", plan)
	}
}

func TestMergedPlanUnknownOrder(t *testing.T) {
	m := newTestManager()
	if _, ok := m.MergedPlan("nope"); ok {
		t.Error("merged plan reported for unknown order")
	}
}

// Full lifecycle of one BLUE order: activation, step events for every plan
// position, then completion.
func TestBlueOrderLifecycle(t *testing.T) {
	m := newTestManager()
	const id = "abc-123"

	if err := m.ProcessActive(activePayload(t, Order{OrderID: id, OrderType: OrderTypeProduction, Type: "BLUE"})); err != nil {
		t.Fatal(err)
	}

	serials := map[string]string{
		"HBW": "SVR3QA0022", "MILL": "SVR3QA2178", "DRILL": "SVR4H76449",
		"AIQS": "SVR4H76530", "DPS": "SVR4H73275",
	}
	finishManufacture := func(moduleType, command string) {
		t.Helper()
		if err := m.ProcessModuleState(stateEvent(id, serials[moduleType], command, StateFinished)); err != nil {
			t.Fatal(err)
		}
	}
	finishNav := func(source, target string) {
		t.Helper()
		raw := []byte(fmt.Sprintf(`{
			"serialNumber": "5iO4",
			"actionState": {"orderId": %q, "state": "FINISHED", "source": %q, "target": %q}
		}`, id, source, target))
		if err := m.ProcessFTSState(raw); err != nil {
			t.Fatal(err)
		}
	}

	finishManufacture("HBW", "PICK")
	finishManufacture("HBW", "DROP")
	for prev, stations := "HBW", []string{"MILL", "DRILL", "AIQS"}; len(stations) > 0; stations = stations[1:] {
		station := stations[0]
		finishNav(prev, station)
		finishManufacture(station, "PICK")
		finishManufacture(station, station)
		finishManufacture(station, "DROP")
		prev = station
	}
	finishNav("AIQS", "DPS")
	finishManufacture("DPS", "DROP")

	if active, _ := m.Counts(); active != 1 {
		t.Fatalf("active = %d during run", active)
	}

	merged, ok := m.MergedPlan(id)
	if !ok {
		t.Fatal("merged plan missing")
	}
	if len(merged) != 16 {
		t.Fatalf("merged length = %d", len(merged))
	}
	for _, s := range merged {
		if s.State != StateFinished {
			t.Errorf("step %s = %q, want FINISHED", s.ID, s.State)
		}
	}
	if got := m.CurrentModule(id); got != "" {
		t.Errorf("current module after finish = %q, want empty", got)
	}

	if err := m.ProcessCompleted(activePayload(t, Order{OrderID: id, State: StateFinished})); err != nil {
		t.Fatal(err)
	}
	active, completed := m.Counts()
	if active != 0 || completed != 1 {
		t.Errorf("counts = (%d, %d), want (0, 1)", active, completed)
	}
}

func TestCurrentModuleMidRun(t *testing.T) {
	m := newTestManager()
	const id = "o-9"

	if err := m.ProcessActive(activePayload(t, Order{OrderID: id, OrderType: OrderTypeProduction, Type: "BLUE"})); err != nil {
		t.Fatal(err)
	}
	if err := m.ProcessModuleState(stateEvent(id, "SVR3QA0022", "PICK", StateFinished)); err != nil {
		t.Fatal(err)
	}
	if err := m.ProcessModuleState(stateEvent(id, "SVR3QA0022", "DROP", StateFinished)); err != nil {
		t.Fatal(err)
	}
	raw := []byte(fmt.Sprintf(`{
		"serialNumber": "5iO4",
		"actionState": {"orderId": %q, "state": "IN_PROGRESS", "source": "HBW", "target": "MILL"}
	}`, id))
	if err := m.ProcessFTSState(raw); err != nil {
		t.Fatal(err)
	}

	if got := m.CurrentModule(id); got != "FTS" {
		t.Errorf("current module = %q, want FTS", got)
	}
	src, dst, ok := m.CurrentIntersections(id)
	if !ok || src != "HBW" || dst != "MILL" {
		t.Errorf("intersections = (%q, %q, %t)", src, dst, ok)
	}
}
