package production

// Merge overlays live MQTT step records onto a synthetic plan and returns a
// new plan of the same length. Two matching passes per plan step: an exact
// pass on (type, moduleType, command, source, target), then a coarse pass on
// (type, moduleType, command) for events whose navigation endpoints the
// module did not echo back. Each MQTT record is consumed at most once, in
// arrival order within each pass. Unmatched MQTT records are dropped.
//
// Merge never mutates its inputs; callers re-run it from the full event
// list, so a step that reached FINISHED cannot silently revert.
func Merge(plan []Step, mqttSteps []Step) []Step {
	merged := make([]Step, len(plan))
	copy(merged, plan)

	used := make([]bool, len(mqttSteps))
	for i := range merged {
		matched := -1
		for j := range mqttSteps {
			if used[j] {
				continue
			}
			if exactMatch(&merged[i], &mqttSteps[j]) {
				matched = j
				break
			}
		}
		if matched < 0 {
			for j := range mqttSteps {
				if used[j] {
					continue
				}
				if coarseMatch(&merged[i], &mqttSteps[j]) {
					matched = j
					break
				}
			}
		}
		if matched < 0 {
			continue
		}
		used[matched] = true
		applyLive(&merged[i], &mqttSteps[matched])
	}
	return merged
}

func exactMatch(p, m *Step) bool {
	return m.Type == p.Type &&
		m.ModuleType == p.ModuleType &&
		m.Command == p.Command &&
		m.Source == p.Source &&
		m.Target == p.Target
}

func coarseMatch(p, m *Step) bool {
	return m.Type == p.Type &&
		m.ModuleType == p.ModuleType &&
		m.Command == p.Command
}

// applyLive copies the live status onto the plan step while keeping the
// synthetic id, source and target; the raw MQTT attributes are stashed
// separately for diagnostics.
func applyLive(p, m *Step) {
	if m.State != "" {
		p.State = m.State
	}
	p.StartedAt = m.StartedAt
	p.StoppedAt = m.StoppedAt
	p.SerialNumber = m.SerialNumber
	p.DependentActionID = m.DependentActionID

	p.MQTTID = m.ID
	p.MQTTSource = m.Source
	p.MQTTTarget = m.Target
	p.MQTTModuleType = m.ModuleType
	p.MQTTCommand = m.Command
}

// ActiveModule scans a merged plan and names the module the order is
// currently at: the first IN_PROGRESS or ENQUEUED step wins. Navigation
// steps mean the workpiece is on the transport vehicle. Empty string when
// nothing is active.
func ActiveModule(merged []Step) string {
	for i := range merged {
		step := &merged[i]
		if step.State != StateInProgress && step.State != StateEnqueued {
			continue
		}
		if step.Type == StepNavigation {
			return "FTS"
		}
		switch step.ModuleType {
		case StationHBW, "MILL", "DRILL", "AIQS", StationDPS:
			return step.ModuleType
		}
		return ""
	}
	return ""
}

// ActiveIntersections returns the (source, target) pair of the first
// IN_PROGRESS navigation step, falling back to the first ENQUEUED one. The
// route planner turns the pair into a polyline.
func ActiveIntersections(merged []Step) (source, target string, ok bool) {
	for _, want := range []string{StateInProgress, StateEnqueued} {
		for i := range merged {
			step := &merged[i]
			if step.Type == StepNavigation && step.State == want {
				return step.Source, step.Target, true
			}
		}
	}
	return "", "", false
}
