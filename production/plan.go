package production

import "strings"

// GeneratePlan builds the fixed synthetic plan for a production order of one
// workpiece type. For a workflow [S1..Sk] the shape is:
//
//	hbw_pick, hbw_drop,
//	then per station: nav_to_Si, Si_pick, Si_process, Si_drop,
//	nav_to_dps, dps_drop
//
// The high bay both retrieves the workpiece and hands it to the transport
// vehicle, so a 3-station workflow always yields 16 steps. All steps start
// PENDING.
func GeneratePlan(workflow []string) []Step {
	plan := make([]Step, 0, 2+4*len(workflow)+2)

	plan = append(plan,
		Step{
			ID:         "hbw_pick",
			Type:       StepManufacture,
			ModuleType: StationHBW,
			Command:    CommandPick,
			Source:     StationHBW,
			Target:     StationHBW,
			State:      StatePending,
		},
		Step{
			ID:         "hbw_drop",
			Type:       StepManufacture,
			ModuleType: StationHBW,
			Command:    CommandDrop,
			Source:     StationHBW,
			Target:     StationHBW,
			State:      StatePending,
		},
	)

	prev := StationHBW
	for _, station := range workflow {
		lower := strings.ToLower(station)
		plan = append(plan,
			Step{
				ID:     "nav_to_" + lower,
				Type:   StepNavigation,
				Source: prev,
				Target: station,
				State:  StatePending,
			},
			Step{
				ID:         lower + "_pick",
				Type:       StepManufacture,
				ModuleType: station,
				Command:    CommandPick,
				State:      StatePending,
			},
			Step{
				ID:         lower + "_process",
				Type:       StepManufacture,
				ModuleType: station,
				Command:    station,
				State:      StatePending,
			},
			Step{
				ID:         lower + "_drop",
				Type:       StepManufacture,
				ModuleType: station,
				Command:    CommandDrop,
				State:      StatePending,
			},
		)
		prev = station
	}

	plan = append(plan,
		Step{
			ID:     "nav_to_dps",
			Type:   StepNavigation,
			Source: prev,
			Target: StationDPS,
			State:  StatePending,
		},
		Step{
			ID:         "dps_drop",
			Type:       StepManufacture,
			ModuleType: StationDPS,
			Command:    CommandDrop,
			State:      StatePending,
		},
	)
	return plan
}
