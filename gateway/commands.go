package gateway

import (
	"log"
	"time"

	"github.com/google/uuid"

	"ccugateway/messages"
	"ccugateway/registry"
)

// Camera PTU commands.
const (
	CameraUp    = "relmove_up"
	CameraDown  = "relmove_down"
	CameraLeft  = "relmove_left"
	CameraRight = "relmove_right"
	CameraPhoto = "photo"
)

// FTS instant action types.
const (
	FTSActionDock   = "findInitialDockPosition"
	FTSActionUndock = "startCharging"
)

// ResetFactory publishes the factory reset command.
func (g *Gateway) ResetFactory() bool {
	payload := g.messages.Generate(registry.TopicFactoryReset, map[string]any{"reset": true})
	if payload == nil {
		log.Printf("gateway: reset payload generation failed")
		return false
	}
	return g.PublishMessage(registry.TopicFactoryReset, payload, 1, false)
}

// SendGlobalCommand publishes an arbitrary command on ccu/global.
func (g *Gateway) SendGlobalCommand(command string, params map[string]any) bool {
	payload := g.messages.Generate(registry.TopicGlobal, map[string]any{
		"command": command,
		"params":  params,
	})
	if payload == nil {
		log.Printf("gateway: global command payload generation failed for %q", command)
		return false
	}
	return g.PublishMessage(registry.TopicGlobal, payload, 1, false)
}

// SendCustomerOrder requests production of one workpiece.
func (g *Gateway) SendCustomerOrder(workpieceType string) bool {
	return g.inventory.SendCustomerOrder(workpieceType)
}

// SendRawMaterialOrder requests restocking of one workpiece.
func (g *Gateway) SendRawMaterialOrder(workpieceType string) bool {
	return g.inventory.SendRawMaterialOrder(workpieceType)
}

// SendChargeCommand starts or stops charging for a module, usually the FTS.
// Accepts a serial or a short name.
func (g *Gateway) SendChargeCommand(idOrName string, charge bool) bool {
	serial, ok := g.reg.ResolveSerial(idOrName)
	if !ok {
		log.Printf("gateway: charge command for unknown module %q", idOrName)
		return false
	}
	payload := g.messages.Generate(registry.TopicCharge, map[string]any{
		"serialNumber": serial,
		"charge":       charge,
	})
	if payload == nil {
		return false
	}
	return g.PublishMessage(registry.TopicCharge, payload, 1, false)
}

// SendFTSInstantAction publishes a dock or undock instant action to the
// transport vehicle.
func (g *Gateway) SendFTSInstantAction(actionType string, metadata map[string]any) bool {
	serial, ok := g.reg.ResolveSerial("FTS")
	if !ok {
		log.Printf("gateway: no FTS in module catalog")
		return false
	}
	payload := map[string]any{
		"timestamp":    messages.FormatTimestamp(time.Now()),
		"serialNumber": serial,
		"actions": []map[string]any{
			{
				"actionType": actionType,
				"actionId":   uuid.New().String(),
				"metadata":   metadata,
			},
		},
	}
	return g.PublishMessage(registry.PrefixFTS+serial+"/instantAction", payload, 1, false)
}

// SendCameraCommand drives the camera pan/tilt unit. Degree only applies to
// the relmove commands.
func (g *Gateway) SendCameraCommand(cmd string, degree float64) bool {
	params := map[string]any{"cmd": cmd}
	if cmd != CameraPhoto {
		params["degree"] = degree
	}
	payload := g.messages.Generate(registry.TopicCameraPTU, params)
	if payload == nil {
		log.Printf("gateway: camera payload generation failed for %q", cmd)
		return false
	}
	return g.PublishMessage(registry.TopicCameraPTU, payload, 1, false)
}
