// Package registry holds the immutable topic and module catalog the gateway
// routes against. It is loaded once at startup and never mutated afterwards,
// so readers take no locks.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Module types.
const (
	TypeStorage    = "Storage"
	TypeProcessing = "Processing"
	TypeQuality    = "Quality-Control"
	TypeInputOut   = "Input/Output"
	TypeTransport  = "Transport"
	TypeCharging   = "Charging"
)

// Topic direction.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// ModuleInfo describes one physical module from the catalog.
type ModuleInfo struct {
	Serial   string   `yaml:"serial"`
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Icon     string   `yaml:"icon"`
	Commands []string `yaml:"commands"`
	IPRange  string   `yaml:"ip_range"`
}

// BusinessFunction links a named concern to its topics and handling manager.
type BusinessFunction struct {
	SubscribedTopics []string `yaml:"subscribed_topics"`
	Callback         string   `yaml:"callback"`
	Manager          string   `yaml:"manager"`
}

// Registry is the immutable catalog.
type Registry struct {
	schemas       map[string]*Schema
	modules       map[string]ModuleInfo
	byName        map[string]string // short name -> serial
	subscriptions map[string][]string
	directions    map[string]string
	functions     map[string]map[string]BusinessFunction
}

// catalogFile is the yaml shape of an external catalog.
type catalogFile struct {
	Modules       []ModuleInfo                           `yaml:"modules"`
	Schemas       map[string]map[string]FieldSpec        `yaml:"schemas"`
	Subscriptions map[string][]string                    `yaml:"subscriptions"`
	Directions    map[string]string                      `yaml:"directions"`
	Functions     map[string]map[string]BusinessFunction `yaml:"functions"`
}

// Load reads the catalog from path. An empty path yields the compiled-in
// default catalog; a path that cannot be read is a fatal configuration error
// surfaced to the caller.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("registry: parse catalog: %w", err)
	}
	return build(&file)
}

func build(file *catalogFile) (*Registry, error) {
	if len(file.Modules) == 0 {
		return nil, fmt.Errorf("registry: catalog has no modules")
	}
	r := &Registry{
		schemas:       make(map[string]*Schema, len(file.Schemas)),
		modules:       make(map[string]ModuleInfo, len(file.Modules)),
		byName:        make(map[string]string, len(file.Modules)),
		subscriptions: file.Subscriptions,
		directions:    file.Directions,
		functions:     file.Functions,
	}
	for _, m := range file.Modules {
		if m.Serial == "" {
			return nil, fmt.Errorf("registry: module %q has no serial", m.Name)
		}
		r.modules[m.Serial] = m
		r.byName[m.Name] = m.Serial
	}
	for topic, fields := range file.Schemas {
		r.schemas[topic] = &Schema{Topic: topic, Fields: fields}
	}
	return r, nil
}

// TopicSchema returns the schema for an exact topic, or nil when the topic
// carries no schema.
func (r *Registry) TopicSchema(topic string) *Schema {
	return r.schemas[topic]
}

// Modules returns the module catalog keyed by serial. The map is a copy.
func (r *Registry) Modules() map[string]ModuleInfo {
	out := make(map[string]ModuleInfo, len(r.modules))
	for k, v := range r.modules {
		out[k] = v
	}
	return out
}

// Module looks up one module by serial.
func (r *Registry) Module(serial string) (ModuleInfo, bool) {
	m, ok := r.modules[serial]
	return m, ok
}

// KnownSerial reports whether serial is in the catalog.
func (r *Registry) KnownSerial(serial string) bool {
	_, ok := r.modules[serial]
	return ok
}

// ResolveSerial accepts a serial number or a short module name (HBW, MILL, ...)
// and returns the serial.
func (r *Registry) ResolveSerial(idOrName string) (string, bool) {
	if _, ok := r.modules[idOrName]; ok {
		return idOrName, true
	}
	serial, ok := r.byName[idOrName]
	return serial, ok
}

// MQTTSubscriptions returns the subscription patterns for a domain. Patterns
// may contain MQTT wildcards.
func (r *Registry) MQTTSubscriptions(domain string) []string {
	return append([]string(nil), r.subscriptions[domain]...)
}

// AllSubscriptions returns the union of every domain's subscription set.
func (r *Registry) AllSubscriptions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, patterns := range r.subscriptions {
		for _, p := range patterns {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// SubscriptionDomains lists the configured domains.
func (r *Registry) SubscriptionDomains() []string {
	out := make([]string, 0, len(r.subscriptions))
	for d := range r.subscriptions {
		out = append(out, d)
	}
	return out
}

// TopicDirection reports whether the CCU publishes or subscribes a topic.
// Topics absent from the table are inbound: the gateway only ever consumes
// what it has not explicitly declared outbound.
func (r *Registry) TopicDirection(topic string) string {
	if d, ok := r.directions[topic]; ok {
		return d
	}
	return DirectionInbound
}

// BusinessFunctions returns the routing hints configured for a client.
func (r *Registry) BusinessFunctions(client string) map[string]BusinessFunction {
	fns := r.functions[client]
	out := make(map[string]BusinessFunction, len(fns))
	for k, v := range fns {
		out[k] = v
	}
	return out
}
