// Package topics classifies and filters MQTT topics against the registry
// catalog. Everything here is a pure function; the registry is immutable.
package topics

import (
	"strings"

	"ccugateway/registry"
)

// Class is the coarse topic family.
type Class string

const (
	ClassFTS    Class = "FTS"
	ClassModule Class = "Module"
	ClassCCU    Class = "CCU"
	ClassSensor Class = "Sensor/TXT"
	ClassOther  Class = "Other"
)

// Classify buckets a topic by its prefix.
func Classify(topic string) Class {
	switch {
	case strings.HasPrefix(topic, registry.PrefixFTS):
		return ClassFTS
	case strings.HasPrefix(topic, registry.PrefixModule):
		return ClassModule
	case strings.HasPrefix(topic, "ccu/"):
		return ClassCCU
	case strings.Contains(topic, "/j1/txt/"):
		return ClassSensor
	}
	return ClassOther
}

// Match implements MQTT wildcard semantics: "+" matches exactly one level,
// "#" matches any number of trailing levels (including zero).
func Match(topic, pattern string) bool {
	if pattern == "#" {
		return true
	}
	tl := strings.Split(topic, "/")
	pl := strings.Split(pattern, "/")

	for i, p := range pl {
		if p == "#" {
			// "#" must be the last pattern level.
			return i == len(pl)-1
		}
		if i >= len(tl) {
			return false
		}
		if p != "+" && p != tl[i] {
			return false
		}
	}
	return len(tl) == len(pl)
}

// DomainTopics returns the configured topic patterns for a domain.
func DomainTopics(r *registry.Registry, domain string) []string {
	return r.MQTTSubscriptions(domain)
}

// SubscribedTopics returns the domain patterns the CCU consumes.
func SubscribedTopics(r *registry.Registry, domain string) []string {
	var out []string
	for _, t := range r.MQTTSubscriptions(domain) {
		if r.TopicDirection(t) == registry.DirectionInbound {
			out = append(out, t)
		}
	}
	return out
}

// PublishedTopics returns the domain patterns the CCU publishes.
func PublishedTopics(r *registry.Registry, domain string) []string {
	var out []string
	for _, t := range r.MQTTSubscriptions(domain) {
		if r.TopicDirection(t) == registry.DirectionOutbound {
			out = append(out, t)
		}
	}
	return out
}

// MatchAny reports whether the topic matches any of the patterns.
func MatchAny(topic string, patterns []string) bool {
	for _, p := range patterns {
		if Match(topic, p) {
			return true
		}
	}
	return false
}

// Serial extracts the module serial from a module/ or fts/ topic
// (module/v1/ff/{serial}/...); empty string when the topic has no serial
// segment.
func Serial(topic string) string {
	var rest string
	switch {
	case strings.HasPrefix(topic, registry.PrefixModule):
		rest = topic[len(registry.PrefixModule):]
	case strings.HasPrefix(topic, registry.PrefixFTS):
		rest = topic[len(registry.PrefixFTS):]
	default:
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i > 0 {
		return rest[:i]
	}
	return rest
}
