// Package discovery assembles Home Assistant MQTT discovery documents.
//
// Each bridge capability maps to one retained JSON config document under
// <discoveryPrefix>/<component>/<uid>/<entity>/config, using Home
// Assistant's abbreviated keys. Capability preferences gate optional
// entities; a disabled capability publishes an empty retained payload to
// the same path so Home Assistant removes the entity (tombstone).
package discovery
