package bus

import (
	"io"

	"gopkg.in/yaml.v3"
)

// Topology is a declarative, per-message-name set of admission-control
// defaults, meant to stand in for the fluent register().subscribe_async
// builder chain the core does not implement: instead of wiring limits
// and queue sizes in code, a deployment can ship a YAML file read once
// at startup.
type Topology struct {
	Receivers map[string]ReceiverTopology `yaml:"receivers"`
}

// ReceiverTopology is one receiver's admission-control configuration.
type ReceiverTopology struct {
	Limit         uint64 `yaml:"limit"`
	QueueCapacity int    `yaml:"queue_capacity"`
}

// LoadTopology decodes a Topology document from r.
func LoadTopology(r io.Reader) (Topology, error) {
	var t Topology
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&t); err != nil && err != io.EOF {
		return Topology{}, err
	}
	return t, nil
}

// For looks up a receiver's configured topology, returning ok=false if
// name has no entry.
func (t Topology) For(name string) (ReceiverTopology, bool) {
	rt, ok := t.Receivers[name]
	return rt, ok
}
