package core

import "fmt"

// Direction identifies whether a Port is an input or an output of its node.
type Direction int

const (
	// Input identifies a port that receives messages.
	Input Direction = iota
	// Output identifies a port that emits messages.
	Output
)

// String returns a human-readable name for the Direction.
func (d Direction) String() string {
	if d == Input {
		return "INPUT"
	}
	return "OUTPUT"
}

// anySchema is the advisory schema tag that is compatible with every other
// tag.
const anySchema = "any"

// PortSpec names a port and advisorially tags the shape of payload it
// carries. Schema tags are never enforced against the actual payload value;
// they are checked only at wiring time.
type PortSpec struct {
	Name   string
	Schema string
}

// NewPortSpec constructs a PortSpec. An empty schema is treated as "any".
func NewPortSpec(name, schema string) PortSpec {
	if schema == "" {
		schema = anySchema
	}
	return PortSpec{Name: name, Schema: schema}
}

// CompatibleWith reports whether two PortSpecs may be connected: their
// schema tags are equal, or either side is "any".
func (p PortSpec) CompatibleWith(other PortSpec) bool {
	return p.Schema == anySchema || other.Schema == anySchema || p.Schema == other.Schema
}

// Port is a port declaration bound to a node at construction time.
type Port struct {
	Name      string
	Direction Direction
	Spec      PortSpec
}

// NewInputPort declares an INPUT port.
func NewInputPort(name string, spec PortSpec) Port {
	return Port{Name: name, Direction: Input, Spec: spec}
}

// NewOutputPort declares an OUTPUT port.
func NewOutputPort(name string, spec PortSpec) Port {
	return Port{Name: name, Direction: Output, Spec: spec}
}

// String renders the port for diagnostics.
func (p Port) String() string {
	return fmt.Sprintf("%s(%s)", p.Name, p.Direction)
}
