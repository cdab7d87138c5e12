package core

import "fmt"

// DefaultCapacity is the default Edge capacity used by Connect when the
// caller passes 0.
const DefaultCapacity = 16

// connection is a pending (unvalidated) wiring request recorded by
// Connect, resolved into an Edge by validate.
type connection struct {
	src, dst PortRef
	capacity int
	policy   Policy
}

// Subgraph owns a set of nodes and the edges wiring them. It is built
// offline via AddNode/Connect, then registered to exactly one
// Scheduler at a time; after registration its topology is immutable.
type Subgraph struct {
	name  string
	nodes map[string]*Node
	order []string // insertion order, for stable iteration/diagnostics
	conns []connection

	edges      []*Edge
	registered bool
}

// NewSubgraph constructs an empty, named Subgraph.
func NewSubgraph(name string) *Subgraph {
	return &Subgraph{name: name, nodes: make(map[string]*Node)}
}

// NewSubgraphFromNodes constructs a Subgraph and adds each of nodes to it,
// mirroring the convenience constructor seen throughout the original
// Python examples (Subgraph.from_nodes).
func NewSubgraphFromNodes(name string, nodes ...*Node) (*Subgraph, error) {
	sg := NewSubgraph(name)
	for _, n := range nodes {
		if err := sg.AddNode(n); err != nil {
			return nil, err
		}
	}
	return sg, nil
}

// Name returns the subgraph's name.
func (sg *Subgraph) Name() string { return sg.name }

// AddNode adds node to the subgraph. Node names must be unique within the
// subgraph; AddNode fails fast on a
// duplicate rather than deferring it to registration, since it is always
// file-local to the caller.
func (sg *Subgraph) AddNode(node *Node) error {
	if sg.registered {
		return &WiringError{Reason: "subgraph_immutable", Detail: "cannot add nodes after registration"}
	}
	if _, exists := sg.nodes[node.name]; exists {
		return &WiringError{Reason: "duplicate_node_name", Node: node.name, Detail: "a node with this name already exists in the subgraph"}
	}
	sg.nodes[node.name] = node
	sg.order = append(sg.order, node.name)
	return nil
}

// Connect records a wiring request from src=(node,port) to dst=(node,port).
// capacity <= 0 uses DefaultCapacity (16); a zero-value Policy uses Block,
// matching the default connect behavior.
//
// Connect does not validate immediately: validation (and Edge creation)
// happens once, at Scheduler.Register, so that the first offending wiring
// across the whole subgraph is reported deterministically.
func (sg *Subgraph) Connect(src, dst PortRef, capacity int, policy Policy) error {
	if sg.registered {
		return &WiringError{Reason: "subgraph_immutable", Detail: "cannot add edges after registration"}
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// A zero-value Policy already has kind == policyBlock (Block is the
	// default overflow policy), so no special-casing is needed here for
	// callers that pass Policy{} or omit it.
	sg.conns = append(sg.conns, connection{src: src, dst: dst, capacity: capacity, policy: policy})
	return nil
}

// validate resolves every recorded connection into an Edge, checking the
// wiring rules in order, and binds each node's resolved input/output edge
// maps. It returns the first offending wiring as a *WiringError. Called
// exactly once, by Scheduler.Register.
func (sg *Subgraph) validate() ([]*Edge, error) {
	// Rule 4 (duplicate node names) is enforced eagerly by AddNode; nothing
	// further to check here.

	destSeen := make(map[PortRef]bool) // rule 2: at most one incoming edge per input port
	edges := make([]*Edge, 0, len(sg.conns))
	outBound := make(map[string]map[string]*Edge) // node -> output port -> edge
	inBound := make(map[string]map[string]*Edge)  // node -> input port -> edge

	for _, c := range sg.conns {
		srcNode, ok := sg.nodes[c.src.Node]
		if !ok {
			return nil, &WiringError{Reason: "unknown_node", Node: c.src.Node, Detail: "source node is not in this subgraph"}
		}
		srcPort, ok := srcNode.Port(c.src.Port)
		if !ok {
			return nil, &WiringError{Reason: "unknown_port", Node: c.src.Node, Port: c.src.Port, Detail: "source port is not declared on the node"}
		}
		if srcPort.Direction != Output {
			return nil, &WiringError{Reason: "wrong_direction", Node: c.src.Node, Port: c.src.Port, Detail: "source must be an OUTPUT port"}
		}

		dstNode, ok := sg.nodes[c.dst.Node]
		if !ok {
			return nil, &WiringError{Reason: "unknown_node", Node: c.dst.Node, Detail: "destination node is not in this subgraph"}
		}
		dstPort, ok := dstNode.Port(c.dst.Port)
		if !ok {
			return nil, &WiringError{Reason: "unknown_port", Node: c.dst.Node, Port: c.dst.Port, Detail: "destination port is not declared on the node"}
		}
		if dstPort.Direction != Input {
			return nil, &WiringError{Reason: "wrong_direction", Node: c.dst.Node, Port: c.dst.Port, Detail: "destination must be an INPUT port"}
		}

		if destSeen[c.dst] {
			return nil, &WiringError{Reason: "duplicate_input_edge", Node: c.dst.Node, Port: c.dst.Port, Detail: "input port already has an incoming edge"}
		}

		if !srcPort.Spec.CompatibleWith(dstPort.Spec) {
			return nil, &WiringError{
				Reason: "incompatible_schema",
				Node:   c.dst.Node,
				Port:   c.dst.Port,
				Detail: fmt.Sprintf("schema %q is not compatible with %q", srcPort.Spec.Schema, dstPort.Spec.Schema),
			}
		}

		edge := NewEdge(c.src, c.dst, c.capacity, c.policy)
		edges = append(edges, edge)
		destSeen[c.dst] = true

		if outBound[c.src.Node] == nil {
			outBound[c.src.Node] = make(map[string]*Edge)
		}
		outBound[c.src.Node][c.src.Port] = edge

		if inBound[c.dst.Node] == nil {
			inBound[c.dst.Node] = make(map[string]*Edge)
		}
		inBound[c.dst.Node][c.dst.Port] = edge
	}

	for name, node := range sg.nodes {
		node.bind(inBound[name], outBound[name])
	}

	return edges, nil
}

// Nodes returns the subgraph's nodes in insertion order.
func (sg *Subgraph) Nodes() []*Node {
	out := make([]*Node, 0, len(sg.order))
	for _, name := range sg.order {
		out = append(out, sg.nodes[name])
	}
	return out
}
