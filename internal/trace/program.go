package trace

import (
	"fmt"
	"sort"
	"strings"
)

// TensorRef identifies a tensor inside a traced program. IDs are
// assigned in first-use order, so two traces of the same computation
// produce identical references.
type TensorRef struct {
	ID    int    `json:"id"`
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
}

// Node is one recorded operation: its name, scalar attributes, input
// references and output reference.
type Node struct {
	Op     string            `json:"op"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Inputs []TensorRef       `json:"inputs"`
	Output TensorRef         `json:"output"`
}

// Program is a fixed, non-branching execution graph captured by
// running a module once on example inputs.
type Program struct {
	Nodes []Node `json:"nodes"`
}

// Signature fingerprints the program's structure: operation order,
// attributes and tensor shapes. Two runs of a deterministic module
// over the same inputs produce equal signatures; a data-dependent
// branch taken differently shows up as a signature mismatch.
func (p *Program) Signature() string {
	var sb strings.Builder
	for _, n := range p.Nodes {
		sb.WriteString(n.Op)
		if len(n.Attrs) > 0 {
			keys := make([]string, 0, len(n.Attrs))
			for k := range n.Attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			sb.WriteByte('[')
			for i, k := range keys {
				if i > 0 {
					sb.WriteByte(' ')
				}
				fmt.Fprintf(&sb, "%s=%s", k, n.Attrs[k])
			}
			sb.WriteByte(']')
		}
		sb.WriteByte('(')
		for i, in := range n.Inputs {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%%%d%v", in.ID, in.Shape)
		}
		fmt.Fprintf(&sb, ")->%%%d%v;", n.Output.ID, n.Output.Shape)
	}
	return sb.String()
}

// Len returns the number of recorded operations.
func (p *Program) Len() int {
	return len(p.Nodes)
}
