package trace

import (
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Tape records operations during an example execution. Tensor IDs are
// assigned on first use in execution order, which makes recorded
// programs comparable across runs.
type Tape struct {
	nodes     []Node
	ids       map[*tensor.RawTensor]int
	nextID    int
	recording bool
}

// NewTape creates an empty, non-recording tape.
func NewTape() *Tape {
	return &Tape{
		nodes: make([]Node, 0, 64),
		ids:   make(map[*tensor.RawTensor]int),
	}
}

// StartRecording enables operation recording.
func (t *Tape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *Tape) StopRecording() {
	t.recording = false
}

// IsRecording reports whether operations are currently recorded.
func (t *Tape) IsRecording() bool {
	return t.recording
}

// Clear drops all recorded operations and ID assignments. Recording
// state is preserved.
func (t *Tape) Clear() {
	t.nodes = t.nodes[:0]
	t.ids = make(map[*tensor.RawTensor]int)
	t.nextID = 0
}

// Record appends one operation. No-op unless recording.
func (t *Tape) Record(op string, attrs map[string]string, inputs []*tensor.RawTensor, output *tensor.RawTensor) {
	if !t.recording {
		return
	}
	refs := make([]TensorRef, len(inputs))
	for i, in := range inputs {
		refs[i] = t.ref(in)
	}
	t.nodes = append(t.nodes, Node{
		Op:     op,
		Attrs:  attrs,
		Inputs: refs,
		Output: t.ref(output),
	})
}

// Program returns a snapshot of the recorded graph.
func (t *Tape) Program() *Program {
	nodes := make([]Node, len(t.nodes))
	copy(nodes, t.nodes)
	return &Program{Nodes: nodes}
}

func (t *Tape) ref(raw *tensor.RawTensor) TensorRef {
	id, ok := t.ids[raw]
	if !ok {
		id = t.nextID
		t.nextID++
		t.ids[raw] = id
	}
	shape := raw.Shape()
	return TensorRef{
		ID:    id,
		Shape: append([]int(nil), shape...),
		DType: raw.DType().String(),
	}
}
