package trace_test

import (
	"math/rand"
	"testing"

	"github.com/harism/ml-depth-pro/internal/backend/cpu"
	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/trace"
)

func TestRecordsOperations(t *testing.T) {
	tracer := trace.New(cpu.New())
	var backend tensor.Backend = tracer

	a := tensor.RandnFrom[float32](tensor.Shape{2, 3}, rand.New(rand.NewSource(1)), backend)
	b := tensor.RandnFrom[float32](tensor.Shape{3, 4}, rand.New(rand.NewSource(2)), backend)

	tracer.Tape().StartRecording()
	_ = a.MatMul(b).Relu()
	tracer.Tape().StopRecording()

	prog := tracer.Tape().Program()
	if prog.Len() != 2 {
		t.Fatalf("recorded %d ops, want 2", prog.Len())
	}
	if prog.Nodes[0].Op != "matmul" || prog.Nodes[1].Op != "relu" {
		t.Errorf("ops = [%s %s], want [matmul relu]", prog.Nodes[0].Op, prog.Nodes[1].Op)
	}
	if got := prog.Nodes[0].Output.Shape; len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("matmul output shape = %v, want [2 4]", got)
	}
	// The relu consumes the matmul's output.
	if prog.Nodes[1].Inputs[0].ID != prog.Nodes[0].Output.ID {
		t.Error("relu input should reference the matmul output")
	}
}

func TestNotRecordingByDefault(t *testing.T) {
	tracer := trace.New(cpu.New())
	var backend tensor.Backend = tracer

	a := tensor.RandnFrom[float32](tensor.Shape{2, 2}, rand.New(rand.NewSource(3)), backend)
	_ = a.Add(a)

	if n := tracer.Tape().Program().Len(); n != 0 {
		t.Errorf("recorded %d ops without StartRecording, want 0", n)
	}
}

func TestSignatureStableAcrossRuns(t *testing.T) {
	tracer := trace.New(cpu.New())
	var backend tensor.Backend = tracer

	a := tensor.RandnFrom[float32](tensor.Shape{4, 4}, rand.New(rand.NewSource(4)), backend)

	run := func() string {
		tape := tracer.Tape()
		tape.Clear()
		tape.StartRecording()
		_ = a.Add(a).MulScalar(2).Softmax(-1)
		tape.StopRecording()
		return tape.Program().Signature()
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("signatures diverge across identical runs:\n%s\n%s", first, second)
	}
	if first == "" {
		t.Error("signature should not be empty")
	}
}

func TestSignatureDetectsDivergence(t *testing.T) {
	tracer := trace.New(cpu.New())
	var backend tensor.Backend = tracer

	a := tensor.RandnFrom[float32](tensor.Shape{4, 4}, rand.New(rand.NewSource(5)), backend)

	tape := tracer.Tape()
	tape.StartRecording()
	_ = a.Add(a)
	tape.StopRecording()
	first := tape.Program().Signature()

	tape.Clear()
	tape.StartRecording()
	_ = a.Mul(a)
	tape.StopRecording()
	second := tape.Program().Signature()

	if first == second {
		t.Error("different ops must produce different signatures")
	}
}

func TestAttrsDistinguishParameters(t *testing.T) {
	tracer := trace.New(cpu.New())
	var backend tensor.Backend = tracer

	x := tensor.RandnFrom[float32](tensor.Shape{1, 1, 8, 8}, rand.New(rand.NewSource(6)), backend)

	tape := tracer.Tape()
	tape.StartRecording()
	_ = x.Interpolate(4, 4)
	tape.StopRecording()
	first := tape.Program().Signature()

	tape.Clear()
	tape.StartRecording()
	_ = x.Interpolate(2, 2)
	tape.StopRecording()
	second := tape.Program().Signature()

	if first == second {
		t.Error("interpolation targets must be part of the signature")
	}
}

func TestClearResetsIDs(t *testing.T) {
	tracer := trace.New(cpu.New())
	var backend tensor.Backend = tracer

	a := tensor.RandnFrom[float32](tensor.Shape{2, 2}, rand.New(rand.NewSource(7)), backend)

	tape := tracer.Tape()
	tape.StartRecording()
	_ = a.Add(a)
	tape.StopRecording()
	firstID := tape.Program().Nodes[0].Inputs[0].ID

	tape.Clear()
	tape.StartRecording()
	_ = a.Add(a)
	tape.StopRecording()
	secondID := tape.Program().Nodes[0].Inputs[0].ID

	if firstID != secondID {
		t.Errorf("IDs should restart after Clear: %d vs %d", firstID, secondID)
	}
}

func TestBackendMetadata(t *testing.T) {
	inner := cpu.New()
	tracer := trace.New(inner)

	if tracer.Name() != "Trace("+inner.Name()+")" {
		t.Errorf("Name() = %q", tracer.Name())
	}
	if tracer.Device() != inner.Device() {
		t.Error("Device() should delegate to the inner backend")
	}
	if tracer.Inner() != tensor.Backend(inner) {
		t.Error("Inner() should return the wrapped backend")
	}
}
