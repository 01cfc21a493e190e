// Package export turns traced modules into deployment packages:
// fixed-shape, precision-reduced artifacts persisted as .dppkg files.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/trace"
)

// exampleSeedBase drives example-tensor synthesis. Each declared input
// gets its own derived seed, so examples are reproducible per input
// position.
const exampleSeedBase = 7919

// Exporter traces modules over deterministic example inputs and
// packages the result.
type Exporter struct {
	cfg    Config
	tracer *trace.Backend
}

// NewExporter validates the configuration and binds the exporter to
// the tracing backend the modules were constructed over.
func NewExporter(cfg Config, tracer *trace.Backend) (*Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Exporter{cfg: cfg, tracer: tracer}, nil
}

// Export traces m over synthesized examples of the declared shapes,
// verifies the trace is deterministic, quantizes the weights and
// persists the package under the configured output directory, named
// after the module. The module must have been built over the
// exporter's tracing backend; otherwise its operations never reach the
// tape.
func (e *Exporter) Export(m Module, shapes []tensor.Shape) (*DeploymentPackage, error) {
	inputs := make([]*tensor.F32, len(shapes))
	for i, shape := range shapes {
		rng := rand.New(rand.NewSource(exampleSeedBase + int64(i)))
		var backend tensor.Backend = e.tracer
		inputs[i] = tensor.RandnFrom[float32](shape, rng, backend)
	}

	first, outputs, err := e.traceOnce(m, inputs)
	if err != nil {
		return nil, fmt.Errorf("export %q: %w", m.Name(), err)
	}
	second, _, err := e.traceOnce(m, inputs)
	if err != nil {
		return nil, fmt.Errorf("export %q: %w", m.Name(), err)
	}
	if first.Signature() != second.Signature() {
		return nil, fmt.Errorf("export %q: traces diverge across identical runs: %w", m.Name(), ErrTraceFailure)
	}

	weights, blob, err := buildWeightSection(m.StateDict(), e.cfg.Precision)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(blob)

	manifest := Manifest{
		FormatVersion: FormatVersion,
		ID:            uuid.NewString(),
		Name:          m.Name(),
		CreatedAt:     time.Now().UTC(),
		Target:        e.cfg.Target,
		Units:         e.cfg.Units,
		Precision:     e.cfg.Precision,
		Inputs:        e.specs("input", inputs),
		Outputs:       e.specs("output", outputs),
		Program:       first,
		Weights:       weights,
		Checksum:      hex.EncodeToString(sum[:]),
	}
	pkg := &DeploymentPackage{Manifest: manifest, weights: blob}

	path := filepath.Join(e.cfg.OutputDir, m.Name()+".dppkg")
	if err := WritePackage(path, pkg); err != nil {
		return nil, fmt.Errorf("export %q: %w", m.Name(), err)
	}
	return pkg, nil
}

// traceOnce records one example execution into a fresh tape.
func (e *Exporter) traceOnce(m Module, inputs []*tensor.F32) (*trace.Program, []*tensor.F32, error) {
	tape := e.tracer.Tape()
	tape.Clear()
	tape.StartRecording()
	outputs, err := m.Apply(inputs)
	tape.StopRecording()
	if err != nil {
		return nil, nil, fmt.Errorf("tracing failed: %w", err)
	}
	return tape.Program(), outputs, nil
}

// specs declares the shapes of a tensor list. Activations are declared
// at the package's precision: tracing runs in float32, but the
// deployed module consumes and produces reduced-precision tensors.
func (e *Exporter) specs(kind string, ts []*tensor.F32) []TensorSpec {
	out := make([]TensorSpec, len(ts))
	for i, t := range ts {
		out[i] = TensorSpec{
			Name:  kind + "_" + strconv.Itoa(i),
			Shape: append([]int(nil), t.Shape()...),
			DType: string(e.cfg.Precision),
		}
	}
	return out
}
