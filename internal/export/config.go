package export

import (
	"fmt"
)

// Precision is the numeric precision weights and activations are
// declared at inside a deployment package.
type Precision string

// Supported precisions.
const (
	PrecisionHalf Precision = "float16"
	PrecisionFull Precision = "float32"
)

// ComputeUnits is the compute-unit placement preference carried by a
// package. The stock preference pairs a neural accelerator with
// general compute and excludes graphics compute.
type ComputeUnits string

// Supported placement preferences.
const (
	ComputeUnitsCPUOnly         ComputeUnits = "cpu_only"
	ComputeUnitsCPUAndNeuralEng ComputeUnits = "cpu_and_neural_engine"
	ComputeUnitsAll             ComputeUnits = "all"
)

// Target describes the deployment platform a package is built for.
type Target struct {
	Platform   string `json:"platform"`
	MinVersion int    `json:"min_version"`
}

// Config enumerates everything the exporter needs beyond the module
// itself: output location, precision, target platform and compute-unit
// preference.
type Config struct {
	OutputDir string
	Precision Precision
	Target    Target
	Units     ComputeUnits
}

// DefaultConfig returns the stock export configuration: half
// precision, macOS 15 minimum, neural engine plus CPU placement.
func DefaultConfig() Config {
	return Config{
		OutputDir: "out",
		Precision: PrecisionHalf,
		Target:    Target{Platform: "macos", MinVersion: 15},
		Units:     ComputeUnitsCPUAndNeuralEng,
	}
}

// minHalfPrecisionVersion maps platforms to the earliest version whose
// runtime executes half-precision packages.
var minHalfPrecisionVersion = map[string]int{
	"macos": 15,
	"ios":   16,
}

// Validate rejects platform/precision combinations no runtime can
// serve.
func (c Config) Validate() error {
	switch c.Precision {
	case PrecisionHalf, PrecisionFull:
	default:
		return fmt.Errorf("export: precision %q: %w", c.Precision, ErrExportTargetUnsupported)
	}
	switch c.Units {
	case ComputeUnitsCPUOnly, ComputeUnitsCPUAndNeuralEng, ComputeUnitsAll:
	default:
		return fmt.Errorf("export: compute units %q: %w", c.Units, ErrExportTargetUnsupported)
	}

	minHalf, ok := minHalfPrecisionVersion[c.Target.Platform]
	if !ok {
		return fmt.Errorf("export: platform %q: %w", c.Target.Platform, ErrExportTargetUnsupported)
	}
	if c.Precision == PrecisionHalf && c.Target.MinVersion < minHalf {
		return fmt.Errorf("export: %s %d does not run %s packages (needs %d or later): %w",
			c.Target.Platform, c.Target.MinVersion, c.Precision, minHalf, ErrExportTargetUnsupported)
	}
	if c.Target.MinVersion <= 0 {
		return fmt.Errorf("export: invalid minimum %s version %d: %w",
			c.Target.Platform, c.Target.MinVersion, ErrExportTargetUnsupported)
	}
	return nil
}
