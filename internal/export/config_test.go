package export

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/x448/float16"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown platform", func(c *Config) { c.Target.Platform = "windows" }},
		{"half precision below minimum macos", func(c *Config) { c.Target.MinVersion = 14 }},
		{"half precision below minimum ios", func(c *Config) { c.Target = Target{Platform: "ios", MinVersion: 15} }},
		{"unknown precision", func(c *Config) { c.Precision = "bfloat16" }},
		{"unknown compute units", func(c *Config) { c.Units = "gpu_only" }},
		{"non-positive version", func(c *Config) { c.Precision = PrecisionFull; c.Target.MinVersion = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrExportTargetUnsupported) {
				t.Errorf("Validate() = %v, want ErrExportTargetUnsupported", err)
			}
		})
	}
}

func TestConfigFullPrecisionOnOlderTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Precision = PrecisionFull
	cfg.Target.MinVersion = 12
	if err := cfg.Validate(); err != nil {
		t.Errorf("full precision should not require the half-precision minimum: %v", err)
	}
}

func TestBuildWeightSectionHalf(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(raw.AsFloat32(), []float32{1.5, -2.0, 0.25})

	metas, blob, err := buildWeightSection(map[string]*tensor.RawTensor{"w": raw}, PrecisionHalf)
	if err != nil {
		t.Fatalf("buildWeightSection failed: %v", err)
	}
	if len(metas) != 1 || metas[0].DType != "float16" || metas[0].Size != 6 {
		t.Fatalf("unexpected meta: %+v", metas)
	}

	want := []float32{1.5, -2.0, 0.25} // exactly representable in half
	for i := range want {
		bits := binary.LittleEndian.Uint16(blob[metas[0].Offset+int64(2*i):])
		got := float16.Frombits(bits).Float32()
		if got != want[i] {
			t.Errorf("weight[%d] = %v, want %v", i, got, want[i])
		}
	}
}

func TestBuildWeightSectionHalfRounds(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	raw.AsFloat32()[0] = math.Pi

	metas, blob, err := buildWeightSection(map[string]*tensor.RawTensor{"w": raw}, PrecisionHalf)
	if err != nil {
		t.Fatal(err)
	}
	bits := binary.LittleEndian.Uint16(blob[metas[0].Offset:])
	got := float16.Frombits(bits).Float32()
	if diff := math.Abs(float64(got) - math.Pi); diff > 1e-3 {
		t.Errorf("half-precision pi = %v, diff %v too large", got, diff)
	}
}

func TestBuildWeightSectionAlignment(t *testing.T) {
	a, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)

	metas, _, err := buildWeightSection(map[string]*tensor.RawTensor{"a": a, "b": b}, PrecisionFull)
	if err != nil {
		t.Fatal(err)
	}
	// Names sort deterministically and each weight starts on an
	// alignment boundary.
	if metas[0].Name != "a" || metas[1].Name != "b" {
		t.Fatalf("weights out of order: %+v", metas)
	}
	for _, m := range metas {
		if m.Offset%HeaderAlignment != 0 {
			t.Errorf("weight %q offset %d not aligned", m.Name, m.Offset)
		}
	}
}
