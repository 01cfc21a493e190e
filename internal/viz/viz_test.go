package viz_test

import (
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/harism/ml-depth-pro/internal/backend/cpu"
	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/viz"
)

func TestSaveImage(t *testing.T) {
	var backend tensor.Backend = cpu.New()
	img := tensor.Full[float32](tensor.Shape{3, 8, 12}, 0.25, backend)

	path := filepath.Join(t.TempDir(), "input.png")
	if err := viz.SaveImage(path, img); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	decoded, err := png.Decode(file)
	if err != nil {
		t.Fatalf("written file is not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 12 || decoded.Bounds().Dy() != 8 {
		t.Errorf("decoded size = %v, want 12x8", decoded.Bounds())
	}
}

func TestSaveImageBatched(t *testing.T) {
	var backend tensor.Backend = cpu.New()
	img := tensor.Full[float32](tensor.Shape{1, 3, 4, 4}, 0.5, backend)

	path := filepath.Join(t.TempDir(), "input.png")
	if err := viz.SaveImage(path, img); err != nil {
		t.Fatalf("SaveImage failed for batched input: %v", err)
	}
}

func TestSaveImageRejectsBadShape(t *testing.T) {
	var backend tensor.Backend = cpu.New()
	bad := tensor.Full[float32](tensor.Shape{2, 4, 4}, 0.5, backend)

	if err := viz.SaveImage(filepath.Join(t.TempDir(), "x.png"), bad); err == nil {
		t.Error("expected error for non-RGB tensor")
	}
}

func TestSaveDepthMap(t *testing.T) {
	var backend tensor.Backend = cpu.New()
	depthMap := tensor.RandnFrom[float32](tensor.Shape{1, 1, 16, 16}, rand.New(rand.NewSource(1)), backend)
	// Shift to positive depth-like values.
	for i, v := range depthMap.Data() {
		depthMap.Data()[i] = v*v + 0.5
	}

	path := filepath.Join(t.TempDir(), "depth.png")
	if err := viz.SaveDepthMap(path, depthMap); err != nil {
		t.Fatalf("SaveDepthMap failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("depth map file is empty")
	}
}

func TestSaveDepthMapConstant(t *testing.T) {
	var backend tensor.Backend = cpu.New()
	depthMap := tensor.Full[float32](tensor.Shape{8, 8}, 2.23, backend)

	path := filepath.Join(t.TempDir(), "depth.png")
	if err := viz.SaveDepthMap(path, depthMap); err != nil {
		t.Fatalf("SaveDepthMap failed for constant map: %v", err)
	}
}
