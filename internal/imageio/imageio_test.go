package imageio_test

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/harism/ml-depth-pro/internal/backend/cpu"
	"github.com/harism/ml-depth-pro/internal/imageio"
	"github.com/harism/ml-depth-pro/internal/tensor"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, G: 128, B: 0, A: 255})
		}
	}
	path := writePNG(t, src)

	got, err := imageio.Load(path, 0, cpu.New())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !got.Shape().Equal(tensor.Shape{3, 3, 4}) {
		t.Fatalf("shape = %v, want (3,3,4)", got.Shape())
	}

	if r := got.At(0, 1, 2); math.Abs(float64(r)-1.0) > 1e-3 {
		t.Errorf("red channel = %v, want 1.0", r)
	}
	if g := got.At(1, 1, 2); math.Abs(float64(g)-128.0/255.0) > 1e-3 {
		t.Errorf("green channel = %v, want %v", g, 128.0/255.0)
	}
	if b := got.At(2, 1, 2); math.Abs(float64(b)) > 1e-3 {
		t.Errorf("blue channel = %v, want 0", b)
	}
}

func TestLoadCapsLongSide(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	path := writePNG(t, src)

	got, err := imageio.Load(path, 16, cpu.New())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	shape := got.Shape()
	if shape[0] != 3 || shape[2] != 16 || shape[1] != 8 {
		t.Errorf("shape = %v, want (3,8,16) with aspect preserved", shape)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := imageio.Load(filepath.Join(t.TempDir(), "absent.png"), 0, cpu.New()); err == nil {
		t.Error("expected error for missing file")
	}
}
