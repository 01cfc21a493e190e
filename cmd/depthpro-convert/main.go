// Command depthpro-convert builds a resolution-adapted depth model,
// runs one example image through the full pipeline for visual
// inspection, and exports the four pipeline stages as deployment
// packages.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/harism/ml-depth-pro/internal/backend/cpu"
	"github.com/harism/ml-depth-pro/internal/depth"
	"github.com/harism/ml-depth-pro/internal/export"
	"github.com/harism/ml-depth-pro/internal/imageio"
	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/trace"
	"github.com/harism/ml-depth-pro/internal/viz"
)

func main() {
	var (
		imagePath = flag.String("image", "", "example image (jpeg/png); a synthetic image is used when empty")
		outDir    = flag.String("out", "out", "output directory for deployment packages and previews")
		size      = flag.Int("size", 1024, "square working resolution to adapt the model to")
		noAux     = flag.Bool("no-fov-encoder", false, "estimate FOV without the auxiliary image encoder")
		seed      = flag.Int64("seed", 0, "weight initialization seed")
	)
	flag.Parse()

	if err := run(*imagePath, *outDir, *size, *noAux, *seed); err != nil {
		log.Fatal(err)
	}
}

func run(imagePath, outDir string, size int, noAux bool, seed int64) error {
	// Phase 1: construct the model over the tracing backend and adapt
	// it to the requested working resolution.
	tracer := trace.New(cpu.New())

	cfg := depth.DefaultConfig()
	cfg.Seed = seed
	if noAux {
		cfg.FovVariant = depth.FovWithoutAuxEncoder
	}
	model, err := depth.NewModel(cfg, tracer)
	if err != nil {
		return err
	}
	if err := model.AdaptResolution(size); err != nil {
		return err
	}
	log.Printf("model ready: working side %d, patch grid %d, fov variant %s",
		size, model.Encoder.GridSize(), cfg.FovVariant)

	// Phase 2: run one example image end to end and write previews.
	img, err := loadExample(imagePath, tracer)
	if err != nil {
		return err
	}
	depthMap, err := model.Pipeline().Forward(img)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	inputPNG := filepath.Join(outDir, "preview_input.png")
	depthPNG := filepath.Join(outDir, "preview_depth.png")
	if err := viz.SaveImage(inputPNG, img); err != nil {
		return err
	}
	if err := viz.SaveDepthMap(depthPNG, depthMap); err != nil {
		return err
	}
	log.Printf("previews written: %s, %s", inputPNG, depthPNG)

	// Phase 3: export the four pipeline stages, each frozen to fixed
	// example shapes at the adapted resolution.
	ecfg := export.DefaultConfig()
	ecfg.OutputDir = outDir
	exporter, err := export.NewExporter(ecfg, tracer)
	if err != nil {
		return err
	}

	dim := model.Decoder.Dim()
	decoderShapes := make([]tensor.Shape, 0, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		side := size / cfg.Scales[i]
		decoderShapes = append(decoderShapes, tensor.Shape{1, ch, side, side})
	}

	jobs := []struct {
		module export.Module
		shapes []tensor.Shape
	}{
		{model.Transform, []tensor.Shape{{1, 3, size, size}}},
		{model.Encoder, []tensor.Shape{{1, 3, size, size}}},
		{model.Decoder, decoderShapes},
		{model.Recovery, []tensor.Shape{
			{1, 3, size, size},
			{1, dim, size / 2, size / 2},
			{1, dim, size / 32, size / 32},
		}},
	}
	for _, job := range jobs {
		pkg, err := exporter.Export(job.module, job.shapes)
		if err != nil {
			return err
		}
		log.Printf("exported %s: %d ops, %d weight tensors, id %s",
			pkg.Manifest.Name, pkg.Manifest.Program.Len(), len(pkg.Manifest.Weights), pkg.Manifest.ID)
	}
	return nil
}

// loadExample reads the given image, or synthesizes a radial gradient
// when no path is given so the command runs without assets.
func loadExample(path string, backend tensor.Backend) (*tensor.F32, error) {
	if path != "" {
		return imageio.Load(path, 4096, backend)
	}

	const side = 512
	data := make([]float32, 3*side*side)
	plane := side * side
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			dx := float64(x-side/2) / (side / 2)
			dy := float64(y-side/2) / (side / 2)
			r := math.Sqrt(dx*dx+dy*dy) / math.Sqrt2
			i := y*side + x
			data[i] = float32(r)
			data[plane+i] = float32(1 - r)
			data[2*plane+i] = float32(x) / side
		}
	}
	img, err := tensor.FromSlice[float32](data, tensor.Shape{3, side, side}, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize example image: %w", err)
	}
	return img, nil
}
