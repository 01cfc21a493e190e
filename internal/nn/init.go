package nn

import (
	"math"
	"math/rand"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Xavier creates a tensor initialized with Xavier/Glorot uniform
// values for the given fan-in/fan-out.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * limit
	}
	return t
}
