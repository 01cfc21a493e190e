package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/x448/float16"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// buildWeightSection lays the module's weights into the package's
// weight blob, quantizing to the configured precision. Weights are
// ordered by name and aligned to HeaderAlignment so the layout is
// reproducible.
func buildWeightSection(state map[string]*tensor.RawTensor, precision Precision) ([]WeightMeta, []byte, error) {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	var blob bytes.Buffer
	metas := make([]WeightMeta, 0, len(names))
	for _, name := range names {
		raw := state[name]

		if pad := (HeaderAlignment - blob.Len()%HeaderAlignment) % HeaderAlignment; pad > 0 {
			blob.Write(make([]byte, pad))
		}
		offset := int64(blob.Len())

		var data []byte
		var dtype string
		switch precision {
		case PrecisionHalf:
			if raw.DType() != tensor.Float32 {
				return nil, nil, fmt.Errorf("export: weight %q has dtype %s; half-precision quantization takes float32", name, raw.DType())
			}
			src := raw.AsFloat32()
			data = make([]byte, 2*len(src))
			for i, v := range src {
				binary.LittleEndian.PutUint16(data[2*i:], float16.Fromfloat32(v).Bits())
			}
			dtype = tensor.Float16.String()
		case PrecisionFull:
			data = raw.Data()
			dtype = raw.DType().String()
		default:
			return nil, nil, fmt.Errorf("export: precision %q: %w", precision, ErrExportTargetUnsupported)
		}

		blob.Write(data)
		metas = append(metas, WeightMeta{
			Name:   name,
			DType:  dtype,
			Shape:  append([]int(nil), raw.Shape()...),
			Offset: offset,
			Size:   int64(len(data)),
		})
	}
	return metas, blob.Bytes(), nil
}
