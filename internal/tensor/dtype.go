// Package tensor provides the core tensor types for the depth conversion pipeline.
package tensor

// DType is a constraint for supported tensor element types.
// The pipeline computes in float32; float64 and uint8 exist for
// image ingestion and test fixtures.
type DType interface {
	~float32 | ~float64 | ~uint8
}

// DataType is runtime type information for tensors.
type DataType int

// Supported data types. Float16 is a storage-only type: no kernel
// computes in half precision, it appears in deployment packages where
// the exporter quantizes weights and declared activations.
const (
	Float32 DataType = iota
	Float64
	Float16
	Uint8
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Float16:
		return 2
	case Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case uint8:
		return Uint8
	default:
		panic("unsupported type")
	}
}
