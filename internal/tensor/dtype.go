// Package tensor provides the core tensor types and the compute contract that
// every needle backend implements.
package tensor

import "math"

// DType is a constraint for supported tensor element types.
// The nn layers are float32; float64 is carried through the engine so that
// numerics can be cross-checked at double precision.
type DType interface {
	~float32 | ~float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
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
	default:
		return "unknown"
	}
}

// Lowest returns the most negative finite value representable by the type.
// Attention masks use it instead of -Inf so that masked logits stay finite.
func (dt DataType) Lowest() float64 {
	switch dt {
	case Float32:
		return -math.MaxFloat32
	case Float64:
		return -math.MaxFloat64
	default:
		panic("unknown data type")
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic("unsupported type")
	}
}
