package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/needle/internal/tensor"
)

// ReLUGain is the recommended gain for the "relu" nonlinearity.
const ReLUGain = math.Sqrt2

func nonlinearityGain(nonlinearity string) (float64, error) {
	if nonlinearity != "relu" {
		return 0, fmt.Errorf("nonlinearity %q: %w", nonlinearity, ErrUnsupported)
	}
	return ReLUGain, nil
}

func initShape(fanIn, fanOut int, shape tensor.Shape) tensor.Shape {
	if shape == nil {
		return tensor.Shape{fanIn, fanOut}
	}
	return shape
}

// XavierUniform initializes weights from U(-a, a) with
// a = gain * sqrt(6 / (fan_in + fan_out)).
//
// Parameters:
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - shape: Shape of the weight tensor, nil for (fanIn, fanOut)
//   - gain: Scaling factor
//   - backend: Backend to use for tensor creation
func XavierUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, gain float64, backend B) *tensor.Tensor[float32, B] {
	a := gain * math.Sqrt(6.0/float64(fanIn+fanOut))
	return tensor.Rand[float32](initShape(fanIn, fanOut, shape), -a, a, backend)
}

// XavierNormal initializes weights from N(0, std²) with
// std = gain * sqrt(2 / (fan_in + fan_out)).
func XavierNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, gain float64, backend B) *tensor.Tensor[float32, B] {
	std := gain * math.Sqrt(2.0/float64(fanIn+fanOut))
	return tensor.Randn[float32](initShape(fanIn, fanOut, shape), 0, std, backend)
}

// KaimingUniform initializes weights from U(-bound, bound) with
// bound = gain * sqrt(3 / fan_in).
//
// Only the "relu" nonlinearity is supported; anything else returns an error
// wrapping ErrUnsupported.
//
// Parameters:
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - shape: Shape of the weight tensor, nil for (fanIn, fanOut)
//   - nonlinearity: Activation following the layer
//   - backend: Backend to use for tensor creation
func KaimingUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, nonlinearity string, backend B) (*tensor.Tensor[float32, B], error) {
	gain, err := nonlinearityGain(nonlinearity)
	if err != nil {
		return nil, err
	}
	bound := gain * math.Sqrt(3.0/float64(fanIn))
	return tensor.Rand[float32](initShape(fanIn, fanOut, shape), -bound, bound, backend), nil
}

// KaimingNormal initializes weights from N(0, std²) with
// std = gain / sqrt(fan_in).
func KaimingNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, nonlinearity string, backend B) (*tensor.Tensor[float32, B], error) {
	gain, err := nonlinearityGain(nonlinearity)
	if err != nil {
		return nil, err
	}
	std := gain / math.Sqrt(float64(fanIn))
	return tensor.Randn[float32](initShape(fanIn, fanOut, shape), 0, std, backend), nil
}

// mustKaimingUniform is KaimingUniform for the fixed "relu" gain used by
// layer constructors.
func mustKaimingUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	t, err := KaimingUniform(fanIn, fanOut, shape, "relu", backend)
	if err != nil {
		panic(err)
	}
	return t
}
