package neat

import (
	"fmt"
	"math"
)

// ActivationType is the squashing function applied to a node's weighted input sum.
// Every registered function is monotonic and zero-centred, so a decision output
// counts as activated when its value is greater than zero.
type ActivationType func(x float64) float64

// ActivationFunctions maps function names to the actual activation functions.
var ActivationFunctions = map[string]ActivationType{
	"tanh":     Tanh,
	"sigmoid":  Sigmoid,
	"clamped":  Clamped,
	"identity": Identity,
	"relu":     ReLU,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Tanh activation function.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// Sigmoid is the steepened logistic curve rescaled to (-1, 1).
func Sigmoid(x float64) float64 {
	const k = 4.9
	return 2.0/(1.0+math.Exp(-k*x)) - 1.0
}

// Clamped activation function (clamps output between -1 and 1).
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}

// Identity activation function (linear). Unbounded; intended for tests and
// pass-through experiments.
func Identity(x float64) float64 {
	return x
}

// ReLU (Rectified Linear Unit) activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}
