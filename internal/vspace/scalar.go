package vspace

// Float is the constraint for scalar floating-point cotangents.
type Float interface {
	~float32 | ~float64
}

// scalar is the trivial instance for a scalar numeric type.
type scalar[T Float] struct{}

func (scalar[T]) Zero() any { var z T; return z }

func (scalar[T]) One() any { return T(1) }

func (scalar[T]) Add(a, b any) any { return a.(T) + b.(T) }

// Scalar returns the trivial instance for a scalar floating-point type.
func Scalar[T Float]() ScalarSpace {
	return scalar[T]{}
}

// Float32 returns the instance for float32.
func Float32() ScalarSpace { return Scalar[float32]() }

// Float64 returns the instance for float64.
func Float64() ScalarSpace { return Scalar[float64]() }
