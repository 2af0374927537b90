package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // shape validation failed
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Eye creates a rows×cols matrix with ones on the main diagonal.
func Eye[T DType, B Backend](rows, cols int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{rows, cols}, b)
	data := t.Data()
	for i := 0; i < min(rows, cols); i++ {
		data[i*cols+i] = 1
	}
	return t
}

// Randn creates a float tensor with standard normal entries drawn from rng.
// A nil rng uses the shared package-level source.
func Randn[T Float, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		if rng != nil {
			data[i] = T(rng.NormFloat64())
		} else {
			data[i] = T(rand.NormFloat64())
		}
	}
	return t
}

// Rand creates a float tensor with uniform entries in [0, 1) drawn from rng.
// A nil rng uses the shared package-level source.
func Rand[T Float, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		if rng != nil {
			data[i] = T(rng.Float64())
		} else {
			data[i] = T(rand.Float64())
		}
	}
	return t
}

// Arange creates a 1-D tensor with values [start, stop) stepped by 1.
func Arange[T DType, B Backend](start, stop int, b B) *Tensor[T, B] {
	if stop <= start {
		panic("arange: stop must be greater than start")
	}
	t := Zeros[T, B](Shape{stop - start}, b)
	data := t.Data()
	for i := range data {
		data[i] = T(start + i)
	}
	return t
}

// Linspace creates a 1-D tensor with n evenly spaced values from start to
// stop inclusive.
func Linspace[T Float, B Backend](start, stop T, n int, b B) *Tensor[T, B] {
	if n < 2 {
		panic("linspace: n must be at least 2")
	}
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	step := (stop - start) / T(n-1)
	for i := range data {
		data[i] = start + T(i)*step
	}
	data[n-1] = stop
	return t
}
