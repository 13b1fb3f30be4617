package tensor

// Cat concatenates tensors along dim. Negative dims count from the end.
//
//	a := tensor.Zeros[float32](Shape{2, 3}, backend)
//	b := tensor.Zeros[float32](Shape{2, 5}, backend)
//	c := tensor.Cat([]*Tensor[float32, B]{a, b}, 1) // Shape: [2, 8]
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	if len(tensors) == 1 {
		return tensors[0].Clone()
	}

	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	backend := tensors[0].backend
	return New[T](backend.Cat(raws, dim), backend)
}

// Chunk splits the tensor into n equal parts along dim.
//
//	x := tensor.Zeros[float32](Shape{2, 160}, backend)
//	gates := x.Chunk(4, -1) // 4 tensors of shape [2, 40]
func (t *Tensor[T, B]) Chunk(n, dim int) []*Tensor[T, B] {
	rawParts := t.backend.Chunk(t.raw, n, dim)
	parts := make([]*Tensor[T, B], len(rawParts))
	for i, raw := range rawParts {
		parts[i] = New[T](raw, t.backend)
	}
	return parts
}

// Where selects x where cond is true and y elsewhere, with broadcasting.
func Where[T DType, B Backend](cond *Tensor[bool, B], x, y *Tensor[T, B]) *Tensor[T, B] {
	return New[T](x.backend.Where(cond.raw, x.raw, y.raw), x.backend)
}
