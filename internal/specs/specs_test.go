package specs

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/born-ml/agents/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsSpec() TensorSpec {
	return NewBounded("obs", tensor.Float32, tensor.Shape{4}, -10, 10)
}

func TestWithOuterDims(t *testing.T) {
	s := obsSpec().WithOuterDims(UnknownDim)
	assert.Equal(t, tensor.Shape{UnknownDim, 4}, s.Shape)
	assert.Equal(t, tensor.Shape{4}, obsSpec().Shape, "original untouched")
	assert.True(t, s.IsBounded())

	scalar := New("st", tensor.Int32, nil).WithOuterDims(3)
	assert.Equal(t, tensor.Shape{3}, scalar.Shape)
}

func TestEqualIgnoresBounds(t *testing.T) {
	assert.True(t, obsSpec().Equal(obsSpec().Unbounded()))
	assert.False(t, obsSpec().Equal(New("obs", tensor.Float64, tensor.Shape{4})))
	assert.False(t, obsSpec().Equal(New("obs", tensor.Float32, tensor.Shape{5})))
	assert.False(t, obsSpec().Equal(New("x", tensor.Float32, tensor.Shape{4})))
}

func TestNumValues(t *testing.T) {
	n, err := NewBounded("act_0", tensor.Int32, nil, 0, 10).NumValues()
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	_, err = obsSpec().NumValues()
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	spec := obsSpec().WithOuterDims(UnknownDim)

	ok := tensor.MustNewRaw(tensor.Shape{3, 4}, tensor.Float32, tensor.CPU)
	assert.NoError(t, spec.Check(ok))

	tests := []struct {
		name string
		raw  *tensor.RawTensor
	}{
		{"wrong dtype", tensor.MustNewRaw(tensor.Shape{3, 4}, tensor.Float64, tensor.CPU)},
		{"wrong inner dim", tensor.MustNewRaw(tensor.Shape{3, 5}, tensor.Float32, tensor.CPU)},
		{"missing batch", tensor.MustNewRaw(tensor.Shape{4}, tensor.Float32, tensor.CPU)},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := spec.Check(tt.raw)
			var mismatch *MismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, "obs", mismatch.Field)
			assert.True(t, errors.Is(err, ErrMismatch))
		})
	}

	fixed := obsSpec().WithOuterDims(3)
	assert.Error(t, fixed.Check(tensor.MustNewRaw(tensor.Shape{2, 4}, tensor.Float32, tensor.CPU)))
}

func TestSampleWithinBounds(t *testing.T) {
	list := []TensorSpec{
		NewBounded("st", tensor.Int32, nil, 0, 2),
		NewBounded("reward", tensor.Float32, nil, 0, 5),
		obsSpec(),
		New("state", tensor.Float32, tensor.Shape{40}),
	}

	values, err := SampleNest(list, rand.New(rand.NewSource(4)), 3)
	require.NoError(t, err)
	require.Len(t, values, 4)

	for i, s := range list {
		assert.NoError(t, s.WithOuterDims(3).Check(values[i]), s.Name)
		assert.True(t, s.Contains(values[i]), s.Name)
	}
	for _, v := range values[3].AsFloat32() {
		assert.True(t, v >= -1 && v < 1)
	}

	again, err := SampleNest(list, rand.New(rand.NewSource(4)), 3)
	require.NoError(t, err)
	for i := range values {
		assert.Equal(t, values[i].Data(), again[i].Data(), "same seed, same sample")
	}
}

func TestZeros(t *testing.T) {
	raw, err := New("network_state_h", tensor.Float32, tensor.Shape{40}).Zeros(3)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 40}, raw.Shape())

	_, err = New("x", tensor.Float32, tensor.Shape{UnknownDim}).Zeros()
	assert.Error(t, err)
}

func TestFromMap(t *testing.T) {
	list := []TensorSpec{
		New("a", tensor.Int32, tensor.Shape{UnknownDim}),
		New("b", tensor.Float32, tensor.Shape{UnknownDim, 2}),
	}
	a := tensor.MustNewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	b := tensor.MustNewRaw(tensor.Shape{3, 2}, tensor.Float32, tensor.CPU)

	ordered, err := FromMap(list, map[string]*tensor.RawTensor{"b": b, "a": a})
	require.NoError(t, err)
	assert.Same(t, a, ordered[0])
	assert.Same(t, b, ordered[1])

	_, err = FromMap(list, map[string]*tensor.RawTensor{"a": a})
	assert.ErrorContains(t, err, `"b"`)

	_, err = FromMap(list, map[string]*tensor.RawTensor{"a": a, "b": b, "c": a})
	assert.ErrorContains(t, err, `"c"`)

	m, err := ToMap(list, ordered)
	require.NoError(t, err)
	assert.Same(t, b, m["b"])
}

func TestValidateNames(t *testing.T) {
	assert.NoError(t, Validate([]TensorSpec{obsSpec(), New("st", tensor.Int32, nil)}))
	assert.Error(t, Validate([]TensorSpec{obsSpec(), obsSpec()}))
	assert.Error(t, Validate([]TensorSpec{New("", tensor.Int32, nil)}))
	assert.Equal(t, []string{"obs", "st"}, Names([]TensorSpec{obsSpec(), New("st", tensor.Int32, nil)}))
}

func TestJSONRoundTrip(t *testing.T) {
	encoded, err := json.Marshal(obsSpec().WithOuterDims(UnknownDim))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"obs","dtype":"float32","shape":[-1,4],"bounds":{"minimum":-10,"maximum":10}}`, string(encoded))

	var decoded TensorSpec
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, decoded.Equal(obsSpec().WithOuterDims(UnknownDim)))
	assert.Equal(t, 10.0, decoded.Bounds.Maximum)
}
