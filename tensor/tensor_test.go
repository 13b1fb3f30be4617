// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/agents/internal/backend/cpu"
	"github.com/born-ml/agents/tensor"
)

func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.CPUBackend)(nil)
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want float32", raw.DType())
	}
	if raw.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}
	if len(raw.AsFloat32()) != 6 {
		t.Errorf("AsFloat32() length = %d, want 6", len(raw.AsFloat32()))
	}
}

func TestRawFromSliceAndScalar(t *testing.T) {
	st, err := tensor.RawFromSlice([]int32{0, 1, 2}, tensor.Shape{3})
	if err != nil {
		t.Fatalf("RawFromSlice failed: %v", err)
	}
	if st.DType() != tensor.Int32 || st.AsInt32()[2] != 2 {
		t.Errorf("unexpected tensor %v", st)
	}

	s := tensor.Scalar[int32](3)
	if len(s.Shape()) != 0 {
		t.Errorf("Scalar shape = %v, want []", s.Shape())
	}

	if dt, err := tensor.ParseDataType("int32"); err != nil || dt != tensor.Int32 {
		t.Errorf("ParseDataType(int32) = %v, %v", dt, err)
	}
}

func TestTypedTensor(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	y := x.Add(tensor.Zeros[float32](tensor.Shape{2, 2}, backend))
	if y.At(1, 1) != 4 {
		t.Errorf("At(1, 1) = %v, want 4", y.At(1, 1))
	}
	if !tensor.ExecutingEagerly(backend) {
		t.Error("CPU backend should execute eagerly")
	}
}
