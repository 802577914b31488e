package calibration

import (
	"math"
	"strings"
	"testing"

	"razor-ahrs/internal/dcm"
)

const gravity = 256.0

func TestNewModel_RejectsDegenerateRange(t *testing.T) {
	p := DefaultParams()
	p.AccelMax[1] = p.AccelMin[1]
	_, err := NewModel(p, gravity)
	if err == nil || !strings.Contains(err.Error(), "accel axis 1") {
		t.Fatalf("err=%v want accel axis 1 error", err)
	}

	p = DefaultParams()
	p.MagnMin[2] = 700
	_, err = NewModel(p, gravity)
	if err == nil || !strings.Contains(err.Error(), "magn axis 2") {
		t.Fatalf("err=%v want magn axis 2 error", err)
	}

	if _, err := NewModel(DefaultParams(), 0); err == nil {
		t.Fatalf("expected error for zero gravity")
	}
}

func TestNewModel_ExtendedSkipsMinMax(t *testing.T) {
	p := DefaultParams()
	p.MagnMin = dcm.Vector3{}
	p.MagnMax = dcm.Vector3{}
	p.MagnExtended = true
	p.MagnTransform = dcm.Identity()
	if _, err := NewModel(p, gravity); err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	p.MagnTransform = dcm.Matrix3{}
	if _, err := NewModel(p, gravity); err == nil {
		t.Fatalf("expected error for singular transform")
	}
}

func TestModel_AccelScalesToGravity(t *testing.T) {
	p := DefaultParams()
	p.AccelMin = dcm.Vector3{-277, -256, -299}
	p.AccelMax = dcm.Vector3{264, 278, 235}
	m, err := NewModel(p, gravity)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	for i := 0; i < 3; i++ {
		var hi, lo dcm.Vector3
		hi[i] = p.AccelMax[i]
		lo[i] = p.AccelMin[i]
		// Other axes sit at their midpoint so they calibrate to zero.
		for j := 0; j < 3; j++ {
			if j != i {
				mid := (p.AccelMin[j] + p.AccelMax[j]) / 2
				hi[j], lo[j] = mid, mid
			}
		}
		if got := m.Accel(hi); math.Abs(got.Norm()-gravity) > 1e-9 || math.Abs(got[i]-gravity) > 1e-9 {
			t.Fatalf("axis %d max -> %v want +G", i, got)
		}
		if got := m.Accel(lo); math.Abs(got[i]+gravity) > 1e-9 {
			t.Fatalf("axis %d min -> %v want -G", i, got)
		}
	}
}

func TestModel_MagnSimple(t *testing.T) {
	p := DefaultParams()
	p.MagnMin = dcm.Vector3{-511, -516, -489}
	p.MagnMax = dcm.Vector3{581, 568, 486}
	m, err := NewModel(p, gravity)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	got := m.Magn(dcm.Vector3{581, 26, -1.5})
	if math.Abs(got[0]-MagnReference) > 1e-9 || math.Abs(got[1]) > 1e-9 || math.Abs(got[2]) > 1e-9 {
		t.Fatalf("got=%v want [100 0 0]", got)
	}
}

func TestModel_MagnExtended(t *testing.T) {
	p := DefaultParams()
	p.MagnExtended = true
	p.MagnCenter = dcm.Vector3{91.5, -13.5, -48.1}
	p.MagnTransform = dcm.Matrix3{
		{0.902, -0.00354, 0.000636},
		{-0.00354, 0.9, -0.00599},
		{0.000636, -0.00599, 1},
	}
	m, err := NewModel(p, gravity)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	if got := m.Magn(p.MagnCenter); got.Norm() != 0 {
		t.Fatalf("center -> %v want zero", got)
	}
	raw := p.MagnCenter.Add(dcm.Vector3{100, 0, 0})
	got := m.Magn(raw)
	want := dcm.Vector3{90.2, -0.354, 0.0636}
	if got.Sub(want).Norm() > 1e-9 {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestModel_GyroSubtractsBias(t *testing.T) {
	p := DefaultParams()
	p.GyroBias = dcm.Vector3{-42.05, 96.20, -18.36}
	m, err := NewModel(p, gravity)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	got := m.Gyro(dcm.Vector3{-40, 98, -18})
	want := dcm.Vector3{2.05, 1.80, 0.36}
	if got.Sub(want).Norm() > 1e-9 {
		t.Fatalf("got=%v want=%v", got, want)
	}
}
