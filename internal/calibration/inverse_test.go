package calibration

import (
	"testing"

	"razor-ahrs/internal/dcm"
)

func TestModel_RawInvertsCalibration(t *testing.T) {
	simple := DefaultParams()
	simple.AccelMin = dcm.Vector3{-277, -256, -299}
	simple.AccelMax = dcm.Vector3{264, 278, 235}
	simple.GyroBias = dcm.Vector3{-42.05, 96.20, -18.36}

	extended := simple
	extended.MagnExtended = true
	extended.MagnCenter = dcm.Vector3{72.3360, 23.0954, 53.6261}
	extended.MagnTransform = dcm.Matrix3{
		{0.879685, 0.000540833, -0.0106054},
		{0.000540833, 0.891086, -0.0130338},
		{-0.0106054, -0.0130338, 0.997494},
	}

	for name, p := range map[string]Params{"Simple": simple, "Extended": extended} {
		t.Run(name, func(t *testing.T) {
			m, err := NewModel(p, gravity)
			if err != nil {
				t.Fatalf("NewModel: %v", err)
			}
			v := dcm.Vector3{12.5, -80, 230}
			if got := m.Accel(m.RawAccel(v)); got.Sub(v).Norm() > 1e-9 {
				t.Fatalf("accel round trip=%v want %v", got, v)
			}
			if got := m.Magn(m.RawMagn(v)); got.Sub(v).Norm() > 1e-9 {
				t.Fatalf("magn round trip=%v want %v", got, v)
			}
			if got := m.Gyro(m.RawGyro(v)); got.Sub(v).Norm() > 1e-9 {
				t.Fatalf("gyro round trip=%v want %v", got, v)
			}
		})
	}
}
