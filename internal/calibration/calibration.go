package calibration

import (
	"fmt"

	"razor-ahrs/internal/dcm"
)

// MagnReference is the field magnitude a simple-mode calibrated magnetometer
// reports. Only the direction feeds the filter.
const MagnReference = 100.0

// Params is the static sensor calibration of one board.
//
// Accelerometer and (simple mode) magnetometer are described by the per-axis
// min/max readings observed during a calibration session. The extended
// magnetometer mode replaces min/max with an ellipsoid center and transform
// that also compensate soft iron distortion.
type Params struct {
	AccelMin dcm.Vector3
	AccelMax dcm.Vector3

	MagnMin dcm.Vector3
	MagnMax dcm.Vector3

	MagnExtended  bool
	MagnCenter    dcm.Vector3
	MagnTransform dcm.Matrix3

	GyroBias dcm.Vector3
}

// DefaultParams mirrors an uncalibrated board: symmetric ranges, no bias.
func DefaultParams() Params {
	return Params{
		AccelMin: dcm.Vector3{-250, -250, -250},
		AccelMax: dcm.Vector3{250, 250, 250},
		MagnMin:  dcm.Vector3{-600, -600, -600},
		MagnMax:  dcm.Vector3{600, 600, 600},
	}
}

// Model applies Params to raw samples.
type Model struct {
	params Params

	accelOffset dcm.Vector3
	accelScale  dcm.Vector3
	magnOffset  dcm.Vector3
	magnScale   dcm.Vector3
	magnInverse dcm.Matrix3
}

// NewModel precomputes offsets and scales. gravity is the 1G reference the
// calibrated accelerometer is scaled to; it must be the filter's gravity.
func NewModel(p Params, gravity float64) (*Model, error) {
	if !(gravity > 0) {
		return nil, fmt.Errorf("calibration: gravity must be > 0 (got %v)", gravity)
	}
	m := &Model{params: p}

	var err error
	m.accelOffset, m.accelScale, err = affine("accel", p.AccelMin, p.AccelMax, gravity)
	if err != nil {
		return nil, err
	}
	if p.MagnExtended {
		inv, ok := p.MagnTransform.Inverse()
		if !ok {
			return nil, fmt.Errorf("calibration: magn extended transform is singular")
		}
		m.magnInverse = inv
	} else {
		m.magnOffset, m.magnScale, err = affine("magn", p.MagnMin, p.MagnMax, MagnReference)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func affine(name string, min, max dcm.Vector3, ref float64) (offset, scale dcm.Vector3, err error) {
	for i := 0; i < 3; i++ {
		if !(max[i] > min[i]) {
			return offset, scale, fmt.Errorf("calibration: %s axis %d max (%v) must be greater than min (%v)", name, i, max[i], min[i])
		}
		offset[i] = (min[i] + max[i]) / 2
		scale[i] = ref / (max[i] - offset[i])
	}
	return offset, scale, nil
}

func (m *Model) Params() Params { return m.params }

// Accel returns the accelerometer sample scaled so gravity has the 1G
// reference magnitude.
func (m *Model) Accel(raw dcm.Vector3) dcm.Vector3 {
	return scaled(raw, m.accelOffset, m.accelScale)
}

// Magn returns the hard (and in extended mode soft) iron compensated
// magnetometer sample.
func (m *Model) Magn(raw dcm.Vector3) dcm.Vector3 {
	if m.params.MagnExtended {
		return m.params.MagnTransform.MulVec(raw.Sub(m.params.MagnCenter))
	}
	return scaled(raw, m.magnOffset, m.magnScale)
}

// Gyro removes the static bias. Values stay in sensor counts; the estimator
// converts them to rad/s.
func (m *Model) Gyro(raw dcm.Vector3) dcm.Vector3 {
	return raw.Sub(m.params.GyroBias)
}

func scaled(raw, offset, scale dcm.Vector3) dcm.Vector3 {
	d := raw.Sub(offset)
	return dcm.Vector3{d[0] * scale[0], d[1] * scale[1], d[2] * scale[2]}
}
