package calibration

import "razor-ahrs/internal/dcm"

// The Raw* functions invert the calibration so synthetic sources can emit
// readings a real, uncalibrated board would produce.

func (m *Model) RawAccel(v dcm.Vector3) dcm.Vector3 {
	return unscaled(v, m.accelOffset, m.accelScale)
}

func (m *Model) RawMagn(v dcm.Vector3) dcm.Vector3 {
	if m.params.MagnExtended {
		return m.magnInverse.MulVec(v).Add(m.params.MagnCenter)
	}
	return unscaled(v, m.magnOffset, m.magnScale)
}

func (m *Model) RawGyro(v dcm.Vector3) dcm.Vector3 {
	return v.Add(m.params.GyroBias)
}

func unscaled(v, offset, scale dcm.Vector3) dcm.Vector3 {
	return dcm.Vector3{v[0] / scale[0], v[1] / scale[1], v[2] / scale[2]}.Add(offset)
}
