package dcm

import "math"

// FromEuler builds a body-to-world rotation from yaw, pitch and roll (radians).
//
// Right handed, intrinsic Z-Y'-X'': yaw about Z first, then pitch, then roll.
func FromEuler(yaw, pitch, roll float64) Matrix3 {
	c1, s1 := math.Cos(roll), math.Sin(roll)
	c2, s2 := math.Cos(pitch), math.Sin(pitch)
	c3, s3 := math.Cos(yaw), math.Sin(yaw)

	return Matrix3{
		{c2 * c3, c3*s1*s2 - c1*s3, s1*s3 + c1*c3*s2},
		{c2 * s3, c1*c3 + s1*s2*s3, c1*s2*s3 - c3*s1},
		{-s2, c2 * s1, c1 * c2},
	}
}

// Euler extracts yaw, pitch and roll (radians) from m.
//
// The asin argument is clamped so rounding at pitch=±90° cannot produce NaN.
// Near that pitch yaw and roll are not separable (gimbal lock).
func Euler(m Matrix3) (yaw, pitch, roll float64) {
	pitch = -math.Asin(clamp(m[2][0], -1, 1))
	roll = math.Atan2(m[2][1], m[2][2])
	yaw = math.Atan2(m[1][0], m[0][0])
	return yaw, pitch, roll
}

// Normalize restores approximate orthonormality of m.
//
// The row0/row1 orthogonality error is split evenly between both rows, row2
// is re-derived as their cross product and every row is rescaled with a
// first order Taylor expansion of 1/|row|. Only valid while rows are already
// close to unit length, which holds for one integration step at 50 Hz.
func Normalize(m Matrix3) Matrix3 {
	r0, r1 := m.Row(0), m.Row(1)
	e := -0.5 * r0.Dot(r1)

	t0 := r0.Add(r1.Scale(e))
	t1 := r1.Add(r0.Scale(e))
	t2 := t0.Cross(t1)

	return Matrix3{renorm(t0), renorm(t1), renorm(t2)}
}

func renorm(v Vector3) Vector3 {
	return v.Scale(0.5 * (3 - v.Dot(v)))
}

// Heading returns the tilt compensated magnetic heading (radians) of magn,
// given the current roll and pitch.
func Heading(magn Vector3, roll, pitch float64) float64 {
	cr, sr := math.Cos(roll), math.Sin(roll)
	cp, sp := math.Cos(pitch), math.Sin(pitch)

	x := magn[0]*cp + magn[1]*sr*sp + magn[2]*cr*sp
	y := magn[1]*cr - magn[2]*sr
	return math.Atan2(-y, x)
}

// AccelWeight returns how much the accelerometer can be trusted as a gravity
// reference: 1 at exactly 1G, falling linearly to 0 at 0.5G and 1.5G.
func AccelWeight(accel Vector3, gravity float64) float64 {
	mag := accel.Norm() / gravity
	return clamp(1-2*math.Abs(1-mag), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
