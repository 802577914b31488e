package dcm

import "math"

// Vector3 is a 3-component value. Methods never modify the receiver, so a
// result can never alias an input.
type Vector3 [3]float64

// Dot returns the scalar product of v and o.
func (v Vector3) Dot(o Vector3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross returns v × o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Scale returns v with every component multiplied by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Matrix3 is a row-major 3x3 matrix value.
type Matrix3 [3][3]float64

// Identity returns the 3x3 identity matrix.
func Identity() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Row returns row i of m.
func (m Matrix3) Row(i int) Vector3 {
	return Vector3(m[i])
}

// Mul returns m * o.
func (m Matrix3) Mul(o Matrix3) Matrix3 {
	var out Matrix3
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			out[x][y] = m[x][0]*o[0][y] + m[x][1]*o[1][y] + m[x][2]*o[2][y]
		}
	}
	return out
}

// MulVec returns m * v.
func (m Matrix3) MulVec(v Vector3) Vector3 {
	return Vector3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

func (m Matrix3) Add(o Matrix3) Matrix3 {
	var out Matrix3
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			out[x][y] = m[x][y] + o[x][y]
		}
	}
	return out
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Transpose returns mᵀ.
func (m Matrix3) Transpose() Matrix3 {
	var out Matrix3
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			out[x][y] = m[y][x]
		}
	}
	return out
}

// Det returns the determinant of m.
func (m Matrix3) Det() float64 {
	return m.Row(0).Dot(m.Row(1).Cross(m.Row(2)))
}

// Inverse returns the inverse of m; ok is false for a singular matrix.
func (m Matrix3) Inverse() (inv Matrix3, ok bool) {
	det := m.Det()
	if det == 0 || math.IsNaN(det) {
		return Matrix3{}, false
	}
	// Columns of the inverse are the row cross products over det.
	c0 := m.Row(1).Cross(m.Row(2))
	c1 := m.Row(2).Cross(m.Row(0))
	c2 := m.Row(0).Cross(m.Row(1))
	for i := 0; i < 3; i++ {
		inv[i] = [3]float64{c0[i] / det, c1[i] / det, c2[i] / det}
	}
	return inv, true
}
