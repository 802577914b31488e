// Package board describes the supported SparkFun 9DOF boards and how their
// sensor axes map onto the filter's body frame.
//
// Body frame: X forward (towards the connector edge), Y right, Z down.
// Positive yaw is clockwise, positive roll is right wing down, positive
// pitch is nose up.
package board

import (
	"fmt"
	"sort"

	"razor-ahrs/internal/dcm"
)

// Magnetometer chips.
const (
	HMC5843  = "HMC5843"
	HMC5883L = "HMC5883L"
)

// Axis selects one register word (in chip read order) and its sign.
type Axis struct {
	Word int
	Sign float64
}

// AxisMap produces body X, Y, Z from the three words a chip returns.
type AxisMap [3]Axis

func (m AxisMap) Apply(words [3]int16) dcm.Vector3 {
	var v dcm.Vector3
	for i, a := range m {
		v[i] = a.Sign * float64(words[a.Word])
	}
	return v
}

type Variant struct {
	Code         int
	Name         string
	Magnetometer string

	Accel AxisMap
	Magn  AxisMap
	Gyro  AxisMap
}

// ADXL345 and ITG-3200 are mounted the same way on every board.
var (
	adxl345Axes = AxisMap{{1, 1}, {0, 1}, {2, 1}}
	itg3200Axes = AxisMap{{1, -1}, {0, -1}, {2, -1}}
)

var variants = map[int]Variant{
	10125: {
		Code: 10125, Name: "9DOF Razor IMU", Magnetometer: HMC5843,
		Accel: adxl345Axes, Gyro: itg3200Axes,
		Magn: AxisMap{{1, -1}, {0, -1}, {2, -1}},
	},
	10736: {
		Code: 10736, Name: "9DOF Razor IMU", Magnetometer: HMC5883L,
		Accel: adxl345Axes, Gyro: itg3200Axes,
		// HMC5883L reads X, Z, Y.
		Magn: AxisMap{{2, -1}, {0, -1}, {1, -1}},
	},
	10183: {
		Code: 10183, Name: "9DOF Sensor Stick", Magnetometer: HMC5843,
		Accel: adxl345Axes, Gyro: itg3200Axes,
		Magn: AxisMap{{0, 1}, {1, -1}, {2, -1}},
	},
	10321: {
		Code: 10321, Name: "9DOF Sensor Stick", Magnetometer: HMC5843,
		Accel: adxl345Axes, Gyro: itg3200Axes,
		Magn: AxisMap{{0, 1}, {1, -1}, {2, -1}},
	},
	10724: {
		Code: 10724, Name: "9DOF Sensor Stick", Magnetometer: HMC5883L,
		Accel: adxl345Axes, Gyro: itg3200Axes,
		Magn: AxisMap{{0, 1}, {2, -1}, {1, -1}},
	},
}

// Lookup returns the variant for a SparkFun product code (SEN-xxxxx).
func Lookup(code int) (Variant, error) {
	if code == 0 {
		return Variant{}, fmt.Errorf("board: hardware variant must be selected (one of %v)", Codes())
	}
	v, ok := variants[code]
	if !ok {
		return Variant{}, fmt.Errorf("board: unknown hardware variant %d (one of %v)", code, Codes())
	}
	return v, nil
}

// Codes returns the supported product codes in ascending order.
func Codes() []int {
	out := make([]int, 0, len(variants))
	for c := range variants {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}
