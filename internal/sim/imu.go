package sim

import (
	"fmt"
	"math"
	"time"

	"razor-ahrs/internal/calibration"
	"razor-ahrs/internal/dcm"
)

// IMU is a deterministic Razor board stand-in: it yaws at a constant rate
// with fixed pitch and roll and emits the raw readings an uncalibrated board
// with the given Calibration would produce.
type IMU struct {
	Gravity  float64
	GyroGain float64 // deg/s per count, as the filter expects

	// MagnField is the earth field in world coordinates (x north, z down).
	MagnField dcm.Vector3

	YawRate     float64 // rad/s
	Pitch, Roll float64 // rad

	// GyroBias is uncompensated gyro offset in counts on top of whatever the
	// calibration removes.
	GyroBias dcm.Vector3

	Calibration *calibration.Model

	// Now drives the simulation from a clock. When nil, time only moves
	// through Advance.
	Now func() time.Time

	start   time.Time
	elapsed time.Duration
}

// NewIMU fills in defaults for zero fields and validates the rest.
func NewIMU(imu IMU) (*IMU, error) {
	if imu.Calibration == nil {
		return nil, fmt.Errorf("sim: calibration model is required")
	}
	if imu.Gravity == 0 {
		imu.Gravity = dcm.DefaultGravity
	}
	if imu.GyroGain == 0 {
		imu.GyroGain = dcm.DefaultGyroGain
	}
	if !(imu.Gravity > 0) || !(imu.GyroGain > 0) {
		return nil, fmt.Errorf("sim: gravity and gyro_gain must be > 0")
	}
	if imu.MagnField == (dcm.Vector3{}) {
		imu.MagnField = dcm.Vector3{calibration.MagnReference, 0, 40}
	}
	if imu.Now != nil {
		imu.start = imu.Now()
	}
	return &imu, nil
}

// Advance moves simulated time forward. It has no effect on clock driven
// instances.
func (s *IMU) Advance(dt time.Duration) {
	s.elapsed += dt
}

// Yaw returns the true heading at the current simulated time in (-pi, pi].
func (s *IMU) Yaw() float64 {
	y := math.Mod(s.YawRate*s.since().Seconds(), 2*math.Pi)
	if y > math.Pi {
		y -= 2 * math.Pi
	} else if y <= -math.Pi {
		y += 2 * math.Pi
	}
	return y
}

func (s *IMU) since() time.Duration {
	if s.Now != nil {
		return s.Now().Sub(s.start)
	}
	return s.elapsed
}

func (s *IMU) attitude() dcm.Matrix3 {
	return dcm.FromEuler(s.Yaw(), s.Pitch, s.Roll)
}

func (s *IMU) ReadAccel() (dcm.Vector3, error) {
	return s.Calibration.RawAccel(s.attitude().Row(2).Scale(s.Gravity)), nil
}

func (s *IMU) ReadMagn() (dcm.Vector3, error) {
	return s.Calibration.RawMagn(s.attitude().Transpose().MulVec(s.MagnField)), nil
}

// ReadGyro reports the body rates of a rotation about the world vertical.
func (s *IMU) ReadGyro() (dcm.Vector3, error) {
	body := s.attitude().Row(2).Scale(s.YawRate / dcm.Radians(s.GyroGain))
	return s.Calibration.RawGyro(body.Add(s.GyroBias)), nil
}
