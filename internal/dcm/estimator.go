package dcm

import (
	"fmt"
	"math"
)

const (
	// DefaultGravity is the "1G" reference in accelerometer calibration units.
	// Calibrated accelerometer vectors have this magnitude when stationary.
	DefaultGravity = 256.0
	// DefaultGyroGain is the ITG-3200 gain in deg/s per LSB.
	DefaultGyroGain = 0.06957
)

// Gains are the PI gains of the drift correction loop.
type Gains struct {
	KpRollPitch float64
	KiRollPitch float64
	KpYaw       float64
	KiYaw       float64
}

// DefaultGains returns the gains tuned for the Razor board at 50 Hz.
func DefaultGains() Gains {
	return Gains{
		KpRollPitch: 0.02,
		KiRollPitch: 0.00002,
		KpYaw:       1.2,
		KiYaw:       0.00002,
	}
}

// Config holds the filter constants. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// Gravity must match the reference used to scale the accelerometer.
	Gravity float64
	// GyroGain converts compensated gyro counts to deg/s.
	GyroGain float64
	Gains    Gains

	// DisableDriftCorrection integrates the raw gyro rate only. Drift
	// terms are still computed so they can be inspected.
	DisableDriftCorrection bool
}

// DefaultConfig returns the standard Razor configuration.
func DefaultConfig() Config {
	return Config{
		Gravity:  DefaultGravity,
		GyroGain: DefaultGyroGain,
		Gains:    DefaultGains(),
	}
}

// Validate reports configuration that would make the filter meaningless.
func (c Config) Validate() error {
	if !(c.Gravity > 0) {
		return fmt.Errorf("dcm: gravity must be > 0 (got %v)", c.Gravity)
	}
	if !(c.GyroGain > 0) {
		return fmt.Errorf("dcm: gyro gain must be > 0 (got %v)", c.GyroGain)
	}
	return nil
}

// Estimator is a DCM complementary filter.
//
// It owns the rotation matrix and drift integrator; both are mutated in place
// by Update. Not safe for concurrent use: callers serialize Update calls.
type Estimator struct {
	cfg       Config
	gyroScale float64 // counts -> rad/s

	dcm    Matrix3
	omegaP Vector3
	omegaI Vector3

	heading     float64
	accelWeight float64

	yaw, pitch, roll float64
}

// Bootstrap builds an estimator whose DCM comes straight from one
// accelerometer and magnetometer sample, with no gyro integration.
func Bootstrap(cfg Config, accel, magn Vector3) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Estimator{cfg: cfg, gyroScale: Radians(cfg.GyroGain)}
	e.Reset(accel, magn)
	return e, nil
}

// Reset re-initializes the DCM from accel/magn and clears the drift state.
func (e *Estimator) Reset(accel, magn Vector3) {
	xAxis := Vector3{1, 0, 0}

	// Pitch from the x component of gravity against its y-z plane component.
	pitch := -math.Atan2(accel[0], math.Sqrt(accel[1]*accel[1]+accel[2]*accel[2]))

	// Remove the pitch component from gravity; what is left lies in the y-z plane.
	g := xAxis.Cross(accel.Cross(xAxis))
	roll := math.Atan2(g[1], g[2])

	yaw := Heading(magn, roll, pitch)

	e.dcm = FromEuler(yaw, pitch, roll)
	e.omegaP = Vector3{}
	e.omegaI = Vector3{}
	e.heading = yaw
	e.accelWeight = AccelWeight(accel, e.cfg.Gravity)
	e.yaw, e.pitch, e.roll = yaw, pitch, roll
}

// Update advances the filter by dt seconds.
//
// accel and magn are calibrated vectors, gyro is bias compensated counts.
// A dt that is zero, negative or not finite leaves every bit of state as is.
func (e *Estimator) Update(accel, magn, gyro Vector3, dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	// Heading uses last cycle's roll/pitch.
	e.heading = Heading(magn, e.roll, e.pitch)
	e.integrate(gyro, dt)
	e.dcm = Normalize(e.dcm)
	e.correctDrift(accel)
	e.yaw, e.pitch, e.roll = Euler(e.dcm)
}

func (e *Estimator) integrate(gyro Vector3, dt float64) {
	w := gyro.Scale(e.gyroScale)
	if !e.cfg.DisableDriftCorrection {
		w = w.Add(e.omegaI).Add(e.omegaP)
	}

	inc := Matrix3{
		{0, -dt * w[2], dt * w[1]},
		{dt * w[2], 0, -dt * w[0]},
		{-dt * w[1], dt * w[0], 0},
	}
	e.dcm = e.dcm.Add(e.dcm.Mul(inc))
}

func (e *Estimator) correctDrift(accel Vector3) {
	g := e.cfg.Gains
	down := e.dcm.Row(2)

	// Roll and pitch.
	e.accelWeight = AccelWeight(accel, e.cfg.Gravity)
	errRollPitch := accel.Cross(down)
	e.omegaP = errRollPitch.Scale(g.KpRollPitch * e.accelWeight)
	e.omegaI = e.omegaI.Add(errRollPitch.Scale(g.KiRollPitch * e.accelWeight))

	// Yaw, from the compass heading, applied about the current down axis.
	course := e.dcm[0][0]*math.Sin(e.heading) - e.dcm[1][0]*math.Cos(e.heading)
	errYaw := down.Scale(course)
	e.omegaP = e.omegaP.Add(errYaw.Scale(g.KpYaw))
	e.omegaI = e.omegaI.Add(errYaw.Scale(g.KiYaw))
}

// Orientation returns yaw, pitch and roll in radians.
func (e *Estimator) Orientation() (yaw, pitch, roll float64) {
	return e.yaw, e.pitch, e.roll
}

// DCM returns a copy of the rotation matrix.
func (e *Estimator) DCM() Matrix3 { return e.dcm }

// Drift returns copies of the proportional and integral correction rates (rad/s).
func (e *Estimator) Drift() (omegaP, omegaI Vector3) { return e.omegaP, e.omegaI }

// Heading returns the last tilt compensated compass heading (radians).
func (e *Estimator) Heading() float64 { return e.heading }

// AccelWeight returns the accelerometer trust weight of the last update.
func (e *Estimator) AccelWeight() float64 { return e.accelWeight }

// Config returns the configuration e was built with.
func (e *Estimator) Config() Config { return e.cfg }
