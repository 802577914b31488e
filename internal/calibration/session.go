package calibration

import (
	"fmt"
	"strings"

	"razor-ahrs/internal/dcm"
)

type Sensor int

const (
	SensorAccel Sensor = iota
	SensorMagn
	SensorGyro
)

func (s Sensor) String() string {
	switch s {
	case SensorAccel:
		return "accel"
	case SensorMagn:
		return "magn"
	case SensorGyro:
		return "gyro"
	default:
		return fmt.Sprintf("sensor(%d)", int(s))
	}
}

func (s Sensor) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Sensors lists every sensor kind in calibration order.
var Sensors = []Sensor{SensorAccel, SensorMagn, SensorGyro}

// Session accumulates raw min/max envelopes and gyro averages while the
// operator moves the board around. It never touches filter state.
//
// Not safe for concurrent use.
type Session struct {
	current      Sensor
	resetPending bool

	accelMin, accelMax dcm.Vector3
	magnMin, magnMax   dcm.Vector3

	gyroLast dcm.Vector3
	gyroSum  dcm.Vector3
	gyroN    int
}

func NewSession() *Session {
	return &Session{resetPending: true}
}

// Reset arms a reset: the next observed sample seeds every envelope.
func (s *Session) Reset() {
	s.resetPending = true
}

// Next moves on to the next sensor (accel, magn, gyro, accel, ...) and
// starts a fresh session.
func (s *Session) Next() Sensor {
	s.current = (s.current + 1) % Sensor(len(Sensors))
	s.resetPending = true
	return s.current
}

func (s *Session) Current() Sensor { return s.current }

// Observe folds one raw (uncalibrated) sample set into the session.
func (s *Session) Observe(accel, magn, gyro dcm.Vector3) {
	if s.resetPending {
		s.accelMin, s.accelMax = accel, accel
		s.magnMin, s.magnMax = magn, magn
		s.gyroSum = dcm.Vector3{}
		s.gyroN = 0
		s.resetPending = false
	}
	for i := 0; i < 3; i++ {
		s.accelMin[i] = min(s.accelMin[i], accel[i])
		s.accelMax[i] = max(s.accelMax[i], accel[i])
		s.magnMin[i] = min(s.magnMin[i], magn[i])
		s.magnMax[i] = max(s.magnMax[i], magn[i])
	}
	s.gyroLast = gyro
	s.gyroSum = s.gyroSum.Add(gyro)
	s.gyroN++
}

// Report is a snapshot of a session.
type Report struct {
	Current Sensor `json:"current"`

	AccelMin dcm.Vector3 `json:"accel_min"`
	AccelMax dcm.Vector3 `json:"accel_max"`
	MagnMin  dcm.Vector3 `json:"magn_min"`
	MagnMax  dcm.Vector3 `json:"magn_max"`

	GyroCurrent dcm.Vector3 `json:"gyro_current"`
	GyroAverage dcm.Vector3 `json:"gyro_average"`
	GyroSamples int         `json:"gyro_samples"`
}

func (s *Session) Report() Report {
	r := Report{
		Current:     s.current,
		AccelMin:    s.accelMin,
		AccelMax:    s.accelMax,
		MagnMin:     s.magnMin,
		MagnMax:     s.magnMax,
		GyroCurrent: s.gyroLast,
		GyroSamples: s.gyroN,
	}
	if s.gyroN > 0 {
		n := float64(s.gyroN)
		r.GyroAverage = dcm.Vector3{s.gyroSum[0] / n, s.gyroSum[1] / n, s.gyroSum[2] / n}
	}
	return r
}

// Line renders the session state of one sensor in the format operators copy
// into their calibration config.
func (r Report) Line(sensor Sensor) string {
	var b strings.Builder
	switch sensor {
	case SensorAccel:
		b.WriteString("accel x,y,z (min/max) =")
		writePairs(&b, r.AccelMin, r.AccelMax)
	case SensorMagn:
		b.WriteString("magn x,y,z (min/max) =")
		writePairs(&b, r.MagnMin, r.MagnMax)
	case SensorGyro:
		b.WriteString("gyro x,y,z (current/average) =")
		writePairs(&b, r.GyroCurrent, r.GyroAverage)
	default:
		return fmt.Sprintf("unknown sensor %d", int(sensor))
	}
	return b.String()
}

func writePairs(b *strings.Builder, a, c dcm.Vector3) {
	sep := " "
	for i := 0; i < 3; i++ {
		fmt.Fprintf(b, "%s%.2f/%.2f", sep, a[i], c[i])
		sep = "  "
	}
}

// Params folds the observed envelope of the current sensor into base.
// Sensors other than the current one keep the base values.
func (r Report) Params(base Params) Params {
	p := base
	switch r.Current {
	case SensorAccel:
		p.AccelMin, p.AccelMax = r.AccelMin, r.AccelMax
	case SensorMagn:
		p.MagnMin, p.MagnMax = r.MagnMin, r.MagnMax
	case SensorGyro:
		if r.GyroSamples > 0 {
			p.GyroBias = r.GyroAverage
		}
	}
	return p
}
