package ahrs

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"razor-ahrs/internal/calibration"
	"razor-ahrs/internal/dcm"
)

// Source delivers one raw sample per call, already remapped to the body
// frame. Counts are uncalibrated.
type Source interface {
	ReadAccel() (dcm.Vector3, error)
	ReadMagn() (dcm.Vector3, error)
	ReadGyro() (dcm.Vector3, error)
}

// Clock returns a monotonic millisecond timestamp.
type Clock func() int64

// MonotonicClock counts milliseconds since it was created. It reads the
// runtime's monotonic clock, so wall clock steps (NTP sync on a board with
// no RTC) do not show up as elapsed time.
func MonotonicClock() Clock {
	start := time.Now()
	return func() int64 { return time.Since(start).Milliseconds() }
}

// Recorder receives per-cycle telemetry. internal/metrics implements it.
type Recorder interface {
	SensorError(sensor calibration.Sensor)
	Cycle(dt float64)
	Attitude(yaw, pitch, roll, accelWeight float64)
}

// Publisher receives every completed snapshot. Publish is called from the
// loop goroutine and must not block.
type Publisher interface {
	Publish(Snapshot)
}

// Indicator is lit while the service produces valid angles.
type Indicator interface {
	Set(on bool) error
}

type Mode int

const (
	// ModeAngles runs the filter.
	ModeAngles Mode = iota
	// ModeCalibrate feeds raw samples into a calibration session.
	ModeCalibrate
	// ModeSensors only publishes raw and calibrated samples.
	ModeSensors
)

func (m Mode) String() string {
	switch m {
	case ModeAngles:
		return "angles"
	case ModeCalibrate:
		return "calibrate"
	case ModeSensors:
		return "sensors"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts a mode name case-insensitively; empty means ModeAngles.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "angles":
		return ModeAngles, nil
	case "calibrate":
		return ModeCalibrate, nil
	case "sensors":
		return ModeSensors, nil
	}
	return 0, fmt.Errorf("ahrs: unknown mode %q (want angles, calibrate or sensors)", s)
}

const DefaultInterval = 20 * time.Millisecond

// MaxStep is the longest gap between cycles that is still integrated. A
// longer gap (a stalled loop, a clock step) is dropped and the cycle runs
// with dt = 0.
const MaxStep = 500 * time.Millisecond

// Config selects the loop rate, the start mode and the filter constants.
type Config struct {
	Interval time.Duration
	Mode     Mode
	Filter   dcm.Config
}

// Samples holds one reading of each sensor.
type Samples struct {
	Accel dcm.Vector3
	Magn  dcm.Vector3
	Gyro  dcm.Vector3
}

// ErrorCounts counts failed reads per sensor since New.
type ErrorCounts struct {
	Accel uint64
	Magn  uint64
	Gyro  uint64
}

// Snapshot is a copy of the service state after one cycle.
type Snapshot struct {
	// Valid is true once the filter has bootstrapped in ModeAngles.
	Valid bool
	Mode  Mode

	Yaw, Pitch, Roll float64 // rad
	DCM              dcm.Matrix3
	AccelWeight      float64

	Raw        Samples
	Calibrated Samples
	Errors     ErrorCounts

	// Calibration is only populated in ModeCalibrate.
	Calibration calibration.Report

	Cycles    uint64
	DtSeconds float64
	UpdatedAt time.Time
}

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.rec = r }
}

func WithIndicator(i Indicator) Option {
	return func(s *Service) { s.ind = i }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// Service runs the sensor read / filter cycle at a fixed rate.
type Service struct {
	cfg   Config
	src   Source
	model *calibration.Model
	clock Clock
	rec   Recorder
	ind   Indicator
	pub   Publisher

	// Requests from other goroutines, applied at the start of a cycle.
	reqMu       sync.Mutex
	reqMode     *Mode
	reqReset    bool
	reqNextSens bool

	// Loop state, guarded by stepMu.
	stepMu     sync.Mutex
	mode       Mode
	est        *dcm.Estimator
	resetDue   bool
	session    *calibration.Session
	raw        Samples
	errs       ErrorCounts
	lastMillis int64
	haveTime   bool
	cycles     uint64
	lit        bool
	ledFailed  bool

	mu   sync.RWMutex
	snap Snapshot

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New validates cfg and builds a stopped service. The default clock is
// MonotonicClock.
func New(cfg Config, src Source, model *calibration.Model, opts ...Option) (*Service, error) {
	if src == nil {
		return nil, fmt.Errorf("ahrs: sensor source is required")
	}
	if model == nil {
		return nil, fmt.Errorf("ahrs: calibration model is required")
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("ahrs: interval must be > 0 (got %s)", cfg.Interval)
	}
	if cfg.Mode < ModeAngles || cfg.Mode > ModeSensors {
		return nil, fmt.Errorf("ahrs: unknown mode %d", int(cfg.Mode))
	}
	if err := cfg.Filter.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		src:      src,
		model:    model,
		clock:    MonotonicClock(),
		mode:     cfg.Mode,
		resetDue: true,
		session:  calibration.NewSession(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = MonotonicClock()
	}
	s.snap.Mode = s.mode
	return s, nil
}

// Start runs the first cycle, which bootstraps the filter from one sample
// set, then keeps cycling every Interval until ctx is done or Close is
// called.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("ahrs: service is nil")
	}
	started := false
	s.startOnce.Do(func() { started = true })
	if !started {
		return fmt.Errorf("ahrs: service already started")
	}
	s.Step()
	go s.run(ctx)
	return nil
}

// Close stops the loop and turns the indicator off. Safe to call more than
// once.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Done is closed once the loop has exited.
func (s *Service) Done() <-chan struct{} { return s.doneCh }

func (s *Service) run(ctx context.Context) {
	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()
	defer close(s.doneCh)
	defer func() {
		s.stepMu.Lock()
		s.indicate(false)
		s.stepMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.stopCh:
			return
		case <-tick.C:
			s.Step()
		}
	}
}

// Snapshot returns the state published by the last completed cycle.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetMode switches the output mode on the next cycle. Entering ModeAngles
// from another mode re-bootstraps the filter; entering ModeCalibrate starts
// a fresh calibration session.
func (s *Service) SetMode(m Mode) error {
	if m < ModeAngles || m > ModeSensors {
		return fmt.Errorf("ahrs: unknown mode %d", int(m))
	}
	s.reqMu.Lock()
	s.reqMode = &m
	s.reqMu.Unlock()
	return nil
}

// Reset re-bootstraps the filter from the next sample set.
func (s *Service) Reset() {
	s.reqMu.Lock()
	s.reqReset = true
	s.reqMu.Unlock()
}

// NextCalibrationSensor moves the calibration session to the next sensor.
func (s *Service) NextCalibrationSensor() {
	s.reqMu.Lock()
	s.reqNextSens = true
	s.reqMu.Unlock()
}

func (s *Service) applyRequests() {
	s.reqMu.Lock()
	reqMode, reqReset, reqNext := s.reqMode, s.reqReset, s.reqNextSens
	s.reqMode, s.reqReset, s.reqNextSens = nil, false, false
	s.reqMu.Unlock()

	if reqMode != nil && *reqMode != s.mode {
		prev := s.mode
		s.mode = *reqMode
		switch s.mode {
		case ModeAngles:
			s.resetDue = true
		case ModeCalibrate:
			s.session.Reset()
		}
		log.Printf("ahrs: mode %s -> %s", prev, s.mode)
	}
	if reqReset {
		s.resetDue = true
	}
	if reqNext {
		sensor := s.session.Next()
		log.Printf("ahrs: calibrating %s", sensor)
	}
}

// Step performs exactly one cycle. Start calls it from its own goroutine;
// concurrent callers are serialized.
func (s *Service) Step() {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	s.applyRequests()

	now := s.clock()
	dt := 0.0
	if s.haveTime && now > s.lastMillis {
		dt = float64(now-s.lastMillis) / 1000
	}
	if dt > MaxStep.Seconds() {
		log.Printf("ahrs: dropped step dt=%.3fs", dt)
		dt = 0
	}
	s.lastMillis = now
	s.haveTime = true

	s.readSensors()
	cal := Samples{
		Accel: s.model.Accel(s.raw.Accel),
		Magn:  s.model.Magn(s.raw.Magn),
		Gyro:  s.model.Gyro(s.raw.Gyro),
	}

	var report calibration.Report
	switch s.mode {
	case ModeAngles:
		s.updateFilter(cal, dt)
	case ModeCalibrate:
		s.session.Observe(s.raw.Accel, s.raw.Magn, s.raw.Gyro)
		report = s.session.Report()
	}
	s.cycles++

	valid := s.mode == ModeAngles && s.est != nil && !s.resetDue
	snap := Snapshot{
		Valid:       valid,
		Mode:        s.mode,
		Raw:         s.raw,
		Calibrated:  cal,
		Errors:      s.errs,
		Calibration: report,
		Cycles:      s.cycles,
		DtSeconds:   dt,
		UpdatedAt:   time.UnixMilli(now).UTC(),
	}
	if valid {
		snap.Yaw, snap.Pitch, snap.Roll = s.est.Orientation()
		snap.DCM = s.est.DCM()
		snap.AccelWeight = s.est.AccelWeight()
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if s.pub != nil {
		s.pub.Publish(snap)
	}
	if s.rec != nil {
		s.rec.Cycle(dt)
		if valid {
			s.rec.Attitude(snap.Yaw, snap.Pitch, snap.Roll, snap.AccelWeight)
		}
	}
	s.indicate(valid)
}

func (s *Service) updateFilter(cal Samples, dt float64) {
	if s.est == nil || s.resetDue {
		est, err := dcm.Bootstrap(s.cfg.Filter, cal.Accel, cal.Magn)
		if err != nil {
			// Filter config is validated in New.
			log.Printf("ahrs: bootstrap: %v", err)
			return
		}
		s.est = est
		s.resetDue = false
		yaw, pitch, roll := est.Orientation()
		log.Printf("ahrs: filter reset yaw=%.1f pitch=%.1f roll=%.1f", dcm.Degrees(yaw), dcm.Degrees(pitch), dcm.Degrees(roll))
		return
	}
	s.est.Update(cal.Accel, cal.Magn, cal.Gyro, dt)
	if !finite(s.est.DCM()) {
		log.Printf("ahrs: filter state is not finite, resetting")
		s.resetDue = true
	}
}

func finite(m dcm.Matrix3) bool {
	for _, row := range m {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// readSensors keeps the last good sample of a sensor whose read fails.
func (s *Service) readSensors() {
	if v, err := s.src.ReadGyro(); err != nil {
		s.errs.Gyro++
		s.sensorError(calibration.SensorGyro)
	} else {
		s.raw.Gyro = v
	}
	if v, err := s.src.ReadAccel(); err != nil {
		s.errs.Accel++
		s.sensorError(calibration.SensorAccel)
	} else {
		s.raw.Accel = v
	}
	if v, err := s.src.ReadMagn(); err != nil {
		s.errs.Magn++
		s.sensorError(calibration.SensorMagn)
	} else {
		s.raw.Magn = v
	}
}

func (s *Service) sensorError(sensor calibration.Sensor) {
	if s.rec != nil {
		s.rec.SensorError(sensor)
	}
}

// indicate must be called with stepMu held. After the first failure the
// indicator is left alone.
func (s *Service) indicate(on bool) {
	if s.ind == nil || s.ledFailed {
		return
	}
	if on == s.lit {
		return
	}
	if err := s.ind.Set(on); err != nil {
		log.Printf("ahrs: status indicator: %v", err)
		s.ledFailed = true
		return
	}
	s.lit = on
}
