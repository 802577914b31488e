package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"razor-ahrs/internal/ahrs"
	"razor-ahrs/internal/board"
	"razor-ahrs/internal/calibration"
	"razor-ahrs/internal/dcm"
)

const (
	SourceI2C = "i2c"
	SourceSim = "sim"
)

type Config struct {
	Hardware    HardwareConfig    `yaml:"hardware"`
	Sensors     SensorsConfig     `yaml:"sensors"`
	Filter      FilterConfig      `yaml:"filter"`
	Calibration CalibrationConfig `yaml:"calibration"`
	HTTP        HTTPConfig        `yaml:"http"`
	StatusLED   StatusLEDConfig   `yaml:"status_led"`
	Log         LogConfig         `yaml:"log"`
	Sim         SimConfig         `yaml:"sim"`
}

type HardwareConfig struct {
	// Variant is the SparkFun board code (10125, 10736, 10183, 10321, 10724).
	Variant int `yaml:"variant"`
}

type SensorsConfig struct {
	Source string `yaml:"source"`
	I2CBus int    `yaml:"i2c_bus"`
}

type FilterConfig struct {
	Interval               time.Duration `yaml:"interval"`
	Mode                   string        `yaml:"mode"`
	Gravity                float64       `yaml:"gravity"`
	GyroGain               float64       `yaml:"gyro_gain"`
	Gains                  GainsConfig   `yaml:"gains"`
	DisableDriftCorrection bool          `yaml:"disable_drift_correction"`
}

type GainsConfig struct {
	KpRollPitch float64 `yaml:"kp_roll_pitch"`
	KiRollPitch float64 `yaml:"ki_roll_pitch"`
	KpYaw       float64 `yaml:"kp_yaw"`
	KiYaw       float64 `yaml:"ki_yaw"`
}

type CalibrationConfig struct {
	Accel        RangeConfig        `yaml:"accel"`
	Magn         RangeConfig        `yaml:"magn"`
	MagnExtended MagnExtendedConfig `yaml:"magn_extended"`
	GyroBias     dcm.Vector3        `yaml:"gyro_bias"`
}

type RangeConfig struct {
	Min dcm.Vector3 `yaml:"min"`
	Max dcm.Vector3 `yaml:"max"`
}

type MagnExtendedConfig struct {
	Enable    bool        `yaml:"enable"`
	Center    dcm.Vector3 `yaml:"center"`
	Transform dcm.Matrix3 `yaml:"transform"`
}

type HTTPConfig struct {
	// Listen is the address serving /metrics and /api; empty disables it.
	Listen string `yaml:"listen"`
}

type StatusLEDConfig struct {
	Enable bool `yaml:"enable"`
	Pin    int  `yaml:"pin"`
}

type LogConfig struct {
	// Interval between attitude log lines; 0 disables them.
	Interval time.Duration `yaml:"interval"`
	// BufferLines is how many recent lines /api/logs keeps.
	BufferLines int `yaml:"buffer_lines"`
}

type SimConfig struct {
	YawRateDps float64     `yaml:"yaw_rate_dps"`
	PitchDeg   float64     `yaml:"pitch_deg"`
	RollDeg    float64     `yaml:"roll_deg"`
	GyroBias   dcm.Vector3 `yaml:"gyro_bias"`
}

// Default returns the configuration used for every key a file leaves out.
// The hardware variant has no default.
func Default() Config {
	g := dcm.DefaultGains()
	p := calibration.DefaultParams()
	return Config{
		Sensors: SensorsConfig{Source: SourceI2C, I2CBus: 1},
		Filter: FilterConfig{
			Interval: ahrs.DefaultInterval,
			Mode:     ahrs.ModeAngles.String(),
			Gravity:  dcm.DefaultGravity,
			GyroGain: dcm.DefaultGyroGain,
			Gains: GainsConfig{
				KpRollPitch: g.KpRollPitch,
				KiRollPitch: g.KiRollPitch,
				KpYaw:       g.KpYaw,
				KiYaw:       g.KiYaw,
			},
		},
		Calibration: CalibrationConfig{
			Accel: RangeConfig{Min: p.AccelMin, Max: p.AccelMax},
			Magn:  RangeConfig{Min: p.MagnMin, Max: p.MagnMax},
			MagnExtended: MagnExtendedConfig{
				Transform: dcm.Identity(),
			},
		},
		HTTP:      HTTPConfig{Listen: ":9105"},
		StatusLED: StatusLEDConfig{Pin: 13},
		Log:       LogConfig{Interval: time.Second, BufferLines: 500},
		Sim:       SimConfig{YawRateDps: 10},
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Decoding on top of the defaults keeps keys the file omits, including
	// ones where zero is a legal value (gains, i2c bus 0).
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate normalizes cfg in place and reports the first invalid
// key.
func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Hardware.Variant == 0 {
		return fmt.Errorf("hardware.variant is required (one of %v)", board.Codes())
	}
	if _, err := board.Lookup(cfg.Hardware.Variant); err != nil {
		return fmt.Errorf("hardware.variant %d is not supported (one of %v)", cfg.Hardware.Variant, board.Codes())
	}

	cfg.Sensors.Source = strings.ToLower(strings.TrimSpace(cfg.Sensors.Source))
	if cfg.Sensors.Source == "" {
		cfg.Sensors.Source = SourceI2C
	}
	if cfg.Sensors.Source != SourceI2C && cfg.Sensors.Source != SourceSim {
		return fmt.Errorf("sensors.source must be %s or %s", SourceI2C, SourceSim)
	}
	if cfg.Sensors.I2CBus < 0 {
		return fmt.Errorf("sensors.i2c_bus must be >= 0")
	}

	if cfg.Filter.Interval <= 0 {
		return fmt.Errorf("filter.interval must be > 0")
	}
	mode, err := ahrs.ParseMode(cfg.Filter.Mode)
	if err != nil {
		return fmt.Errorf("filter.mode must be angles, calibrate or sensors")
	}
	cfg.Filter.Mode = mode.String()
	if !(cfg.Filter.Gravity > 0) {
		return fmt.Errorf("filter.gravity must be > 0")
	}
	if !(cfg.Filter.GyroGain > 0) {
		return fmt.Errorf("filter.gyro_gain must be > 0")
	}
	g := cfg.Filter.Gains
	if g.KpRollPitch < 0 || g.KiRollPitch < 0 || g.KpYaw < 0 || g.KiYaw < 0 {
		return fmt.Errorf("filter.gains must be >= 0")
	}

	if _, err := calibration.NewModel(cfg.CalibrationParams(), cfg.Filter.Gravity); err != nil {
		return err
	}

	if cfg.StatusLED.Enable && cfg.StatusLED.Pin <= 0 {
		return fmt.Errorf("status_led.pin must be > 0 when status_led.enable is true")
	}
	if cfg.Log.Interval < 0 {
		return fmt.Errorf("log.interval must be >= 0")
	}
	if cfg.Log.BufferLines <= 0 {
		cfg.Log.BufferLines = 500
	}
	cfg.HTTP.Listen = strings.TrimSpace(cfg.HTTP.Listen)
	return nil
}

func (c Config) FilterConfig() dcm.Config {
	return dcm.Config{
		Gravity:  c.Filter.Gravity,
		GyroGain: c.Filter.GyroGain,
		Gains: dcm.Gains{
			KpRollPitch: c.Filter.Gains.KpRollPitch,
			KiRollPitch: c.Filter.Gains.KiRollPitch,
			KpYaw:       c.Filter.Gains.KpYaw,
			KiYaw:       c.Filter.Gains.KiYaw,
		},
		DisableDriftCorrection: c.Filter.DisableDriftCorrection,
	}
}

func (c Config) CalibrationParams() calibration.Params {
	return calibration.Params{
		AccelMin:      c.Calibration.Accel.Min,
		AccelMax:      c.Calibration.Accel.Max,
		MagnMin:       c.Calibration.Magn.Min,
		MagnMax:       c.Calibration.Magn.Max,
		MagnExtended:  c.Calibration.MagnExtended.Enable,
		MagnCenter:    c.Calibration.MagnExtended.Center,
		MagnTransform: c.Calibration.MagnExtended.Transform,
		GyroBias:      c.Calibration.GyroBias,
	}
}

// Service assumes cfg has been through DefaultAndValidate.
func (c Config) Service() ahrs.Config {
	mode, _ := ahrs.ParseMode(c.Filter.Mode)
	return ahrs.Config{
		Interval: c.Filter.Interval,
		Mode:     mode,
		Filter:   c.FilterConfig(),
	}
}
