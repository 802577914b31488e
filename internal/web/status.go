package web

import (
	"time"

	"razor-ahrs/internal/ahrs"
	"razor-ahrs/internal/calibration"
	"razor-ahrs/internal/dcm"
)

// Status is the JSON form of ahrs.Snapshot, with angles in degrees.
type Status struct {
	Valid bool   `json:"valid"`
	Mode  string `json:"mode"`

	YawDeg      float64        `json:"yaw_deg"`
	PitchDeg    float64        `json:"pitch_deg"`
	RollDeg     float64        `json:"roll_deg"`
	DCM         [3][3]float64  `json:"dcm"`
	AccelWeight float64        `json:"accel_weight"`
	Raw         SamplesJSON    `json:"raw"`
	Calibrated  SamplesJSON    `json:"calibrated"`
	Errors      ErrorCountJSON `json:"errors"`

	Calibration     *calibration.Report `json:"calibration,omitempty"`
	CalibrationLine string              `json:"calibration_line,omitempty"`

	Cycles    uint64  `json:"cycles"`
	DtSeconds float64 `json:"dt_seconds"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

type SamplesJSON struct {
	Accel [3]float64 `json:"accel"`
	Magn  [3]float64 `json:"magn"`
	Gyro  [3]float64 `json:"gyro"`
}

type ErrorCountJSON struct {
	Accel uint64 `json:"accel"`
	Magn  uint64 `json:"magn"`
	Gyro  uint64 `json:"gyro"`
}

func NewStatus(s ahrs.Snapshot) Status {
	st := Status{
		Valid:       s.Valid,
		Mode:        s.Mode.String(),
		YawDeg:      dcm.Degrees(s.Yaw),
		PitchDeg:    dcm.Degrees(s.Pitch),
		RollDeg:     dcm.Degrees(s.Roll),
		DCM:         s.DCM,
		AccelWeight: s.AccelWeight,
		Raw:         samplesJSON(s.Raw),
		Calibrated:  samplesJSON(s.Calibrated),
		Errors:      ErrorCountJSON(s.Errors),
		Cycles:      s.Cycles,
		DtSeconds:   s.DtSeconds,
	}
	if s.Mode == ahrs.ModeCalibrate {
		r := s.Calibration
		st.Calibration = &r
		st.CalibrationLine = r.Line(r.Current)
	}
	if !s.UpdatedAt.IsZero() {
		st.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return st
}

func samplesJSON(s ahrs.Samples) SamplesJSON {
	return SamplesJSON{Accel: s.Accel, Magn: s.Magn, Gyro: s.Gyro}
}
