package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"razor-ahrs/internal/ahrs"
	"razor-ahrs/internal/dcm"
)

type snapshotter interface {
	Snapshot() ahrs.Snapshot
}

func logAttitude(ctx context.Context, svc snapshotter, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			log.Print(formatSnapshot(svc.Snapshot()))
		}
	}
}

// formatSnapshot renders one log line for the current mode.
func formatSnapshot(s ahrs.Snapshot) string {
	errs := fmt.Sprintf("errors accel=%d magn=%d gyro=%d", s.Errors.Accel, s.Errors.Magn, s.Errors.Gyro)
	switch s.Mode {
	case ahrs.ModeAngles:
		if !s.Valid {
			return "ahrs waiting for first sample " + errs
		}
		return fmt.Sprintf("ahrs ypr=%.2f,%.2f,%.2f accel_weight=%.2f %s",
			dcm.Degrees(s.Yaw), dcm.Degrees(s.Pitch), dcm.Degrees(s.Roll), s.AccelWeight, errs)
	case ahrs.ModeCalibrate:
		return "ahrs calibrate " + s.Calibration.Line(s.Calibration.Current)
	default:
		return fmt.Sprintf("ahrs sensors raw=%s cal=%s %s", formatSamples(s.Raw), formatSamples(s.Calibrated), errs)
	}
}

func formatSamples(s ahrs.Samples) string {
	return fmt.Sprintf("A%.0f,%.0f,%.0f/M%.0f,%.0f,%.0f/G%.0f,%.0f,%.0f",
		s.Accel[0], s.Accel[1], s.Accel[2],
		s.Magn[0], s.Magn[1], s.Magn[2],
		s.Gyro[0], s.Gyro[1], s.Gyro[2])
}
