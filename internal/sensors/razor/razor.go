// Package razor drives the ADXL345 accelerometer, HMC5843/HMC5883L
// magnetometer and ITG-3200 gyroscope found on SparkFun 9DOF boards.
//
// Samples are raw counts remapped into the body frame of the selected
// board variant; calibration happens downstream.
package razor

import (
	"fmt"
	"time"

	"razor-ahrs/internal/board"
	"razor-ahrs/internal/dcm"
	"razor-ahrs/internal/i2c"
)

var sleep = time.Sleep

const (
	AccelAddress = 0x53
	MagnAddress  = 0x1E
	GyroAddress  = 0x68
)

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

type Board struct {
	variant board.Variant

	accel accelerometer
	magn  magnetometer
	gyro  gyroscope
}

// New probes and initializes all three chips on bus.
func New(bus *i2c.Bus, variant board.Variant) (*Board, error) {
	if bus == nil {
		return nil, fmt.Errorf("razor: bus is nil")
	}
	return newWithIO(bus.Dev(AccelAddress), bus.Dev(MagnAddress), bus.Dev(GyroAddress), variant)
}

func newWithIO(accel, magn, gyro regIO, variant board.Variant) (*Board, error) {
	if accel == nil || magn == nil || gyro == nil {
		return nil, fmt.Errorf("razor: dev is nil")
	}
	b := &Board{
		variant: variant,
		accel:   accelerometer{dev: accel},
		magn:    magnetometer{dev: magn},
		gyro:    gyroscope{dev: gyro},
	}
	// Same order as the firmware bring-up.
	if err := b.accel.init(); err != nil {
		return nil, err
	}
	if err := b.magn.init(); err != nil {
		return nil, err
	}
	if err := b.gyro.init(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Board) Variant() board.Variant { return b.variant }

func (b *Board) ReadAccel() (dcm.Vector3, error) {
	w, err := b.accel.read()
	if err != nil {
		return dcm.Vector3{}, err
	}
	return b.variant.Accel.Apply(w), nil
}

func (b *Board) ReadMagn() (dcm.Vector3, error) {
	w, err := b.magn.read()
	if err != nil {
		return dcm.Vector3{}, err
	}
	return b.variant.Magn.Apply(w), nil
}

func (b *Board) ReadGyro() (dcm.Vector3, error) {
	w, err := b.gyro.read()
	if err != nil {
		return dcm.Vector3{}, err
	}
	return b.variant.Gyro.Apply(w), nil
}

func writeRegs(dev regIO, chip string, regs [][2]byte) error {
	for _, r := range regs {
		if err := dev.WriteReg(r[0], r[1]); err != nil {
			return fmt.Errorf("%s: write reg 0x%02X: %w", chip, r[0], err)
		}
		sleep(5 * time.Millisecond)
	}
	return nil
}

func readWords(dev regIO, chip string, reg byte, littleEndian bool) ([3]int16, error) {
	var buf [6]byte
	if err := dev.ReadReg(reg, buf[:]); err != nil {
		return [3]int16{}, fmt.Errorf("%s: read failed: %w", chip, err)
	}
	var w [3]int16
	for i := 0; i < 3; i++ {
		hi, lo := buf[2*i], buf[2*i+1]
		if littleEndian {
			hi, lo = lo, hi
		}
		w[i] = int16(uint16(hi)<<8 | uint16(lo))
	}
	return w, nil
}
