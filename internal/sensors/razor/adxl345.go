package razor

import "fmt"

const (
	adxlRegDevID      = 0x00
	adxlDevID         = 0xE5
	adxlRegBWRate     = 0x2C
	adxlRegPowerCtl   = 0x2D
	adxlRegDataFormat = 0x31
	adxlRegDataX0     = 0x32
)

type accelerometer struct {
	dev regIO
}

func (a accelerometer) init() error {
	id, err := a.dev.ReadRegU8(adxlRegDevID)
	if err != nil {
		return fmt.Errorf("adxl345: devid read failed: %w", err)
	}
	if id != adxlDevID {
		return fmt.Errorf("adxl345: devid=0x%02X want 0x%02X", id, adxlDevID)
	}
	return writeRegs(a.dev, "adxl345", [][2]byte{
		{adxlRegPowerCtl, 0x08},   // measurement mode
		{adxlRegDataFormat, 0x08}, // full resolution
		{adxlRegBWRate, 0x09},     // 50 Hz output, 25 Hz bandwidth
	})
}

// read returns X, Y, Z in chip order. Data registers are little endian.
func (a accelerometer) read() ([3]int16, error) {
	return readWords(a.dev, "adxl345", adxlRegDataX0, true)
}
