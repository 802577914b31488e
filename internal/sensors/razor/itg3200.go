package razor

import "fmt"

const (
	itgRegWhoAmI   = 0x00
	itgRegSmplrt   = 0x15
	itgRegDLPFFS   = 0x16
	itgRegGyroXH   = 0x1D
	itgRegPwrMgmt  = 0x3E
	itgWhoAmIMask  = 0x7E
	itgWhoAmIValue = 0x68
)

type gyroscope struct {
	dev regIO
}

func (g gyroscope) init() error {
	who, err := g.dev.ReadRegU8(itgRegWhoAmI)
	if err != nil {
		return fmt.Errorf("itg3200: whoami read failed: %w", err)
	}
	// Bit 0 follows the AD0 pin strap.
	if who&itgWhoAmIMask != itgWhoAmIValue {
		return fmt.Errorf("itg3200: whoami=0x%02X want 0x%02X", who, itgWhoAmIValue)
	}
	return writeRegs(g.dev, "itg3200", [][2]byte{
		{itgRegPwrMgmt, 0x80}, // reset
		{itgRegDLPFFS, 0x1B},  // +-2000 deg/s, 42 Hz low pass
		{itgRegSmplrt, 0x0A},  // 50 Hz
		{itgRegPwrMgmt, 0x00}, // internal oscillator
	})
}

// read returns X, Y, Z in chip order. Data registers are big endian.
func (g gyroscope) read() ([3]int16, error) {
	return readWords(g.dev, "itg3200", itgRegGyroXH, false)
}
