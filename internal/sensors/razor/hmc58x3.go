package razor

import "fmt"

const (
	hmcRegConfigA = 0x00
	hmcRegMode    = 0x02
	hmcRegDataX   = 0x03
	hmcRegIDA     = 0x0A
)

type magnetometer struct {
	dev regIO
}

func (m magnetometer) init() error {
	// Identification registers A..C hold "H43" on both the HMC5843 and HMC5883L.
	var id [3]byte
	if err := m.dev.ReadReg(hmcRegIDA, id[:]); err != nil {
		return fmt.Errorf("hmc58x3: id read failed: %w", err)
	}
	if string(id[:]) != "H43" {
		return fmt.Errorf("hmc58x3: id=%q want %q", id[:], "H43")
	}
	return writeRegs(m.dev, "hmc58x3", [][2]byte{
		{hmcRegMode, 0x00},    // continuous measurement
		{hmcRegConfigA, 0x18}, // 50 Hz
	})
}

// read returns the three data words in register order (X, Y, Z on the
// HMC5843, X, Z, Y on the HMC5883L); the board axis map sorts that out.
func (m magnetometer) read() ([3]int16, error) {
	return readWords(m.dev, "hmc58x3", hmcRegDataX, false)
}
