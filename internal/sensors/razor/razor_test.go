package razor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"razor-ahrs/internal/board"
	"razor-ahrs/internal/dcm"
	"razor-ahrs/internal/i2c"
)

type fakeI2C struct {
	regs   map[byte][]byte
	writes []writeOp

	readErrFor map[byte]error
}

type writeOp struct {
	reg byte
	val byte
}

func (f *fakeI2C) ReadRegU8(reg byte) (byte, error) {
	if err := f.readErrFor[reg]; err != nil {
		return 0, err
	}
	b := f.regs[reg]
	if len(b) < 1 {
		return 0, errors.New("no reg")
	}
	return b[0], nil
}

func (f *fakeI2C) ReadReg(reg byte, dst []byte) error {
	if err := f.readErrFor[reg]; err != nil {
		return err
	}
	b := f.regs[reg]
	if len(b) < len(dst) {
		return errors.New("short reg")
	}
	copy(dst, b[:len(dst)])
	return nil
}

func (f *fakeI2C) WriteReg(reg, value byte) error {
	f.writes = append(f.writes, writeOp{reg: reg, val: value})
	return nil
}

func noSleep(t *testing.T) {
	t.Helper()
	old := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = old })
}

func newFakes() (accel, magn, gyro *fakeI2C) {
	accel = &fakeI2C{regs: map[byte][]byte{
		adxlRegDevID: {adxlDevID},
		// X=1, Y=-2, Z=256 little endian.
		adxlRegDataX0: {0x01, 0x00, 0xFE, 0xFF, 0x00, 0x01},
	}}
	magn = &fakeI2C{regs: map[byte][]byte{
		hmcRegIDA: []byte("H43"),
		// Words 100, -200, 300 big endian.
		hmcRegDataX: {0x00, 0x64, 0xFF, 0x38, 0x01, 0x2C},
	}}
	gyro = &fakeI2C{regs: map[byte][]byte{
		itgRegWhoAmI: {0x69},
		// Words 10, 20, -30 big endian.
		itgRegGyroXH: {0x00, 0x0A, 0x00, 0x14, 0xFF, 0xE2},
	}}
	return accel, magn, gyro
}

func mustVariant(t *testing.T, code int) board.Variant {
	t.Helper()
	v, err := board.Lookup(code)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return v
}

func TestNew_NilBus(t *testing.T) {
	if _, err := New(nil, mustVariant(t, 10736)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_ProbeMismatch(t *testing.T) {
	noSleep(t)
	cases := []struct {
		name   string
		mutate func(a, m, g *fakeI2C)
		want   string
	}{
		{"Accel", func(a, m, g *fakeI2C) { a.regs[adxlRegDevID] = []byte{0x00} }, "adxl345: devid"},
		{"Magn", func(a, m, g *fakeI2C) { m.regs[hmcRegIDA] = []byte("XYZ") }, "hmc58x3: id"},
		{"Gyro", func(a, m, g *fakeI2C) { g.regs[itgRegWhoAmI] = []byte{0x12} }, "itg3200: whoami"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, m, g := newFakes()
			tc.mutate(a, m, g)
			_, err := newWithIO(a, m, g, mustVariant(t, 10736))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want %q", err, tc.want)
			}
		})
	}
}

func TestNew_InitSequence(t *testing.T) {
	noSleep(t)
	a, m, g := newFakes()
	if _, err := newWithIO(a, m, g, mustVariant(t, 10736)); err != nil {
		t.Fatalf("newWithIO: %v", err)
	}
	wantAccel := []writeOp{{adxlRegPowerCtl, 0x08}, {adxlRegDataFormat, 0x08}, {adxlRegBWRate, 0x09}}
	wantMagn := []writeOp{{hmcRegMode, 0x00}, {hmcRegConfigA, 0x18}}
	wantGyro := []writeOp{{itgRegPwrMgmt, 0x80}, {itgRegDLPFFS, 0x1B}, {itgRegSmplrt, 0x0A}, {itgRegPwrMgmt, 0x00}}
	for _, c := range []struct {
		name string
		got  []writeOp
		want []writeOp
	}{{"accel", a.writes, wantAccel}, {"magn", m.writes, wantMagn}, {"gyro", g.writes, wantGyro}} {
		if len(c.got) != len(c.want) {
			t.Fatalf("%s writes=%v want %v", c.name, c.got, c.want)
		}
		for i := range c.want {
			if c.got[i] != c.want[i] {
				t.Fatalf("%s write[%d]=%v want %v", c.name, i, c.got[i], c.want[i])
			}
		}
	}
}

func TestBoard_ReadsRemapAxes(t *testing.T) {
	noSleep(t)
	a, m, g := newFakes()
	b, err := newWithIO(a, m, g, mustVariant(t, 10736))
	if err != nil {
		t.Fatalf("newWithIO: %v", err)
	}

	accel, err := b.ReadAccel()
	if err != nil {
		t.Fatalf("ReadAccel: %v", err)
	}
	if accel != (dcm.Vector3{-2, 1, 256}) {
		t.Fatalf("accel=%v want [-2 1 256]", accel)
	}

	magn, err := b.ReadMagn()
	if err != nil {
		t.Fatalf("ReadMagn: %v", err)
	}
	// HMC5883L on the 10736: X=-w2, Y=-w0, Z=-w1.
	if magn != (dcm.Vector3{-300, -100, 200}) {
		t.Fatalf("magn=%v want [-300 -100 200]", magn)
	}

	gyro, err := b.ReadGyro()
	if err != nil {
		t.Fatalf("ReadGyro: %v", err)
	}
	if gyro != (dcm.Vector3{-20, -10, 30}) {
		t.Fatalf("gyro=%v want [-20 -10 30]", gyro)
	}
}

func TestBoard_ReadErrorIsWrapped(t *testing.T) {
	noSleep(t)
	a, m, g := newFakes()
	b, err := newWithIO(a, m, g, mustVariant(t, 10125))
	if err != nil {
		t.Fatalf("newWithIO: %v", err)
	}
	m.readErrFor = map[byte]error{hmcRegDataX: i2c.ErrShortRead}
	_, err = b.ReadMagn()
	if !errors.Is(err, i2c.ErrShortRead) {
		t.Fatalf("err=%v want ErrShortRead", err)
	}
}
