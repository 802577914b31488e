package board

import (
	"strings"
	"testing"

	"razor-ahrs/internal/dcm"
)

func TestLookup_RequiresSelection(t *testing.T) {
	_, err := Lookup(0)
	if err == nil || !strings.Contains(err.Error(), "must be selected") {
		t.Fatalf("err=%v want selection error", err)
	}
	_, err = Lookup(12345)
	if err == nil || !strings.Contains(err.Error(), "unknown hardware variant 12345") {
		t.Fatalf("err=%v want unknown variant error", err)
	}
}

func TestCodes_Sorted(t *testing.T) {
	got := Codes()
	want := []int{10125, 10183, 10321, 10724, 10736}
	if len(got) != len(want) {
		t.Fatalf("codes=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes=%v want %v", got, want)
		}
	}
}

func TestVariant_AxisMaps(t *testing.T) {
	words := [3]int16{1, 2, 3}
	cases := []struct {
		code int
		chip string
		magn dcm.Vector3
	}{
		{10125, HMC5843, dcm.Vector3{-2, -1, -3}},
		{10736, HMC5883L, dcm.Vector3{-3, -1, -2}},
		{10183, HMC5843, dcm.Vector3{1, -2, -3}},
		{10321, HMC5843, dcm.Vector3{1, -2, -3}},
		{10724, HMC5883L, dcm.Vector3{1, -3, -2}},
	}
	for _, tc := range cases {
		v, err := Lookup(tc.code)
		if err != nil {
			t.Fatalf("Lookup(%d): %v", tc.code, err)
		}
		if v.Magnetometer != tc.chip {
			t.Fatalf("%d: chip=%s want %s", tc.code, v.Magnetometer, tc.chip)
		}
		if got := v.Magn.Apply(words); got != tc.magn {
			t.Fatalf("%d: magn=%v want %v", tc.code, got, tc.magn)
		}
		if got := v.Accel.Apply(words); got != (dcm.Vector3{2, 1, 3}) {
			t.Fatalf("%d: accel=%v want [2 1 3]", tc.code, got)
		}
		if got := v.Gyro.Apply(words); got != (dcm.Vector3{-2, -1, -3}) {
			t.Fatalf("%d: gyro=%v want [-2 -1 -3]", tc.code, got)
		}
	}
}

func TestAxisMap_ApplyNegativeExtreme(t *testing.T) {
	m := AxisMap{{0, -1}, {1, 1}, {2, 1}}
	got := m.Apply([3]int16{-32768, 0, 0})
	if got[0] != 32768 {
		t.Fatalf("x=%v want 32768", got[0])
	}
}
