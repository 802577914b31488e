package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"razor-ahrs/internal/ahrs"
	"razor-ahrs/internal/calibration"
	"razor-ahrs/internal/dcm"
)

type fakeAHRS struct {
	mu     sync.Mutex
	snap   ahrs.Snapshot
	modes  []ahrs.Mode
	resets int
	nexts  int
}

func (f *fakeAHRS) Snapshot() ahrs.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeAHRS) SetMode(m ahrs.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, m)
	return nil
}

func (f *fakeAHRS) Reset() {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
}

func (f *fakeAHRS) NextCalibrationSensor() {
	f.mu.Lock()
	f.nexts++
	f.mu.Unlock()
}

func TestAPIStatus(t *testing.T) {
	svc := &fakeAHRS{snap: ahrs.Snapshot{
		Valid:     true,
		Mode:      ahrs.ModeAngles,
		Yaw:       dcm.Radians(45),
		Roll:      dcm.Radians(-10),
		DCM:       dcm.Identity(),
		Errors:    ahrs.ErrorCounts{Gyro: 4},
		Cycles:    12,
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	ts := httptest.NewServer(Handler(svc, nil, nil, nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if !st.Valid || st.Mode != "angles" || st.Cycles != 12 || st.Errors.Gyro != 4 {
		t.Fatalf("status=%+v", st)
	}
	if st.YawDeg < 44.999 || st.YawDeg > 45.001 || st.RollDeg > -9.999 || st.RollDeg < -10.001 {
		t.Fatalf("yaw=%v roll=%v", st.YawDeg, st.RollDeg)
	}
	if st.DCM[2][2] != 1 || st.Calibration != nil {
		t.Fatalf("dcm=%v calibration=%v", st.DCM, st.Calibration)
	}
	if st.UpdatedAt != "2026-03-01T12:00:00Z" {
		t.Fatalf("updated_at=%q", st.UpdatedAt)
	}
}

func TestAPIStatus_Calibrating(t *testing.T) {
	svc := &fakeAHRS{snap: ahrs.Snapshot{
		Mode: ahrs.ModeCalibrate,
		Calibration: calibration.Report{
			Current: calibration.SensorMagn,
			MagnMin: dcm.Vector3{-500, -510, -490},
			MagnMax: dcm.Vector3{580, 560, 480},
		},
	}}
	ts := httptest.NewServer(Handler(svc, nil, nil, nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"current": "magn"`) {
		t.Fatalf("missing current sensor in %s", body)
	}
	if !strings.Contains(string(body), "magn x,y,z (min/max) =") {
		t.Fatalf("missing calibration line in %s", body)
	}
}

func TestAPIActions(t *testing.T) {
	svc := &fakeAHRS{}
	ts := httptest.NewServer(Handler(svc, nil, nil, nil))
	defer ts.Close()

	post := func(path, body string) int {
		t.Helper()
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post %s: %v", path, err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post("/api/ahrs/mode", `{"mode":"calibrate"}`); code != http.StatusOK {
		t.Fatalf("mode code=%d", code)
	}
	if code := post("/api/ahrs/mode", `{"mode":"binary"}`); code != http.StatusBadRequest {
		t.Fatalf("bad mode code=%d", code)
	}
	if code := post("/api/ahrs/mode", `{}`); code != http.StatusBadRequest {
		t.Fatalf("empty mode code=%d", code)
	}
	if code := post("/api/ahrs/mode", `not json`); code != http.StatusBadRequest {
		t.Fatalf("garbage code=%d", code)
	}
	if code := post("/api/ahrs/calibration/next", ""); code != http.StatusOK {
		t.Fatalf("next code=%d", code)
	}
	if code := post("/api/ahrs/reset", ""); code != http.StatusOK {
		t.Fatalf("reset code=%d", code)
	}
	if len(svc.modes) != 1 || svc.modes[0] != ahrs.ModeCalibrate || svc.nexts != 1 || svc.resets != 1 {
		t.Fatalf("modes=%v nexts=%d resets=%d", svc.modes, svc.nexts, svc.resets)
	}

	resp, err := http.Get(ts.URL + "/api/ahrs/reset")
	if err != nil {
		t.Fatalf("get reset: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed || resp.Header.Get("Allow") != http.MethodPost {
		t.Fatalf("code=%d allow=%q", resp.StatusCode, resp.Header.Get("Allow"))
	}
}

func TestHandler_OptionalRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("razor_ahrs_cycles_total 1\n"))
	})
	logs := NewLogRing(10)
	_, _ = logs.Write([]byte("ahrs: filter reset\n"))
	ts := httptest.NewServer(Handler(&fakeAHRS{}, nil, logs, metrics))
	defer ts.Close()

	for path, want := range map[string]string{
		"/metrics":              "razor_ahrs_cycles_total 1",
		"/api/logs?format=text": "ahrs: filter reset",
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if !strings.Contains(string(body), want) {
			t.Fatalf("%s body=%q want %q", path, body, want)
		}
	}

	bare := httptest.NewServer(Handler(&fakeAHRS{}, nil, nil, nil))
	defer bare.Close()
	resp, err := http.Get(bare.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("metrics without handler code=%d", resp.StatusCode)
	}
}
