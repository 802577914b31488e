// Package web serves the AHRS status and control API over HTTP.
package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"razor-ahrs/internal/ahrs"
)

// AHRS is the part of *ahrs.Service the API drives. Implementations must be
// safe for concurrent use.
type AHRS interface {
	Snapshot() ahrs.Snapshot
	SetMode(ahrs.Mode) error
	Reset()
	NextCalibrationSensor()
}

// Handler routes the API. stream, logs and metrics are optional.
func Handler(svc AHRS, stream *Broadcaster, logs *LogRing, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, NewStatus(svc.Snapshot()))
	})

	mux.HandleFunc("/api/ahrs/mode", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodPost) {
			return
		}
		var req struct {
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "body must be {\"mode\": \"angles|calibrate|sensors\"}", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Mode) == "" {
			http.Error(w, "mode is required", http.StatusBadRequest)
			return
		}
		m, err := ahrs.ParseMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := svc.SetMode(m); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeOK(w)
	})

	mux.HandleFunc("/api/ahrs/reset", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodPost) {
			return
		}
		svc.Reset()
		writeOK(w)
	})

	mux.HandleFunc("/api/ahrs/calibration/next", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodPost) {
			return
		}
		svc.NextCalibrationSensor()
		writeOK(w)
	})

	if stream != nil {
		mux.Handle("/api/ahrs/stream", stream)
	}
	if logs != nil {
		mux.Handle("/api/logs", logs.Handler())
	}
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{\"ok\":true}\n"))
}
