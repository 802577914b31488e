// Package metrics exports the AHRS loop state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"razor-ahrs/internal/calibration"
	"razor-ahrs/internal/dcm"
)

const namespace = "razor_ahrs"

// Recorder satisfies ahrs.Recorder.
type Recorder struct {
	readErrors  *prometheus.CounterVec
	cycles      prometheus.Counter
	yaw         prometheus.Gauge
	pitch       prometheus.Gauge
	roll        prometheus.Gauge
	dt          prometheus.Gauge
	accelWeight prometheus.Gauge
}

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		readErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sensor_read_errors_total",
				Help:      "Failed sensor reads, by sensor.",
			},
			[]string{"sensor"},
		),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed service cycles.",
		}),
		yaw: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "yaw_degrees",
			Help:      "Estimated yaw.",
		}),
		pitch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pitch_degrees",
			Help:      "Estimated pitch.",
		}),
		roll: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "roll_degrees",
			Help:      "Estimated roll.",
		}),
		dt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dt_seconds",
			Help:      "Integration step of the last cycle.",
		}),
		accelWeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accel_weight",
			Help:      "Trust placed in the accelerometer by the last drift correction (0..1).",
		}),
	}
	for _, c := range []prometheus.Collector{r.readErrors, r.cycles, r.yaw, r.pitch, r.roll, r.dt, r.accelWeight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	// Export a zero series per sensor up front.
	for _, s := range calibration.Sensors {
		r.readErrors.WithLabelValues(s.String())
	}
	return r, nil
}

func (r *Recorder) SensorError(sensor calibration.Sensor) {
	r.readErrors.WithLabelValues(sensor.String()).Inc()
}

func (r *Recorder) Cycle(dt float64) {
	r.cycles.Inc()
	r.dt.Set(dt)
}

// Attitude takes radians.
func (r *Recorder) Attitude(yaw, pitch, roll, accelWeight float64) {
	r.yaw.Set(dcm.Degrees(yaw))
	r.pitch.Set(dcm.Degrees(pitch))
	r.roll.Set(dcm.Degrees(roll))
	r.accelWeight.Set(accelWeight)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
