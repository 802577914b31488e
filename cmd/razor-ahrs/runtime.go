package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"razor-ahrs/internal/ahrs"
	"razor-ahrs/internal/board"
	"razor-ahrs/internal/calibration"
	"razor-ahrs/internal/config"
	"razor-ahrs/internal/dcm"
	"razor-ahrs/internal/i2c"
	"razor-ahrs/internal/metrics"
	"razor-ahrs/internal/sensors/razor"
	"razor-ahrs/internal/sim"
	"razor-ahrs/internal/statusled"
	"razor-ahrs/internal/web"
)

func loadConfig(path, modeOverride string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if modeOverride != "" {
		cfg.Filter.Mode = modeOverride
		if err := config.DefaultAndValidate(&cfg); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// runtime owns everything the service needs and tears it down in reverse.
type runtime struct {
	variant board.Variant
	model   *calibration.Model
	svc     *ahrs.Service

	bus     *i2c.Bus
	led     *statusled.LED
	srv     *http.Server
	reg     *prometheus.Registry
	started bool
}

// newRuntime wires the configured source, calibration and outputs. logs may
// be nil.
func newRuntime(cfg config.Config, logs *web.LogRing) (*runtime, error) {
	variant, err := board.Lookup(cfg.Hardware.Variant)
	if err != nil {
		return nil, err
	}
	model, err := calibration.NewModel(cfg.CalibrationParams(), cfg.Filter.Gravity)
	if err != nil {
		return nil, err
	}
	r := &runtime{variant: variant, model: model}

	src, err := r.openSource(cfg)
	if err != nil {
		r.Close()
		return nil, err
	}

	r.reg = prometheus.NewRegistry()
	r.reg.MustRegister(prometheus.NewGoCollector())
	rec, err := metrics.NewRecorder(r.reg)
	if err != nil {
		r.Close()
		return nil, err
	}
	var stream *web.Broadcaster
	opts := []ahrs.Option{ahrs.WithRecorder(rec)}
	if cfg.HTTP.Listen != "" {
		stream = web.NewBroadcaster()
		opts = append(opts, ahrs.WithPublisher(stream))
	}

	if cfg.StatusLED.Enable {
		led, err := statusled.Open(cfg.StatusLED.Pin)
		if err != nil {
			log.Printf("status led disabled: %v", err)
		} else {
			r.led = led
			opts = append(opts, ahrs.WithIndicator(led))
		}
	}

	r.svc, err = ahrs.New(cfg.Service(), src, model, opts...)
	if err != nil {
		r.Close()
		return nil, err
	}

	if cfg.HTTP.Listen != "" {
		r.srv = &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           web.Handler(r.svc, stream, logs, metrics.Handler(r.reg)),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return r, nil
}

func (r *runtime) openSource(cfg config.Config) (ahrs.Source, error) {
	switch cfg.Sensors.Source {
	case config.SourceSim:
		imu, err := sim.NewIMU(sim.IMU{
			Gravity:     cfg.Filter.Gravity,
			GyroGain:    cfg.Filter.GyroGain,
			YawRate:     dcm.Radians(cfg.Sim.YawRateDps),
			Pitch:       dcm.Radians(cfg.Sim.PitchDeg),
			Roll:        dcm.Radians(cfg.Sim.RollDeg),
			GyroBias:    cfg.Sim.GyroBias,
			Calibration: r.model,
			Now:         time.Now,
		})
		if err != nil {
			return nil, err
		}
		return imu, nil
	case config.SourceI2C:
		path := fmt.Sprintf("/dev/i2c-%d", cfg.Sensors.I2CBus)
		bus, err := i2c.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		r.bus = bus
		b, err := razor.New(bus, r.variant)
		if err != nil {
			return nil, fmt.Errorf("sensor init on %s: %w", path, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown sensors.source %q", cfg.Sensors.Source)
}

func (r *runtime) Start(ctx context.Context) error {
	if r.srv != nil {
		srv := r.srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server stopped: %v", err)
			}
		}()
		log.Printf("http listen=%s", srv.Addr)
	}
	if err := r.svc.Start(ctx); err != nil {
		return err
	}
	r.started = true
	return nil
}

func (r *runtime) Close() {
	if r == nil {
		return
	}
	if r.svc != nil {
		r.svc.Close()
	}
	if r.started {
		select {
		case <-r.svc.Done():
		case <-time.After(time.Second):
		}
	}
	if r.srv != nil {
		_ = r.srv.Close()
	}
	if r.led != nil {
		_ = r.led.Close()
	}
	if r.bus != nil {
		_ = r.bus.Close()
	}
}
