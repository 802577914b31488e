package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"razor-ahrs/internal/web"
)

func main() {
	var configPath string
	var mode string
	var commands bool
	flag.StringVar(&configPath, "config", "./razor.yaml", "Path to YAML config")
	flag.StringVar(&mode, "mode", "", "Override filter.mode (angles, calibrate, sensors)")
	flag.BoolVar(&commands, "stdin", false, "Read mode/calibration commands from stdin")
	flag.Parse()

	cfg, err := loadConfig(configPath, mode)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logs := web.NewLogRing(cfg.Log.BufferLines)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(cfg, logs)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer rt.Close()

	log.Printf("razor-ahrs starting variant=%d (%s) source=%s mode=%s interval=%s",
		rt.variant.Code, rt.variant.Name, cfg.Sensors.Source, cfg.Filter.Mode, cfg.Filter.Interval)

	if err := rt.Start(ctx); err != nil {
		log.Fatalf("ahrs start failed: %v", err)
	}
	if commands {
		go func() {
			if err := runCommands(ctx, os.Stdin, rt.svc); err != nil {
				log.Printf("stdin commands stopped: %v", err)
			}
		}()
	}
	if cfg.Log.Interval > 0 {
		go logAttitude(ctx, rt.svc, cfg.Log.Interval)
	}

	<-ctx.Done()
	log.Printf("razor-ahrs stopping")
}
