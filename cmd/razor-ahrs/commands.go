package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"razor-ahrs/internal/ahrs"
)

type controller interface {
	snapshotter
	SetMode(ahrs.Mode) error
	Reset()
	NextCalibrationSensor()
}

// runCommands reads one command per line:
//
//	angles | calibrate | sensors   switch mode
//	next                           calibrate the next sensor
//	reset                          re-bootstrap the filter
//	status                         log the current snapshot
func runCommands(ctx context.Context, r io.Reader, c controller) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := handleCommand(c, sc.Text()); err != nil {
			log.Printf("command: %v", err)
		}
	}
	return sc.Err()
}

func handleCommand(c controller, line string) error {
	cmd := strings.ToLower(strings.TrimSpace(line))
	switch cmd {
	case "":
		return nil
	case "next":
		c.NextCalibrationSensor()
	case "reset":
		c.Reset()
	case "status":
		log.Print(formatSnapshot(c.Snapshot()))
	default:
		m, err := ahrs.ParseMode(cmd)
		if err != nil {
			return fmt.Errorf("unknown command %q", cmd)
		}
		return c.SetMode(m)
	}
	return nil
}
