// Package statusled drives a single GPIO output as the AHRS status light.
package statusled

import (
	"fmt"
	"sync"
)

// DefaultPin is the BCM GPIO the LED is usually wired to.
const DefaultPin = 13

// outputLine is the part of a GPIO line request the LED needs.
type outputLine interface {
	SetValue(v int) error
	Close() error
}

// LED satisfies ahrs.Indicator.
type LED struct {
	pin int

	mu     sync.Mutex
	line   outputLine
	closed bool
}

// Open requests pin as an output, initially off.
func Open(pin int) (*LED, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("statusled: invalid gpio pin %d", pin)
	}
	line, err := openLineFn(pin)
	if err != nil {
		return nil, err
	}
	return &LED{pin: pin, line: line}, nil
}

func (l *LED) Pin() int { return l.pin }

func (l *LED) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("statusled: gpio%d closed", l.pin)
	}
	v := 0
	if on {
		v = 1
	}
	return l.line.SetValue(v)
}

// Close switches the LED off and releases the line.
func (l *LED) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	_ = l.line.SetValue(0)
	return l.line.Close()
}
