package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ScanTimeout bounds a port scan. CoreMIDI can hang.
const ScanTimeout = 3 * time.Second

var (
	ErrScanTimeout = errors.New("MIDI port scan timed out")
	ErrNoPort      = errors.New("no MIDI output port")
)

// OutPorts lists the output ports, giving up after ScanTimeout
func OutPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(ScanTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrScanTimeout
	}
}

// OpenOut opens the output port called name and returns a sender for it. An
// exact name wins over a case-insensitive substring match; an empty name
// picks the first port.
func OpenOut(name string) (send func(gomidi.Message) error, portName string, err error) {
	outs, err := OutPorts()
	if err != nil {
		return nil, "", err
	}
	port := findPort(outs, name)
	if port == nil {
		if name == "" {
			return nil, "", ErrNoPort
		}
		return nil, "", fmt.Errorf("%w matching %q", ErrNoPort, name)
	}
	send, err = gomidi.SendTo(port)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", port.String(), err)
	}
	return send, port.String(), nil
}

func findPort(outs []drivers.Out, name string) drivers.Out {
	if len(outs) == 0 {
		return nil
	}
	if name == "" {
		return outs[0]
	}
	for _, p := range outs {
		if p.String() == name {
			return p
		}
	}
	lower := strings.ToLower(name)
	for _, p := range outs {
		if strings.Contains(strings.ToLower(p.String()), lower) {
			return p
		}
	}
	return nil
}
