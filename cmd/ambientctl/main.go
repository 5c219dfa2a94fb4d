package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go-ambient/config"
	"go-ambient/envelope"
	"go-ambient/generator"
	"go-ambient/midi"
	"go-ambient/sequencer"
	"go-ambient/synth"
	"go-ambient/tone"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "ports":
		err = listPorts()
	case "dump":
		err = dump(os.Args[2:])
	case "tone":
		err = probeTone(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("go-ambient tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  ports                      - List MIDI output ports")
	fmt.Println("  dump <seed> [n] [variant]  - Print the first n notes a seed plays (variant: lehmer|masked)")
	fmt.Println("  tone [synth|midi]          - Play a test swell through a backend")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	outs, err := midi.OutPorts()
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	if len(outs) == 0 {
		fmt.Println("  (none)")
	}
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

// dump renders a performance offline and prints its notes in the order they
// were scheduled
func dump(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("dump needs a seed")
	}
	seed := args[0]
	n := 20
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v <= 0 {
			return fmt.Errorf("bad note count %q", args[1])
		}
		n = v
	}
	cfg := sequencer.DefaultAmbientConfig()
	if len(args) > 2 {
		v, err := generator.ParseVariant(args[2])
		if err != nil {
			return err
		}
		cfg.Variant = v
	}

	// a low rate is enough: only the schedule is printed
	engine := synth.NewEngine(4000)
	a := sequencer.NewAmbient(engine, cfg)
	var notes []sequencer.Note
	a.SetOnNote(func(note sequencer.Note) { notes = append(notes, note) })
	if err := a.Play(seed); err != nil {
		return err
	}
	for len(notes) < n {
		engine.Advance(1)
	}
	a.Stop()

	fmt.Printf("seed %q (%s)\n", seed, cfg.Variant)
	fmt.Printf("%4s  %-4s %10s %10s %10s\n", "#", "pitch", "when", "duration", "period")
	for i, note := range notes[:n] {
		fmt.Printf("%4d  %-4s %10.4f %10.4f %10.4f\n", i+1, note.Voice, note.When, note.Duration, note.Period)
	}
	return nil
}

// probeTone plays a four second A4 swell and waits for the voice to end
func probeTone(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	which := cfg.Output.Backend
	if len(args) > 0 {
		which = config.Backend(args[0])
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var b tone.Backend
	switch which {
	case config.BackendMIDI:
		send, port, err := midi.OpenOut(cfg.Output.PortName)
		if err != nil {
			return err
		}
		fmt.Printf("midi: %s\n", port)
		mb := midi.NewBackend(send, midi.Options{Channels: cfg.MIDIChannels()})
		go mb.Run(ctx)
		b = mb
	case config.BackendSynth:
		engine := synth.NewEngine(cfg.Output.SampleRate)
		out, err := synth.NewOutput(engine, time.Duration(cfg.Output.BufferMs)*time.Millisecond)
		if err != nil {
			return err
		}
		defer out.Close()
		go out.Run(ctx)
		out.Start()
		fmt.Printf("synth: %d Hz\n", engine.SampleRate())
		b = engine
	default:
		return fmt.Errorf("unknown backend %q", which)
	}

	gain, err := b.NewAmplitude(0)
	if err != nil {
		return err
	}
	defer gain.Disconnect()
	v, err := b.NewVoice(tone.Sine, gain)
	if err != nil {
		return err
	}
	defer v.Disconnect()

	ended := make(chan struct{})
	v.OnEnded(func() { close(ended) })

	const length = 4.0
	now := b.Now()
	v.SetFrequency(440)
	v.Start(now)
	envelope.ExponentialSwell(now, length, 0.1).Apply(gain)
	v.Stop(now + length)

	select {
	case <-ended:
		fmt.Println("Done!")
		return nil
	case <-time.After(length*time.Second + 2*time.Second):
		return fmt.Errorf("voice never ended")
	}
}
