package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"go-ambient/config"
	"go-ambient/debug"
	"go-ambient/midi"
	"go-ambient/sequencer"
	"go-ambient/synth"
	"go-ambient/theme"
	"go-ambient/tone"
	"go-ambient/tui"
)

func main() {
	var (
		seed     = flag.String("seed", "", "seed for the ambient player (empty picks one)")
		mode     = flag.String("mode", "", "ambient or looper (default from config)")
		backend  = flag.String("backend", "", "synth or midi (default from config)")
		headless = flag.Bool("headless", false, "play without the terminal UI")
		verbose  = flag.Bool("debug", false, "log to ~/.config/go-ambient/debug.log")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Output.Backend = config.Backend(*backend)
	}
	if *mode != "" {
		cfg.UI.LastMode = *mode
	}

	if cfg.Debug || *verbose {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *seed, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seed string, headless bool) error {
	m, err := sequencer.ParseMode(cfg.UI.LastMode)
	if err != nil {
		return err
	}
	ambientCfg, err := cfg.AmbientPlayer()
	if err != nil {
		return err
	}
	looperCfg, err := cfg.LooperPlayer()
	if err != nil {
		return err
	}

	b, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()
	debug.SetClock(b.Now)

	manager := sequencer.NewManager(b, sequencer.NewAmbient(b, ambientCfg), sequencer.NewLooper(b, looperCfg))
	manager.SetMode(m)
	defer manager.Stop()

	if seed == "" {
		seed = cfg.UI.LastSeed
	}

	if headless || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runHeadless(ctx, manager, seed)
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		return err
	}
	model := tui.NewModel(manager, theme.New(palette), seed)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return err
	}

	if fm, ok := final.(tui.Model); ok {
		cfg.UI.LastSeed = fm.Seed()
	}
	cfg.UI.LastMode = string(manager.Mode())
	if err := cfg.Save(); err != nil {
		debug.Log("config", "save failed: %v", err)
	}
	return nil
}

// runHeadless plays until interrupted, printing the seed so the performance
// can be repeated
func runHeadless(ctx context.Context, manager *sequencer.Manager, seed string) error {
	if err := manager.Play(seed); err != nil {
		return err
	}
	st := manager.Status()
	if st.Mode == sequencer.ModeAmbient {
		fmt.Printf("go-ambient: playing seed %q (ctrl-c to stop)\n", st.Seed)
	} else {
		fmt.Println("go-ambient: playing looper (ctrl-c to stop)")
	}

	for {
		select {
		case <-ctx.Done():
			manager.Stop()
			return nil
		case <-manager.UpdateChan:
			if err := manager.Status().Err; err != nil {
				return err
			}
		}
	}
}

// openBackend starts the configured output and the goroutine that delivers
// its completions
func openBackend(ctx context.Context, cfg *config.Config) (tone.Backend, func(), error) {
	switch cfg.Output.Backend {
	case config.BackendMIDI:
		send, port, err := midi.OpenOut(cfg.Output.PortName)
		if err != nil {
			return nil, nil, tone.Unavailable("output", err)
		}
		debug.Log("backend", "midi output %s", port)
		b := midi.NewBackend(send, midi.Options{
			Channels:  cfg.MIDIChannels(),
			FullScale: max(cfg.Ambient.PeakGain, cfg.Looper.PeakGain),
		})
		runCtx, stop := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			b.Run(runCtx)
			close(done)
		}()
		return b, func() {
			stop()
			<-done
		}, nil

	default:
		engine := synth.NewEngine(cfg.Output.SampleRate)
		out, err := synth.NewOutput(engine, time.Duration(cfg.Output.BufferMs)*time.Millisecond)
		if err != nil {
			return nil, nil, err
		}
		runCtx, stop := context.WithCancel(ctx)
		go out.Run(runCtx)
		out.Start()
		return engine, func() {
			stop()
			out.Close()
		}, nil
	}
}
