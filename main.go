package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/tenloop/tenloop/commands"
	"github.com/tenloop/tenloop/config"
	"github.com/tenloop/tenloop/control"
	"github.com/tenloop/tenloop/engine"
	"github.com/tenloop/tenloop/indicator"
	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/session"
)

func main() {
	sim := flag.Bool("sim", false, "use simulated GPIO control surface and LEDs instead of real hardware")
	outIndex := flag.Int("out", -1, "MIDI output port index (prompted if omitted)")
	inIndex := flag.Int("in", -1, "MIDI input port index (-1 disables recording input)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Warn("failed to load config, using defaults", zap.Error(err))
		cfg = config.DefaultConfig()
	}

	portIndex := *outIndex
	if portIndex < 0 {
		portIndex, err = selectOutPort()
		if err != nil {
			log.Error("failed to select MIDI output port, entering failure mode", zap.Error(err))
			flashFailureForever(log, *sim, cfg)
			return
		}
	}

	port, err := midi.Open(log, portIndex, *inIndex)
	if err != nil {
		log.Error("failed to open MIDI port, entering failure mode", zap.Error(err))
		flashFailureForever(log, *sim, cfg)
		return
	}

	sessions := session.New(log, cfg.SessionDir)

	surface, leds, closeSurface := buildAdapters(log, *sim, cfg)
	defer closeSurface()

	e := engine.New(log, port, sessions, surface, leds)
	e.LoadSession(false)

	// On a fresh install there's no session file to restore Super Looper
	// state from; seed it from the configured default instead.
	if looper := e.Controller.SuperLooper(); !looper.Enabled && cfg.SuperLooper.Enabled {
		e.Controller.EnableSuperLooper(true)
		if cfg.SuperLooper.DurationS > 0 {
			e.Controller.RestoreSuperLooperDuration(cfg.SuperLooper.DurationS)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		e.Shutdown()
		os.Exit(0)
	}()

	log.Info("tenloop started", zap.Int("midi_out_port", portIndex), zap.Int("midi_in_port", *inIndex))
	e.Run()
}

func buildAdapters(log *zap.Logger, sim bool, cfg *config.Config) (control.Surface, indicator.Indicators, func() error) {
	if !sim {
		surface, err := control.NewGPIOSurface(log, cfg.GPIO)
		if err != nil {
			log.Warn("failed to open GPIO control surface, falling back to simulator", zap.Error(err))
		} else {
			leds, err := indicator.NewGPIOIndicators(log, cfg.LEDPins)
			if err != nil {
				log.Warn("failed to open GPIO indicators, falling back to simulator", zap.Error(err))
			} else {
				return surface, leds, surface.Close
			}
			return surface, indicator.NewSimIndicators(log), surface.Close
		}
	}

	if commands.IsInteractive(os.Stdin.Fd()) {
		repl, err := commands.NewREPL(log)
		if err == nil {
			return repl, indicator.NewSimIndicators(log), repl.Close
		}
		log.Warn("failed to start interactive REPL, falling back to piped simulator", zap.Error(err))
	}
	sim2 := control.NewSimSurface(log, os.Stdin)
	return sim2, indicator.NewSimIndicators(log), sim2.Close
}

func selectOutPort() (int, error) {
	ports := midi.ListOutPorts()
	if len(ports) == 0 {
		return 0, fmt.Errorf("no MIDI output ports found")
	}

	fmt.Println("Available MIDI output ports:")
	for i, p := range ports {
		fmt.Printf("  %d: %s\n", i, p)
	}
	if len(ports) == 1 {
		fmt.Printf("\nUsing port 0: %s\n\n", ports[0])
		return 0, nil
	}

	rl, err := readline.New(fmt.Sprintf("Select MIDI port (0-%d): ", len(ports)-1))
	if err != nil {
		return 0, fmt.Errorf("create readline instance: %w", err)
	}
	defer rl.Close()

	input, err := rl.Readline()
	if err != nil {
		return 0, fmt.Errorf("read port selection: %w", err)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || idx < 0 || idx >= len(ports) {
		return 0, fmt.Errorf("invalid port selection: %q", input)
	}
	return idx, nil
}

// flashFailureForever renders the delete-all 5Hz flash failure mode per
// spec.md §7 and blocks forever; operator intervention (restart with a
// MIDI device attached) is required to recover.
func flashFailureForever(log *zap.Logger, sim bool, cfg *config.Config) {
	var leds indicator.Indicators
	if sim {
		leds = indicator.NewSimIndicators(log)
	} else {
		gpioLeds, err := indicator.NewGPIOIndicators(log, cfg.LEDPins)
		if err != nil {
			log.Error("failed to open GPIO indicators for failure mode", zap.Error(err))
			leds = indicator.NewSimIndicators(log)
		} else {
			leds = gpioLeds
		}
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	phase := false
	for range ticker.C {
		indicator.FlashFailure(leds, phase)
		phase = !phase
	}
}
