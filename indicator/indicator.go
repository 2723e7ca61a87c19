// Package indicator defines the Indicators output boundary (spec.md §2
// item 8 / §6) and computes LED state as a pure function of transport
// mode, recording/paused flags, the selected track, and which tracks
// have content. Two implementations: indicator/gpio.go drives real LEDs
// via periph.io, indicator/sim.go logs transitions via zap.
package indicator

import "github.com/tenloop/tenloop/transport"

// Indicators receives named boolean LED states. Logical names:
// "mode_rec", "mode_play", "pause", "clear", "delete_all", and
// "track_0".."track_9".
type Indicators interface {
	SetLED(name string, on bool)
}

// State is the full set of facts the LED computation depends on.
type State struct {
	Mode          transport.Mode
	TransportState transport.State
	SelectedTrack int
	TrackHasContent [10]bool
	BlinkPhase    bool // toggles at ~2Hz; used for the recording indicator
}

// Render computes every logical LED's on/off value from State and pushes
// it to ind. It is a pure function of State plus the blink phase, so it
// can be called unconditionally on every tick without tracking prior
// state itself.
func Render(ind Indicators, s State) {
	ind.SetLED("mode_rec", s.Mode == transport.ModeRec)
	ind.SetLED("mode_play", s.Mode == transport.ModePlay)

	recording := s.TransportState == transport.Recording || s.TransportState == transport.PausedRecording
	paused := s.TransportState == transport.PausedPlaying || s.TransportState == transport.PausedRecording

	ind.SetLED("pause", paused)
	ind.SetLED("clear", s.TransportState == transport.Playing)
	ind.SetLED("delete_all", false)

	for i := 0; i < 10; i++ {
		on := s.TrackHasContent[i]
		if i == s.SelectedTrack {
			if recording {
				on = s.BlinkPhase
			} else {
				on = true
			}
		}
		ind.SetLED(trackLEDName(i), on)
	}
}

// FlashFailure renders the unrecoverable-I/O failure mode: the
// delete-all LED flashing at the caller's blink phase, every other LED
// off, per spec.md §7.
func FlashFailure(ind Indicators, blinkPhase bool) {
	ind.SetLED("mode_rec", false)
	ind.SetLED("mode_play", false)
	ind.SetLED("pause", false)
	ind.SetLED("clear", false)
	ind.SetLED("delete_all", blinkPhase)
	for i := 0; i < 10; i++ {
		ind.SetLED(trackLEDName(i), false)
	}
}

func trackLEDName(i int) string {
	const digits = "0123456789"
	return "track_" + string(digits[i])
}
