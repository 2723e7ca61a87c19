package indicator

import "go.uber.org/zap"

// SimIndicators logs every LED transition via zap instead of driving
// real hardware, for development off a Raspberry Pi.
type SimIndicators struct {
	log    *zap.Logger
	states map[string]bool
}

// NewSimIndicators returns a SimIndicators that logs at Debug level.
func NewSimIndicators(log *zap.Logger) *SimIndicators {
	return &SimIndicators{log: log, states: make(map[string]bool)}
}

// SetLED logs only actual transitions, not every call, to keep the log
// readable under the ~2Hz blink-driven Render calls.
func (s *SimIndicators) SetLED(name string, on bool) {
	if prev, ok := s.states[name]; ok && prev == on {
		return
	}
	s.states[name] = on
	s.log.Debug("led", zap.String("name", name), zap.Bool("on", on))
}
