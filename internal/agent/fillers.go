package agent

import (
	"sync"
	"time"

	"github.com/northbridgehealth/voice-agent/pkg/logging"
)

// Speaker pushes a spoken phrase into the live call.
type Speaker interface {
	Say(text string)
}

// defaultFillerPhrases maps tool names to what the agent says while that
// tool is still running. Unlisted tools get defaultFillerPhrase.
var defaultFillerPhrases = map[string]string{
	ToolFindPatient:       "Let me look that up for you.",
	ToolCreateAppointment: "One moment while I book that appointment.",
	ToolCancelAppointment: "One moment while I cancel that appointment.",
}

const defaultFillerPhrase = "One moment please."

// FillerSpeaker speaks a short holding phrase when a tool call takes longer
// than the configured delay, so the caller never sits in dead air. A call
// that resolves before the delay fires stays silent.
type FillerSpeaker struct {
	speaker Speaker
	delay   time.Duration
	logger  *logging.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewFillerSpeaker builds a filler speaker. A zero delay falls back to 1.5s,
// which tested well against caller patience.
func NewFillerSpeaker(speaker Speaker, delay time.Duration, logger *logging.Logger) *FillerSpeaker {
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FillerSpeaker{
		speaker: speaker,
		delay:   delay,
		logger:  logger.Component("fillers"),
		timers:  make(map[string]*time.Timer),
	}
}

// Begin arms the filler for one tool call, identified by callID. Calling
// Begin twice with the same id resets the timer.
func (f *FillerSpeaker) Begin(callID, toolName string) {
	phrase, ok := defaultFillerPhrases[toolName]
	if !ok {
		phrase = defaultFillerPhrase
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	if timer, ok := f.timers[callID]; ok {
		timer.Stop()
	}
	f.timers[callID] = time.AfterFunc(f.delay, func() {
		f.logger.Debug("speaking filler", "tool", toolName)
		f.speaker.Say(phrase)
		f.mu.Lock()
		delete(f.timers, callID)
		f.mu.Unlock()
	})
}

// Resolve marks the tool call finished. If the filler has not fired yet it
// never will.
func (f *FillerSpeaker) Resolve(callID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if timer, ok := f.timers[callID]; ok {
		timer.Stop()
		delete(f.timers, callID)
	}
}

// Stop cancels all pending fillers and rejects new ones.
func (f *FillerSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	for id, timer := range f.timers {
		timer.Stop()
		delete(f.timers, id)
	}
}

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(text string)

func (f SpeakerFunc) Say(text string) { f(text) }
