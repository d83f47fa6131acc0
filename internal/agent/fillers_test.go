package agent

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSpeaker struct {
	mu      sync.Mutex
	phrases []string
	fired   chan string
}

func newRecordingSpeaker() *recordingSpeaker {
	return &recordingSpeaker{fired: make(chan string, 8)}
}

func (s *recordingSpeaker) Say(text string) {
	s.mu.Lock()
	s.phrases = append(s.phrases, text)
	s.mu.Unlock()
	s.fired <- text
}

func (s *recordingSpeaker) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.phrases...)
}

func TestFillerSpeaksAfterDelay(t *testing.T) {
	speaker := newRecordingSpeaker()
	fillers := NewFillerSpeaker(speaker, 5*time.Millisecond, nil)
	defer fillers.Stop()

	fillers.Begin("call-1", ToolFindPatient)

	select {
	case phrase := <-speaker.fired:
		assert.Equal(t, "Let me look that up for you.", phrase)
	case <-time.After(time.Second):
		t.Fatal("filler never fired")
	}
}

func TestFillerUsesDefaultPhraseForUnknownTool(t *testing.T) {
	speaker := newRecordingSpeaker()
	fillers := NewFillerSpeaker(speaker, 5*time.Millisecond, nil)
	defer fillers.Stop()

	fillers.Begin("call-1", "some_future_tool")

	select {
	case phrase := <-speaker.fired:
		assert.Equal(t, "One moment please.", phrase)
	case <-time.After(time.Second):
		t.Fatal("filler never fired")
	}
}

func TestFillerStaysSilentWhenResolvedQuickly(t *testing.T) {
	speaker := newRecordingSpeaker()
	fillers := NewFillerSpeaker(speaker, 50*time.Millisecond, nil)
	defer fillers.Stop()

	fillers.Begin("call-1", ToolCreateAppointment)
	fillers.Resolve("call-1")

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, speaker.spoken())
}

func TestFillerStopCancelsEverything(t *testing.T) {
	speaker := newRecordingSpeaker()
	fillers := NewFillerSpeaker(speaker, 50*time.Millisecond, nil)

	fillers.Begin("call-1", ToolFindPatient)
	fillers.Begin("call-2", ToolCancelAppointment)
	fillers.Stop()

	// Begin after Stop is ignored.
	fillers.Begin("call-3", ToolFindPatient)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, speaker.spoken())
}

func TestFillerDefaultDelay(t *testing.T) {
	fillers := NewFillerSpeaker(newRecordingSpeaker(), 0, nil)
	require.NotNil(t, fillers)
	assert.Equal(t, 1500*time.Millisecond, fillers.delay)
	fillers.Stop()
}
