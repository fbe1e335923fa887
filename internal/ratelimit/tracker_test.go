package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountInWindowPrunesOldEntries(t *testing.T) {
	tr := NewTracker()
	tr.Record("agent-1")
	assert.Equal(t, 1, tr.CountInWindow("agent-1", time.Minute))

	// Force the recorded timestamp out of the window by querying a window
	// shorter than any real elapsed time.
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 0, tr.CountInWindow("agent-1", time.Millisecond))
}

func TestCountInWindowAccumulates(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.Record("agent-1")
	}
	assert.Equal(t, 5, tr.CountInWindow("agent-1", time.Minute))
}

func TestCountInWindowSeparatesAgents(t *testing.T) {
	tr := NewTracker()
	tr.Record("agent-1")
	tr.Record("agent-2")
	tr.Record("agent-2")
	assert.Equal(t, 1, tr.CountInWindow("agent-1", time.Minute))
	assert.Equal(t, 2, tr.CountInWindow("agent-2", time.Minute))
}

func TestCountInWindowUnknownAgent(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, 0, tr.CountInWindow("nobody", time.Minute))
}
