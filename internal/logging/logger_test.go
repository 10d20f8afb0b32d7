package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters("arena", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("tick %d", 2)
	l.Warnf("pair %s", "box-cylinder")
	l.Errorf("boom")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[arena] INFO: tick 2")
	assert.Contains(t, errOut.String(), "[arena] WARN: pair box-cylinder")
	assert.Contains(t, errOut.String(), "[arena] ERROR: boom")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown")
	assert.Contains(t, out.String(), "[arena] DEBUG: shown")
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	assert.False(t, l.DebugEnabled())
	l.Infof("discarded")

	d := New("", true)
	assert.Same(t, d, OrNop(d))
}
