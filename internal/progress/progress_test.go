package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReporter_NonTTYReturnsLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	_, ok := r.(*LogReporter)
	assert.True(t, ok)
}

func TestIsTTY_NonFileWriterIsFalse(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTTY(&buf))
}

func TestTTYReporter_UpdateWritesProgressLine(t *testing.T) {
	var buf bytes.Buffer
	r := &TTYReporter{w: &buf}
	r.Update("embedding", 5, 10)
	assert.Contains(t, buf.String(), "5/10")
	assert.Contains(t, buf.String(), "50.0%")

	r.Done("embedding")
	assert.Contains(t, buf.String(), "done")
}

func TestTTYReporter_UpdateWithZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	r := &TTYReporter{w: &buf}
	r.Update("scanning", 3, 0)
	assert.Contains(t, buf.String(), "scanning: 3")
}

func TestLogReporter_DoesNotPanic(t *testing.T) {
	r := &LogReporter{}
	r.Update("stage", 1, 2)
	r.Done("stage")
}
