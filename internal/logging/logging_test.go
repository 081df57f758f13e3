package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_WritesTimestampedFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(logrus.InfoLevel, &buf, true)
	log.WithField("run_id", "r1").Info("Script finished")
	log.Debug("hidden")

	out := buf.String()
	assert.Regexp(t, `time="\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}"`, out)
	assert.Contains(t, out, `msg="Script finished"`)
	assert.Contains(t, out, "run_id=r1")
	assert.NotContains(t, out, "hidden")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	log := Discard()
	assert.NotPanics(t, func() { log.Warn("dropped") })
}
