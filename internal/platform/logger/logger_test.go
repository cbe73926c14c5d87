package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelsRouteToWriters(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLogger(&out, &errOut, false)

	l.Info("cast nets")
	l.Warn("storm rising")
	l.Error("save failed")
	l.Event("UPGRADE_PURCHASED", "PLAYER", "nets -> 1")

	assert.Contains(t, out.String(), "[DEPTHS-INFO] ")
	assert.Contains(t, out.String(), "cast nets")
	assert.Contains(t, out.String(), "[DEPTHS-WARN] ")
	assert.Contains(t, out.String(), "[EVENT:UPGRADE_PURCHASED] Actor:PLAYER | nets -> 1")
	assert.NotContains(t, out.String(), "save failed")
	assert.Contains(t, errOut.String(), "[DEPTHS-ERROR] ")
}

func TestColorPrefix(t *testing.T) {
	var out bytes.Buffer
	l := newLogger(&out, &out, true)
	l.Info("x")
	assert.Contains(t, out.String(), colorCyan+"[DEPTHS-INFO]"+colorReset)
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	l.Error("ignored")
}
