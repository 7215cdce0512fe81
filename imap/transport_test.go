package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortStringDefaults(t *testing.T) {
	assert.Equal(t, "143", portString(0, false))
	assert.Equal(t, "993", portString(0, true))
	assert.Equal(t, "1143", portString(1143, false))
	assert.Equal(t, "1143", portString(1143, true))
}

func TestNetMonBandwidth(t *testing.T) {
	n := newNetmonReader()
	n.observe(1000)
	n.Tick()
	assert.Greater(t, n.Bandwidth(), 0.0)
}
