package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashDeterministic(t *testing.T) {
	a := Hash(100, 200, 30)
	b := Hash(100, 200, 30)
	assert.Equal(t, a, b)
}

func TestHashDistinguishesInputs(t *testing.T) {
	base := Hash(100, 200, 30)
	assert.NotEqual(t, base, Hash(101, 200, 30))
	assert.NotEqual(t, base, Hash(100, 201, 30))
	assert.NotEqual(t, base, Hash(100, 200, 31))
}

func TestHashMasksOversizedFields(t *testing.T) {
	// Only the low 12 bits of each field should matter.
	a := Hash(1, 2, 3)
	b := Hash(1|1<<freqBits, 2, 3)
	assert.Equal(t, a, b)
}
