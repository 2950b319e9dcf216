package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.1, Clamp(0.05, 0.1, 1.5))
	assert.Equal(t, 1.5, Clamp(3.0, 0.1, 1.5))
	assert.Equal(t, 1.0, Clamp(1.0, 0.1, 1.5))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint32(1920), AlignUp(uint32(1920), 16))
	assert.Equal(t, uint32(1088), AlignUp(uint32(1080), 16))
	assert.Equal(t, uint32(16), AlignUp(uint32(1), 16))
	assert.Equal(t, uint32(0), AlignUp(uint32(0), 16))
}
