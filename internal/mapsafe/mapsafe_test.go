package mapsafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	m := map[string]any{
		"language":    "hi",
		"temperature": 0.2,
		"beam_size":   float64(5),
		"best_of":     "3",
		"translate":   "true",
		"prompt":      42,
		"nothing":     nil,
	}

	assert.Equal(t, "hi", Get(m, "language", ""))
	assert.Equal(t, 0.2, Get(m, "temperature", 0.0))
	assert.Equal(t, 5, Get(m, "beam_size", -1))
	assert.Equal(t, 3, Get(m, "best_of", 2))
	assert.True(t, Get(m, "translate", false))
	assert.Equal(t, "fallback", Get(m, "prompt", "fallback"))
	assert.Equal(t, "fallback", Get(m, "nothing", "fallback"))
	assert.Equal(t, 7, Get(m, "missing", 7))
	assert.Equal(t, 7, Get[int](nil, "missing", 7))
}

func TestClone(t *testing.T) {
	src := map[string]any{"a": 1}
	dst := Clone(src)
	dst["b"] = 2

	assert.Len(t, src, 1)
	assert.Len(t, dst, 2)
	assert.NotNil(t, Clone(nil))
}
