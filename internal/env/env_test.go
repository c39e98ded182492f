package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := map[string]Environment{
		"":            Development,
		"dev":         Development,
		"production":  Production,
		" PROD ":      Production,
		"test":        Test,
		"unexpected?": Development,
	}

	for in, want := range tests {
		assert.Equal(t, want, Parse(in), "input %q", in)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("VANI_ENV", "production")
	assert.Equal(t, Production, FromEnv())
}
