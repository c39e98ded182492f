package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/vani/internal/envvar"
)

// Environment is the runtime environment the process runs in.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Test        Environment = "test"
)

// FromEnv reads the environment from VANI_ENV, defaulting to development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.VaniEnv))
}

// Parse maps a free-form value to a known Environment.
func Parse(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "prod", "production":
		return Production
	case "test", "testing":
		return Test
	default:
		return Development
	}
}
