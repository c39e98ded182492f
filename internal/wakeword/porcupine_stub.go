//go:build !porcupine

package wakeword

// NewEngine is unavailable without the porcupine build tag.
func NewEngine(cfg EngineConfig) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return nil, ErrEngineUnavailable
}
