//go:build porcupine

package wakeword

import (
	"fmt"

	porcupine "github.com/Picovoice/porcupine/binding/go/v3"
)

type porcupineEngine struct {
	p *porcupine.Porcupine
}

// NewEngine initializes the Porcupine keyword engine.
func NewEngine(cfg EngineConfig) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &porcupine.Porcupine{
		AccessKey:     cfg.AccessKey,
		ModelPath:     cfg.ModelPath,
		KeywordPaths:  cfg.KeywordPaths,
		Sensitivities: cfg.sensitivities(),
		LibraryPath:   cfg.LibraryPath,
	}
	if err := p.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize porcupine: %w", err)
	}

	return &porcupineEngine{p: p}, nil
}

func (e *porcupineEngine) Process(pcm []int16) (int, error) {
	return e.p.Process(pcm)
}

func (e *porcupineEngine) FrameLength() int { return porcupine.FrameLength }

func (e *porcupineEngine) SampleRate() int { return porcupine.SampleRate }

func (e *porcupineEngine) Version() string { return porcupine.Version }

func (e *porcupineEngine) Delete() error {
	return e.p.Delete()
}
