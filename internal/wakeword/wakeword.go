package wakeword

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSensitivity is the detection sensitivity used when none is given.
const DefaultSensitivity = 0.5

var (
	// ErrEngineUnavailable is returned when the binary was built without the keyword engine.
	ErrEngineUnavailable = errors.New("keyword engine not available: rebuild with -tags porcupine")

	// ErrRecorderUnavailable is returned when the binary was built without audio capture.
	ErrRecorderUnavailable = errors.New("audio capture not available: rebuild with -tags portaudio")

	// ErrInvalidDevice is returned for an unusable device selection.
	ErrInvalidDevice = errors.New("invalid device index")
)

// Engine detects keywords in fixed-size frames of 16-bit PCM.
type Engine interface {
	// Process returns the index of the detected keyword or -1.
	Process(pcm []int16) (int, error)
	FrameLength() int
	SampleRate() int
	Version() string
	Delete() error
}

// Recorder reads frames from a capture device.
type Recorder interface {
	Read() ([]int16, error)
	Close() error
}

// EngineConfig configures the keyword engine.
type EngineConfig struct {
	AccessKey    string
	ModelPath    string
	KeywordPaths []string
	Sensitivity  float32
	LibraryPath  string
}

// Validate checks the configuration.
func (c EngineConfig) Validate() error {
	if c.AccessKey == "" || c.ModelPath == "" || len(c.KeywordPaths) == 0 {
		return errors.New("access key, model path and keyword path are required")
	}
	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		return fmt.Errorf("sensitivity %.2f out of range [0, 1]", c.Sensitivity)
	}
	return nil
}

func (c EngineConfig) sensitivities() []float32 {
	out := make([]float32, len(c.KeywordPaths))
	for i := range out {
		out[i] = c.Sensitivity
	}
	return out
}

// ParseDeviceIndex parses a device choice for a list of n devices.
func ParseDeviceIndex(input string, n int) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidDevice, strings.TrimSpace(input))
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: %d is out of range [0, %d)", ErrInvalidDevice, idx, n)
	}
	return idx, nil
}
