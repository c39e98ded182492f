//go:build !portaudio

package wakeword

// ListDevices is unavailable without the portaudio build tag.
func ListDevices() ([]string, error) {
	return nil, ErrRecorderUnavailable
}

// NewRecorder is unavailable without the portaudio build tag.
func NewRecorder(index, frameLength, sampleRate int) (Recorder, error) {
	return nil, ErrRecorderUnavailable
}
