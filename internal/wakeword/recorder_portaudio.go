//go:build portaudio

package wakeword

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// ListDevices returns the names of the capture devices.
func ListDevices() ([]string, error) {
	devices, err := inputDevices()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}
	return names, nil
}

func inputDevices() ([]*portaudio.DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	var out []*portaudio.DeviceInfo
	for _, d := range all {
		if d.MaxInputChannels > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

type portaudioRecorder struct {
	stream *portaudio.Stream
	buffer []int16
}

// NewRecorder opens a mono 16-bit stream on the capture device at index,
// delivering frameLength samples per Read.
func NewRecorder(index, frameLength, sampleRate int) (Recorder, error) {
	devices, err := inputDevices()
	if err != nil {
		return nil, err
	}
	if _, err := ParseDeviceIndex(fmt.Sprint(index), len(devices)); err != nil {
		return nil, err
	}
	device := devices[index]

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	buffer := make([]int16, frameLength)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: frameLength,
	}

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("starting stream: %w", err)
	}

	return &portaudioRecorder{stream: stream, buffer: buffer}, nil
}

func (r *portaudioRecorder) Read() ([]int16, error) {
	if err := r.stream.Read(); err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}
	frame := make([]int16, len(r.buffer))
	copy(frame, r.buffer)
	return frame, nil
}

func (r *portaudioRecorder) Close() error {
	r.stream.Stop()
	err := r.stream.Close()
	portaudio.Terminate()
	return err
}
