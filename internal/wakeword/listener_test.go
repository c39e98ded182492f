package wakeword

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ekisa-team/vani/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine reports a detection for frames whose first sample is 1.
type fakeEngine struct {
	order      *[]string
	processErr error
}

func (e *fakeEngine) Process(pcm []int16) (int, error) {
	if e.processErr != nil {
		return -1, e.processErr
	}
	if len(pcm) > 0 && pcm[0] == 1 {
		return 0, nil
	}
	return -1, nil
}

func (e *fakeEngine) FrameLength() int { return 512 }
func (e *fakeEngine) SampleRate() int  { return 16000 }
func (e *fakeEngine) Version() string  { return "3.0.0" }

func (e *fakeEngine) Delete() error {
	*e.order = append(*e.order, "engine")
	return nil
}

// fakeRecorder replays frames, then cancels the run.
type fakeRecorder struct {
	order   *[]string
	frames  [][]int16
	cancel  context.CancelFunc
	readErr error
}

func (r *fakeRecorder) Read() ([]int16, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	if len(r.frames) == 0 {
		r.cancel()
		return nil, errors.New("stream closed")
	}
	f := r.frames[0]
	r.frames = r.frames[1:]
	return f, nil
}

func (r *fakeRecorder) Close() error {
	*r.order = append(*r.order, "recorder")
	return nil
}

type recordingPublisher struct {
	events []events.WakewordEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.WakewordEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 10, 30, 0, 123456000, time.Local)
}

func TestListener_DetectsAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []string
	var out bytes.Buffer
	pub := &recordingPublisher{}

	l := NewListener(
		&fakeEngine{order: &order},
		&fakeRecorder{order: &order, cancel: cancel, frames: [][]int16{{0}, {1}, {0}, {1}}},
		Options{Label: "APEKSHAAAAA", Device: "USB Mic", Out: &out, Publisher: pub, Now: fixedNow},
	)

	require.NoError(t, l.Run(ctx))

	assert.Equal(t, "Listening ... (press Ctrl+C to exit)\n"+
		"[2024-05-01 10:30:00.123456] Detected APEKSHAAAAA\n"+
		"[2024-05-01 10:30:00.123456] Detected APEKSHAAAAA\n"+
		"Stopping ...\n", out.String())

	require.Len(t, pub.events, 2)
	assert.Equal(t, "APEKSHAAAAA", pub.events[0].Keyword)
	assert.Equal(t, "USB Mic", pub.events[0].Device)

	assert.Equal(t, []string{"recorder", "engine"}, order)
}

func TestListener_ReleasesOnError(t *testing.T) {
	tests := []struct {
		name     string
		engine   *fakeEngine
		recorder *fakeRecorder
	}{
		{
			name:     "read error",
			engine:   &fakeEngine{},
			recorder: &fakeRecorder{readErr: errors.New("device unplugged")},
		},
		{
			name:     "process error",
			engine:   &fakeEngine{processErr: errors.New("invalid frame length")},
			recorder: &fakeRecorder{frames: [][]int16{{0}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var order []string
			tt.engine.order = &order
			tt.recorder.order = &order
			tt.recorder.cancel = func() {}

			l := NewListener(tt.engine, tt.recorder, Options{Out: &bytes.Buffer{}})
			assert.Error(t, l.Run(context.Background()))
			assert.Equal(t, []string{"recorder", "engine"}, order)
		})
	}
}

func TestListener_PublishFailureIsNotFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []string
	var out bytes.Buffer

	l := NewListener(
		&fakeEngine{order: &order},
		&fakeRecorder{order: &order, cancel: cancel, frames: [][]int16{{1}}},
		Options{Label: "Vani", Out: &out, Publisher: &recordingPublisher{err: errors.New("redis down")}, Now: fixedNow},
	)

	require.NoError(t, l.Run(ctx))
	assert.Contains(t, out.String(), "Detected Vani")
}

func TestParseDeviceIndex(t *testing.T) {
	idx, err := ParseDeviceIndex(" 1\n", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	for _, in := range []string{"3", "-1", "mic", ""} {
		_, err := ParseDeviceIndex(in, 3)
		assert.ErrorIs(t, err, ErrInvalidDevice, in)
	}
}

func TestEngineConfig_Validate(t *testing.T) {
	cfg := EngineConfig{AccessKey: "k", ModelPath: "m.pv", KeywordPaths: []string{"kw.ppn"}, Sensitivity: 0.5}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []float32{0.5}, cfg.sensitivities())

	cfg.Sensitivity = 1.5
	assert.Error(t, cfg.Validate())

	assert.Error(t, EngineConfig{ModelPath: "m.pv"}.Validate())
}
