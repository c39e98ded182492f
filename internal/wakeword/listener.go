package wakeword

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ekisa-team/vani/internal/events"
)

// TimestampLayout formats detection times.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Options configures a Listener.
type Options struct {
	Label     string
	Device    string
	Out       io.Writer
	Publisher events.Publisher
	Now       func() time.Time
}

// Listener feeds recorder frames to the engine and reports detections.
type Listener struct {
	engine    Engine
	recorder  Recorder
	label     string
	device    string
	out       io.Writer
	publisher events.Publisher
	now       func() time.Time
}

// NewListener creates a Listener. It takes ownership of engine and recorder.
func NewListener(engine Engine, recorder Recorder, opts Options) *Listener {
	l := &Listener{
		engine:    engine,
		recorder:  recorder,
		label:     opts.Label,
		device:    opts.Device,
		out:       opts.Out,
		publisher: opts.Publisher,
		now:       opts.Now,
	}
	if l.out == nil {
		l.out = os.Stdout
	}
	if l.publisher == nil {
		l.publisher = events.Nop{}
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Run listens until ctx is canceled or a frame cannot be read or processed.
// The recorder and then the engine are released on every return path.
func (l *Listener) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := l.recorder.Close(); cerr != nil {
			slog.Warn("Failed to release recorder", "error", cerr)
		}
		if derr := l.engine.Delete(); derr != nil {
			slog.Warn("Failed to release keyword engine", "error", derr)
		}
	}()

	fmt.Fprintln(l.out, "Listening ... (press Ctrl+C to exit)")

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(l.out, "Stopping ...")
			return nil
		}

		pcm, err := l.recorder.Read()
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(l.out, "Stopping ...")
				return nil
			}
			return fmt.Errorf("failed to read audio frame: %w", err)
		}

		idx, err := l.engine.Process(pcm)
		if err != nil {
			return fmt.Errorf("failed to process audio frame: %w", err)
		}
		if idx >= 0 {
			l.detected(ctx)
		}
	}
}

func (l *Listener) detected(ctx context.Context) {
	at := l.now()
	fmt.Fprintf(l.out, "[%s] Detected %s\n", at.Format(TimestampLayout), l.label)

	err := l.publisher.Publish(ctx, events.NewWakewordEvent(l.label, l.device, at))
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("Failed to publish wakeword event", "keyword", l.label, "error", err)
	}
}
