package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ekisa-team/vani/internal/env"
	"github.com/ekisa-team/vani/internal/envvar"
	"github.com/ekisa-team/vani/internal/events"
	"github.com/ekisa-team/vani/internal/logger"
	"github.com/ekisa-team/vani/internal/wakeword"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultLabel = "APEKSHAAAAA"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

// app holds the hardware and environment hooks of the command.
type app struct {
	lookup       func(string) (string, bool)
	listDevices  func() ([]string, error)
	newEngine    func(wakeword.EngineConfig) (wakeword.Engine, error)
	newRecorder  func(index, frameLength, sampleRate int) (wakeword.Recorder, error)
	newPublisher func(ctx context.Context, addr, password string) (events.Publisher, error)
}

func defaultApp() *app {
	return &app{
		lookup:      os.LookupEnv,
		listDevices: wakeword.ListDevices,
		newEngine:   wakeword.NewEngine,
		newRecorder: wakeword.NewRecorder,
		newPublisher: func(ctx context.Context, addr, password string) (events.Publisher, error) {
			return events.NewRedisPublisher(ctx, addr, password)
		},
	}
}

type options struct {
	device      int
	sensitivity float32
	label       string
	libraryPath string
}

func newRootCmd(a *app) *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "wakeword",
		Short: "Listen for a wake word on a capture device",
		Long: `Listen for a wake word on a capture device.

Lists the available capture devices, asks which one to use unless --device
is given, and prints a timestamped line for every detection until
interrupted.

Environment:
  ACCESS_KEY      Picovoice access key
  MODEL_PATH      Porcupine model parameters (.pv)
  KEYWORD_PATH    Keyword file (.ppn)
  REDIS_ADDR      Optional redis address for detection events
  REDIS_PASSWORD  Optional redis password`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.device, "device", "d", -1, "Capture device index; prompted for when negative")
	cmd.Flags().Float32VarP(&opts.sensitivity, "sensitivity", "s", wakeword.DefaultSensitivity, "Detection sensitivity in [0, 1]")
	cmd.Flags().StringVarP(&opts.label, "label", "l", defaultLabel, "Keyword name printed on detection")
	cmd.Flags().StringVar(&opts.libraryPath, "library", "", "Path to the Porcupine dynamic library, bundled one when empty")

	return cmd
}

func (a *app) env(key string) string {
	v, _ := a.lookup(key)
	return v
}

func (a *app) run(cmd *cobra.Command, opts options) error {
	out := cmd.OutOrStdout()

	// a missing .env is fine, variables may come from the environment
	_ = godotenv.Load()

	slog.SetDefault(logger.New(env.FromEnv(), logger.WithOutput(cmd.ErrOrStderr())))

	accessKey := a.env(envvar.AccessKey)
	modelPath := a.env(envvar.ModelPath)
	keywordPath := a.env(envvar.KeywordPath)
	if accessKey == "" || modelPath == "" || keywordPath == "" {
		fmt.Fprintln(out, "Missing necessary environment variables.")
		return nil
	}

	devices, err := a.listDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("no capture devices found")
	}

	fmt.Fprintln(out, titleStyle.Render("Available Audio Devices:"))
	for i, name := range devices {
		fmt.Fprintf(out, "Device %d: %s\n", i, name)
	}

	index, err := selectDevice(cmd.InOrStdin(), out, opts.device, len(devices))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Selected device: %s\n", devices[index])

	engine, err := a.newEngine(wakeword.EngineConfig{
		AccessKey:    accessKey,
		ModelPath:    modelPath,
		KeywordPaths: []string{keywordPath},
		Sensitivity:  opts.sensitivity,
		LibraryPath:  opts.libraryPath,
	})
	if err != nil {
		fmt.Fprintln(out, "Failed to initialize Porcupine", err)
		return nil
	}
	fmt.Fprintln(out, dimStyle.Render("Porcupine version: "+engine.Version()))

	recorder, err := a.newRecorder(index, engine.FrameLength(), engine.SampleRate())
	if err != nil {
		if derr := engine.Delete(); derr != nil {
			slog.Warn("Failed to release keyword engine", "error", derr)
		}
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher := a.publisher(ctx)
	defer publisher.Close()

	listener := wakeword.NewListener(engine, recorder, wakeword.Options{
		Label:     opts.label,
		Device:    devices[index],
		Out:       out,
		Publisher: publisher,
	})

	return listener.Run(ctx)
}

// publisher connects to redis when REDIS_ADDR is set. Connection failures
// only disable publishing.
func (a *app) publisher(ctx context.Context) events.Publisher {
	addr := a.env(envvar.RedisAddr)
	if addr == "" {
		return events.Nop{}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := a.newPublisher(connectCtx, addr, a.env(envvar.RedisPassword))
	if err != nil {
		slog.Warn("Wakeword events disabled", "redis_addr", addr, "error", err)
		return events.Nop{}
	}

	slog.Info("Publishing wakeword events", "redis_addr", addr, "channel", events.ChannelWakeword)
	return p
}

func selectDevice(in io.Reader, out io.Writer, flagIndex, n int) (int, error) {
	if flagIndex >= 0 {
		return wakeword.ParseDeviceIndex(fmt.Sprint(flagIndex), n)
	}

	fmt.Fprint(out, "Enter the index of the audio device you want to use: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("failed to read device index: %w", err)
	}

	return wakeword.ParseDeviceIndex(line, n)
}
