// Command wakeword listens on a capture device and reports every detection
// of a keyword.
//
// Usage:
//
//	wakeword [--device N] [--sensitivity 0.5] [--label NAME]
//
// ACCESS_KEY, MODEL_PATH and KEYWORD_PATH are read from the environment or a
// .env file. When REDIS_ADDR is set, detections are also published on the
// vani:wakeword channel.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f87"))

func main() {
	if err := newRootCmd(defaultApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
