package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

var (
	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"})
	paragraphStyle = lipgloss.NewStyle().
			Width(78).
			Padding(0, 0, 0, 2)
)

func keyword(s string) string   { return keywordStyle.Render(s) }
func paragraph(s string) string { return paragraphStyle.Render(s) }

// setupLog routes logs away from stdout, which carries the MCP
// transport. Logs go to the file named by SPEAKMCP_LOG when set,
// otherwise to stderr.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetTimeFormat(time.Kitchen)
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if path := os.Getenv("SPEAKMCP_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("unable to open log file: %w", err)
		}
		log.SetOutput(f)
		return f.Close, nil
	}
	return func() error { return nil }, nil
}
