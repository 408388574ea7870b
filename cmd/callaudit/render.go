package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"callaudit/internal/records"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorStatus tints a stage status for terminal output.
func colorStatus(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch records.StageStatus(status) {
	case records.StatusSuccess:
		return ansiGreen + status + ansiReset
	case records.StatusFailed:
		return ansiRed + status + ansiReset
	case records.StatusProcessing:
		return ansiYellow + status + ansiReset
	default:
		return status
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	rule := strings.Repeat("-", len(title))
	if colorize {
		title = ansiBlue + title + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{title, rule}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// shortID trims a UUID down to its leading segment for table display.
func shortID(id string) string {
	if idx := strings.Index(id, "-"); idx > 0 {
		return id[:idx]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatScore(score int) string {
	if score <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/5", score)
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
