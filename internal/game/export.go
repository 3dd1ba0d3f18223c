package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportSession appends a plain-text summary of a finished game to filename:
// the roster, the full blame log and whoever ended up most blamed.
func ExportSession(s *Session, filename string) error {
	view := s.View()
	entries := s.BlameLog()
	mostBlamed := s.MostBlamed()

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	names := make(map[string]string, len(view.Players))
	for _, p := range view.Players {
		names[p.ID] = p.Name
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Blamewheel Results - Session %s\n", s.Code))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString("Players:\n")
	for _, p := range view.Players {
		sb.WriteString(fmt.Sprintf("- %s (blamed %d times)\n", p.Name, p.Score))
	}
	sb.WriteString("\n")

	sb.WriteString("Blame log:\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("[%s] %s -> %s: \"%s\"\n",
			e.At.Format("15:04:05"), names[e.From], names[e.To], e.Question))
	}
	sb.WriteString("\n")

	if len(mostBlamed) > 0 {
		labels := make([]string, 0, len(mostBlamed))
		for _, id := range mostBlamed {
			labels = append(labels, names[id])
		}
		sb.WriteString(fmt.Sprintf("Most blamed: %s\n", strings.Join(labels, ", ")))
	}
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
