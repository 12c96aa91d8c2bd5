package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
)

// Setting is one effective configuration value shown in a summary.
type Setting struct {
	Key   string
	Value any
}

// Section is a titled block of lines appended after the standard sections.
type Section struct {
	Title string
	Lines []string
}

// Summary is a markdown-friendly description of one run.
type Summary struct {
	Command     string
	RunID       string
	Source      string
	Settings    []Setting
	Identifiers int
	Groups      int
	Drops       *aggregate.DropStats
	Sections    []Section
	Outputs     []string
	Warnings    []string
}

// Markdown renders the summary in bracketed sections.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[RUN SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Command: %s\n", s.Command))
	if s.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", s.RunID))
	}
	if s.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", s.Source))
	}
	b.WriteString("\n")

	if len(s.Settings) > 0 {
		b.WriteString("[SETTINGS]\n")
		for _, kv := range s.Settings {
			b.WriteString(fmt.Sprintf("- %s: %v\n", kv.Key, kv.Value))
		}
		b.WriteString("\n")
	}

	b.WriteString("[GROUPING]\n")
	b.WriteString(fmt.Sprintf("Identifiers: %d\n", s.Identifiers))
	b.WriteString(fmt.Sprintf("Groups: %d\n", s.Groups))
	if s.Identifiers > 0 && s.Groups > 0 {
		b.WriteString(fmt.Sprintf("Merged: %d\n", s.Identifiers-s.Groups))
	}
	b.WriteString("\n")

	if s.Drops != nil {
		b.WriteString("[DROPPED RECORDS]\n")
		b.WriteString(fmt.Sprintf("Records: %d (kept %d)\n", s.Drops.Total, s.Drops.Kept))
		b.WriteString(fmt.Sprintf("- missing score: %d\n", s.Drops.MissingScore))
		b.WriteString(fmt.Sprintf("- missing predecessor: %d\n", s.Drops.MissingPredecessor))
		b.WriteString("\n")
	}

	for _, sec := range s.Sections {
		b.WriteString(fmt.Sprintf("[%s]\n", strings.ToUpper(sec.Title)))
		if len(sec.Lines) == 0 {
			b.WriteString("(none)\n")
		}
		for _, l := range sec.Lines {
			b.WriteString(l)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(s.Outputs) > 0 {
		b.WriteString("[OUTPUTS]\n")
		for _, o := range s.Outputs {
			b.WriteString(fmt.Sprintf("- %s\n", o))
		}
		b.WriteString("\n")
	}

	if len(s.Warnings) > 0 {
		b.WriteString("[WARNINGS]\n")
		for _, w := range s.Warnings {
			b.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// WriteSummary writes the rendered summary to w.
func WriteSummary(w io.Writer, s *Summary) error {
	_, err := io.WriteString(w, s.Markdown())
	return err
}
