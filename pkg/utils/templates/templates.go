// Package templates normalizes the long descriptions and example blocks of
// CLI commands so help output keeps a consistent shape regardless of how the
// source literals are indented.
package templates

import (
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mitchellh/go-wordwrap"
)

// Indentation prefixes every example line.
const Indentation = `  `

// wrapWidth is the column the long descriptions re-wrap at.
const wrapWidth = 80

// LongDesc normalizes a command's long description: heredoc-style dedent,
// trimmed, re-wrapped at a terminal-friendly width.
func LongDesc(s string) string {
	if len(s) == 0 {
		return s
	}
	return normalizer{s}.heredoc().trim().wrap().string
}

// Examples normalizes a command's examples: heredoc-style dedent, trimmed,
// every line indented.
func Examples(s string) string {
	if len(s) == 0 {
		return s
	}
	return normalizer{s}.heredoc().trim().indent().string
}

type normalizer struct {
	string
}

func (s normalizer) heredoc() normalizer {
	s.string = heredoc.Doc(s.string)
	return s
}

func (s normalizer) trim() normalizer {
	s.string = strings.TrimSpace(s.string)
	return s
}

func (s normalizer) wrap() normalizer {
	s.string = wordwrap.WrapString(s.string, wrapWidth)
	return s
}

func (s normalizer) indent() normalizer {
	lines := strings.Split(s.string, "\n")
	for i, line := range lines {
		lines[i] = Indentation + strings.TrimSpace(line)
	}
	s.string = strings.Join(lines, "\n")
	return s
}
