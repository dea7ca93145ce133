package payload

import (
	"context"
	"sort"
	"strings"

	"github.com/mverel/guildmaster/pkg/logger"
)

// Pipeline assembles the outbound dispatch payload from registered sections.
type Pipeline struct {
	sections []PayloadSection
	sorted   bool
}

// NewPipeline creates an empty payload pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// RegisterSection adds a PayloadSection to the pipeline.
// Sections are sorted by Priority before first assembly.
func (p *Pipeline) RegisterSection(s PayloadSection) {
	p.sections = append(p.sections, s)
	p.sorted = false
}

// ensureSorted sorts sections by priority. Called once lazily before first
// assembly.
func (p *Pipeline) ensureSorted() {
	if p.sorted {
		return
	}
	sort.Slice(p.sections, func(i, j int) bool {
		return p.sections[i].Priority() < p.sections[j].Priority()
	})
	p.sorted = true
}

// Assemble executes the payload assembly pipeline and returns the final text.
//
// Flow:
//  1. Sort sections by priority (lazy, once)
//  2. For each section: check Enabled → Render
//  3. Join rendered segments with blank lines
//
// Individual section failures are logged and skipped so one broken section
// never loses the whole dispatch.
func (p *Pipeline) Assemble(ctx context.Context, pc *PayloadContext) (string, error) {
	p.ensureSorted()

	var buf strings.Builder
	for _, section := range p.sections {
		if !section.Enabled(ctx, pc) {
			continue
		}

		text, err := section.Render(ctx, pc)
		if err != nil {
			logger.Warn("[PayloadPipeline] section %q render failed: %v", section.Name(), err)
			continue
		}
		if text == "" {
			continue
		}

		buf.WriteString(text)
		buf.WriteString("\n\n")
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

// SectionCount returns the number of registered sections.
func (p *Pipeline) SectionCount() int {
	return len(p.sections)
}
