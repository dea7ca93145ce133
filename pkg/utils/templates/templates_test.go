package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLongDesc(t *testing.T) {
	t.Parallel()

	got := LongDesc(`
		First paragraph of the description.

		Second paragraph.
	`)

	assert.Equal(t, "First paragraph of the description.\n\nSecond paragraph.", got)
	assert.Empty(t, LongDesc(""))
}

func TestLongDescWraps(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 40)
	got := LongDesc(long)

	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), wrapWidth)
	}
}

func TestExamples(t *testing.T) {
	t.Parallel()

	got := Examples(`
		# Show the active epic
		guildctl epic status
	`)

	for _, line := range strings.Split(got, "\n") {
		assert.True(t, strings.HasPrefix(line, Indentation))
	}
}
