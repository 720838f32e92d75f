package studio

import (
	"fmt"
	"strings"

	"github.com/toonana/toonana/journal"
)

const draftSystemPrompt = `You are a comic storyboard writer. You turn a short diary entry ` +
	`into a storyboard of at most four panels. For each panel write exactly two lines:

PANEL <number>
PROMPT: <a single-sentence visual description of the panel>
DIALOGUE: <one short line of dialogue or narration, or leave empty>

Write nothing else.`

func draftUserPrompt(entry *journal.Entry, beats []string, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Art style: %s\n", style)
	if entry.Mood != "" {
		fmt.Fprintf(&b, "Mood: %s\n", entry.Mood)
	}
	fmt.Fprintf(&b, "Scene beats (%d):\n", len(beats))
	for i, beat := range beats {
		fmt.Fprintf(&b, "%d. %s\n", i+1, beat)
	}
	b.WriteString("\nDiary entry:\n")
	b.WriteString(entry.Body)
	return b.String()
}

// panelSpec is a composed panel before rendering.
type panelSpec struct {
	Prompt   string
	Dialogue string
}

// composePanels extracts panel specs from storyboard text. Models drift
// from the requested format, so parsing is lenient; when nothing
// parseable comes back, the raw scene beats become the prompts.
func composePanels(storyboard string, beats []string) []panelSpec {
	var specs []panelSpec
	var current *panelSpec

	flush := func() {
		if current != nil && current.Prompt != "" {
			specs = append(specs, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(storyboard, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "PANEL"):
			flush()
			current = &panelSpec{}
		case strings.HasPrefix(upper, "PROMPT:"):
			if current == nil {
				current = &panelSpec{}
			}
			current.Prompt = strings.TrimSpace(line[len("PROMPT:"):])
		case strings.HasPrefix(upper, "DIALOGUE:"):
			if current != nil {
				current.Dialogue = strings.TrimSpace(line[len("DIALOGUE:"):])
			}
		}
	}
	flush()

	if len(specs) > maxPanels {
		specs = specs[:maxPanels]
	}
	if len(specs) == 0 {
		for _, beat := range beats {
			specs = append(specs, panelSpec{Prompt: beat})
		}
	}
	return specs
}
