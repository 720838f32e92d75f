package studio

import (
	"context"
	"strings"

	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/logger"
)

// maxPanels caps a comic at four panels regardless of entry length.
const maxPanels = 4

// run drives one job through the pipeline stages. It always leaves the
// registry record terminal.
func (s *Service) run(ctx context.Context, jobID string, entry *journal.Entry, style string) {
	lctx := logger.WithJobID(logger.WithEntryID(ctx, entry.ID), jobID)

	fail := func(stage Phase, err error) {
		if ctx.Err() != nil {
			logger.FromContext(lctx).Infow("job cancelled",
				logger.FieldStage, string(stage))
			s.registry.SetStage(jobID, StageFailed("cancelled"))
		} else {
			logger.FromContext(lctx).Errorw("job failed",
				logger.FieldStage, string(stage),
				logger.FieldError, err)
			s.registry.SetStage(jobID, StageFailed(err.Error()))
		}
		s.registry.Finish(jobID)
	}

	// Parsing: break the entry into scene beats.
	s.registry.SetStage(jobID, StageParsing())
	beats := parseBeats(entry.Body)
	if ctx.Err() != nil {
		fail(PhaseParsing, ctx.Err())
		return
	}

	// Drafting: stream a storyboard from the text model, publishing
	// partial text as it arrives.
	s.registry.SetStage(jobID, StageDrafting())
	var partial strings.Builder
	storyboard, err := s.text.GenerateStream(ctx, draftSystemPrompt, draftUserPrompt(entry, beats, style),
		func(fragment string) {
			partial.WriteString(fragment)
			s.registry.SetStoryboardText(jobID, partial.String())
		})
	if err != nil {
		fail(PhaseDrafting, err)
		return
	}
	s.registry.SetStoryboardText(jobID, storyboard)

	// Composing: turn the storyboard into concrete panel prompts.
	s.registry.SetStage(jobID, StageComposing())
	specs := composePanels(storyboard, beats)
	if ctx.Err() != nil {
		fail(PhaseComposing, ctx.Err())
		return
	}

	// Rendering: one image per panel, with progress published per panel.
	total := len(specs)
	s.registry.SetStage(jobID, StageRendering(0, total))

	panels := make([]journal.Panel, 0, total)
	imagePaths := make([]string, 0, total)
	for i, spec := range specs {
		img, err := s.renderer.Render(ctx, spec.Prompt, style)
		if err != nil {
			fail(PhaseRendering, err)
			return
		}

		path, err := saveImage(s.imagesDir, entry.ID, i, img)
		if err != nil {
			fail(PhaseRendering, err)
			return
		}

		panels = append(panels, journal.Panel{
			Index:     i,
			Prompt:    spec.Prompt,
			Dialogue:  spec.Dialogue,
			Style:     style,
			ImagePath: path,
		})
		imagePaths = append(imagePaths, path)
		s.registry.SetStage(jobID, StageRendering(i+1, total))
	}

	// Saving: persist storyboard and panels together.
	s.registry.SetStage(jobID, StageSaving())
	if _, err := s.store.SaveStoryboard(ctx, entry.ID, storyboard, s.text.ModelName()); err != nil {
		fail(PhaseSaving, err)
		return
	}
	if err := s.store.ReplacePanels(ctx, entry.ID, panels); err != nil {
		fail(PhaseSaving, err)
		return
	}

	s.registry.SetPanelImages(jobID, imagePaths)
	s.registry.SetStage(jobID, StageDone())
	s.registry.Finish(jobID)
	logger.FromContext(lctx).Infow("job completed", logger.FieldCount, total)
}

// parseBeats splits an entry body into up to maxPanels scene beats.
// Paragraphs are the primary unit; a single-paragraph entry falls back
// to sentence groups.
func parseBeats(body string) []string {
	paragraphs := splitNonEmpty(body, "\n\n")
	if len(paragraphs) < 2 {
		paragraphs = splitSentences(body)
	}

	if len(paragraphs) > maxPanels {
		// Fold the tail into the last beat rather than dropping it.
		head := paragraphs[:maxPanels-1]
		tail := strings.Join(paragraphs[maxPanels-1:], " ")
		paragraphs = append(append([]string(nil), head...), tail)
	}
	return paragraphs
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitSentences(s string) []string {
	var out []string
	var current strings.Builder
	for _, r := range s {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
				out = append(out, trimmed)
			}
			current.Reset()
		}
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		out = append(out, trimmed)
	}
	return out
}
