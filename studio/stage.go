// Package studio runs comic generation jobs: parsing a journal entry,
// drafting a storyboard, composing panel prompts, rendering images, and
// saving the results. Job status is tracked in an in-memory registry and
// queried by the editor's poll loop.
package studio

import (
	"encoding/json"
	"fmt"

	"github.com/toonana/toonana/errors"
)

// Phase names one step of the generation pipeline.
type Phase string

const (
	PhaseQueued    Phase = "queued"
	PhaseParsing   Phase = "parsing"
	PhaseDrafting  Phase = "drafting"
	PhaseComposing Phase = "composing"
	PhaseRendering Phase = "rendering"
	PhaseSaving    Phase = "saving"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
)

// Stage is the tagged progress value of a job. Completed and Total are
// meaningful only while rendering; Err only when failed.
type Stage struct {
	Phase     Phase
	Completed int
	Total     int
	Err       string
}

func StageQueued() Stage    { return Stage{Phase: PhaseQueued} }
func StageParsing() Stage   { return Stage{Phase: PhaseParsing} }
func StageDrafting() Stage  { return Stage{Phase: PhaseDrafting} }
func StageComposing() Stage { return Stage{Phase: PhaseComposing} }
func StageSaving() Stage    { return Stage{Phase: PhaseSaving} }
func StageDone() Stage      { return Stage{Phase: PhaseDone} }

// StageRendering reports per-panel progress. Total may be zero before
// the panel count is known.
func StageRendering(completed, total int) Stage {
	return Stage{Phase: PhaseRendering, Completed: completed, Total: total}
}

func StageFailed(msg string) Stage {
	return Stage{Phase: PhaseFailed, Err: msg}
}

// Terminal reports whether no further stage change can follow.
func (s Stage) Terminal() bool {
	return s.Phase == PhaseDone || s.Phase == PhaseFailed
}

func (s Stage) String() string {
	switch s.Phase {
	case PhaseRendering:
		return fmt.Sprintf("rendering %d/%d", s.Completed, s.Total)
	case PhaseFailed:
		return fmt.Sprintf("failed: %s", s.Err)
	default:
		return string(s.Phase)
	}
}

// stageJSON is the wire shape: {"stage":"rendering","completed":1,"total":4}.
type stageJSON struct {
	Stage     Phase  `json:"stage"`
	Completed *int   `json:"completed,omitempty"`
	Total     *int   `json:"total,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s Stage) MarshalJSON() ([]byte, error) {
	out := stageJSON{Stage: s.Phase}
	switch s.Phase {
	case PhaseRendering:
		out.Completed = &s.Completed
		out.Total = &s.Total
	case PhaseFailed:
		out.Error = s.Err
	}
	return json.Marshal(out)
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var in stageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(errors.ErrDecode, err.Error())
	}

	switch in.Stage {
	case PhaseQueued, PhaseParsing, PhaseDrafting, PhaseComposing, PhaseSaving, PhaseDone:
		*s = Stage{Phase: in.Stage}
	case PhaseRendering:
		completed, total := 0, 0
		if in.Completed != nil {
			completed = *in.Completed
		}
		if in.Total != nil {
			total = *in.Total
		}
		if completed < 0 || total < 0 || completed > total {
			return errors.Wrapf(errors.ErrDecode, "rendering progress %d/%d out of range", completed, total)
		}
		*s = StageRendering(completed, total)
	case PhaseFailed:
		*s = StageFailed(in.Error)
	default:
		return errors.Wrapf(errors.ErrDecode, "unknown stage %q", in.Stage)
	}
	return nil
}
