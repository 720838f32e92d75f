// Package editor implements the client-side core of the journal UI:
// polling generation jobs for status, reducing stages to display state,
// debounced autosave, entry switching, and the optimistic entry list.
// Everything here is transport-agnostic; the server package puts HTTP in
// front of it and the CLI drives it directly.
package editor

import (
	"fmt"

	"github.com/toonana/toonana/studio"
)

// DisplayState is what a progress surface renders for one job stage.
type DisplayState struct {
	Label    string  `json:"label"`
	Fraction float64 `json:"fraction"`
	Terminal bool    `json:"terminal"`
	Failed   bool    `json:"failed"`
	Message  string  `json:"message,omitempty"`
}

// Progress fractions per stage. Rendering occupies the 0.50-0.90 band,
// advanced by per-panel progress; the bar never moves backwards through
// a normal stage progression.
const (
	fractionQueued    = 0.08
	fractionParsing   = 0.18
	fractionDrafting  = 0.32
	fractionComposing = 0.45
	fractionRenderLo  = 0.50
	fractionRenderHi  = 0.90
	fractionSaving    = 0.95
)

// ReduceStage maps a job stage to its display state. Pure: same stage in,
// same state out.
func ReduceStage(stage studio.Stage) DisplayState {
	switch stage.Phase {
	case studio.PhaseQueued:
		return DisplayState{Label: "Queued", Fraction: fractionQueued}
	case studio.PhaseParsing:
		return DisplayState{Label: "Reading entry", Fraction: fractionParsing}
	case studio.PhaseDrafting:
		return DisplayState{Label: "Drafting storyboard", Fraction: fractionDrafting}
	case studio.PhaseComposing:
		return DisplayState{Label: "Composing panels", Fraction: fractionComposing}
	case studio.PhaseRendering:
		return DisplayState{
			Label:    fmt.Sprintf("Rendering panels (%d/%d)", stage.Completed, stage.Total),
			Fraction: renderFraction(stage.Completed, stage.Total),
		}
	case studio.PhaseSaving:
		return DisplayState{Label: "Saving comic", Fraction: fractionSaving}
	case studio.PhaseDone:
		return DisplayState{Label: "Done", Fraction: 1.0, Terminal: true}
	case studio.PhaseFailed:
		return DisplayState{
			Label:    "Failed",
			Fraction: 1.0,
			Terminal: true,
			Failed:   true,
			Message:  stage.Err,
		}
	default:
		// Unknown stages render as queued rather than blanking the bar.
		return DisplayState{Label: "Queued", Fraction: fractionQueued}
	}
}

// renderFraction spreads panel progress across the rendering band. A
// zero total pins the bar at the band floor until the count is known.
func renderFraction(completed, total int) float64 {
	if total <= 0 {
		return fractionRenderLo
	}
	frac := fractionRenderLo + (fractionRenderHi-fractionRenderLo)*float64(completed)/float64(total)
	if frac > fractionRenderHi {
		frac = fractionRenderHi
	}
	return frac
}
