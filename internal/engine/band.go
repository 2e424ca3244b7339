package engine

import (
	"github.com/researchgraph/canonmatch/internal/matcher"
	"github.com/researchgraph/canonmatch/internal/workflow"
)

// classifyTop picks the winning candidate (find_candidates already sorts by
// spec §4.2's tie-break) and reports its band, or BandNone with a nil
// candidate when nothing was found.
func classifyTop(candidates []matcher.Candidate) (matcher.Band, *matcher.Candidate) {
	if len(candidates) == 0 {
		return matcher.BandNone, nil
	}
	top := candidates[0]
	return top.Band, &top
}

// bandState maps a confidence band to the work-item state the matching
// stage transitions into (spec §4.3's table).
func bandState(band matcher.Band) workflow.State {
	switch band {
	case matcher.BandHigh:
		return workflow.HighConfidence
	case matcher.BandMedium:
		return workflow.MediumConfidence
	case matcher.BandLow:
		return workflow.LowConfidence
	default:
		return workflow.NoMatch
	}
}

// bandFromState inverts bandState, for resuming a work item that is
// sitting in one of the four band states.
func bandFromState(s workflow.State) matcher.Band {
	switch s {
	case workflow.HighConfidence:
		return matcher.BandHigh
	case workflow.MediumConfidence:
		return matcher.BandMedium
	case workflow.LowConfidence:
		return matcher.BandLow
	default:
		return matcher.BandNone
	}
}
