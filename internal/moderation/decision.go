package moderation

import (
	"fmt"

	"calimara/internal/model"
)

// DefaultFlagThreshold is deliberately low: the engine's job is triage, and a
// human reviews everything it flags.
const DefaultFlagThreshold = 0.2

// Engine turns a combined score map into a moderation status. It is a pure
// threshold policy: it can approve or flag, never reject. Rejection is
// exclusively a human decision, because automated rejection over literary text
// (poetry, drama, satire) risks censoring legitimate expression.
type Engine struct {
	FlagThreshold float64
}

func NewEngine(flagThreshold float64) Engine {
	if flagThreshold <= 0 || flagThreshold >= 1 {
		flagThreshold = DefaultFlagThreshold
	}
	return Engine{FlagThreshold: flagThreshold}
}

// Outcome is the engine's verdict for one piece of content.
type Outcome struct {
	Status   model.ModerationStatus // approved or flagged, never rejected
	Scores   Scores                 // combined classifier + overlay scores
	Toxicity float64                // max across all combined categories
	Reason   string
}

// Decide combines the classifier analysis with the local overlay
// (conservative union, per-category max) and applies the threshold policy.
func (e Engine) Decide(analysis *Analysis, overlay Scores) Outcome {
	combined := analysis.Scores.Merge(overlay).Clamped()
	toxicity := combined.Max()

	reason := analysis.Reason
	flagged := false
	switch {
	case analysis.Assessment == AssessmentUnsafe:
		flagged = true
		if reason == "" {
			reason = "classifier assessed content as unsafe"
		}
	case toxicity > e.FlagThreshold:
		flagged = true
		if reason == "" {
			reason = fmt.Sprintf("combined toxicity %.2f above threshold %.2f", toxicity, e.FlagThreshold)
		}
	case analysis.Assessment == AssessmentReview:
		flagged = true
		if reason == "" {
			reason = "classifier requested review"
		}
	}

	status := model.StatusApproved
	if flagged {
		status = model.StatusFlagged
	} else if reason == "" {
		reason = fmt.Sprintf("content approved, low toxicity (%.2f)", toxicity)
	}

	return Outcome{Status: status, Scores: combined, Toxicity: toxicity, Reason: reason}
}
