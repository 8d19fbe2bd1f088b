// Package adjust biases tentative decisions toward historical human
// consensus. The rule is a pure function over labeled neighbors, so it is
// testable without a live similarity store.
package adjust

import (
	"fmt"

	"github.com/okian/guardian/internal/domain/model"
)

// Outcome reports whether and why the tier was escalated.
type Outcome struct {
	Escalated bool
	Reason    string
}

// Apply shifts a tentative tier toward historical human consensus.
// When rejections strictly outnumber approvals among labeled neighbors, a
// GREEN verdict escalates to YELLOW. Escalation caps at forcing human
// review: YELLOW never auto-raises to RED, and RED is never downgraded on
// precedent alone. Ties and unlabeled sets leave the tier unchanged.
func Apply(tier model.Tier, neighbors []model.SimilarityMatch) (model.Tier, Outcome) {
	rejections, approvals := 0, 0
	for _, n := range neighbors {
		switch n.HumanVerdict {
		case model.VerdictReject:
			rejections++
		case model.VerdictApprove:
			approvals++
		}
	}

	if rejections <= approvals {
		return tier, Outcome{}
	}
	if tier != model.TierGreen {
		return tier, Outcome{}
	}
	return model.TierYellow, Outcome{
		Escalated: true,
		Reason:    fmt.Sprintf("similar past cases rejected by moderators (%d/%d)", rejections, rejections+approvals),
	}
}
