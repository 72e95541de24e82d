package domain

import (
	"strings"

	dErrors "commission/pkg/domain-errors"
)

// Decision is a reviewer's verdict on a proposal or submission. It is applied
// exactly once per target.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision constructs a Decision from external input.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
}

// IsValid reports whether d is one of the two supported decisions.
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}
