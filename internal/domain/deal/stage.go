package deal

import (
	"strings"

	xerrors "marketplace-service/internal/pkg/errors"
)

// Stage is the negotiation state of a deal.
type Stage string

const (
	StageSellerContacted  Stage = "Seller Contacted"
	StageNegotiatingTerms Stage = "Negotiating Terms"
	StageAgreementReached Stage = "Agreement Reached"
	StageClosedWon        Stage = "Closed Won"
	StageClosedLost       Stage = "Closed Lost"

	InitialStage = StageSellerContacted
)

// transitions lists the forward edges a seller may take from each stage.
// Terminal stages have none.
var transitions = map[Stage][]Stage{
	StageSellerContacted:  {StageNegotiatingTerms},
	StageNegotiatingTerms: {StageAgreementReached, StageClosedWon, StageClosedLost},
	StageAgreementReached: {StageClosedWon, StageClosedLost},
	StageClosedWon:        nil,
	StageClosedLost:       nil,
}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	return []Stage{
		StageSellerContacted,
		StageNegotiatingTerms,
		StageAgreementReached,
		StageClosedWon,
		StageClosedLost,
	}
}

func (s Stage) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Stage) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanUpdate reports whether the deal still accepts stage or quantity edits.
func (s Stage) CanUpdate() bool {
	return s.Valid() && !s.IsTerminal()
}

// NextStages returns the stages reachable in one step. Empty for terminal
// and unknown stages.
func (s Stage) NextStages() []Stage {
	next := transitions[s]
	out := make([]Stage, len(next))
	copy(out, next)
	return out
}

// ParseStage validates a client supplied stage name.
func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return "", xerrors.Invalid("unknown deal stage %q, expected one of: %s", v, stageList())
	}
	return s, nil
}

func stageList() string {
	all := Stages()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// ValidateTransition checks that to is a legal next stage of from.
func ValidateTransition(from, to Stage) error {
	if !to.Valid() {
		return xerrors.Invalid("unknown deal stage %q", to)
	}
	if !from.Valid() {
		return xerrors.NewClientError(xerrors.ErrInvalidTransition, "current stage %q is unknown", from)
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return xerrors.NewClientError(xerrors.ErrInvalidTransition, "%q -> %q", from, to)
}
