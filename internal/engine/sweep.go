package engine

import (
	"fmt"

	"github.com/courtside/holdem-engine/internal/domain"
)

// ForcedAction picks the action the timeout sweep applies on behalf of an
// expired actor: check when nothing is owed, otherwise fold. The sweep
// applies it through the same conditional-write path as a real action, so
// whichever commits first wins and the loser is a stale no-op.
func ForcedAction(h domain.Hand) (domain.ActionKind, error) {
	if h.Status != domain.HandStatusActive || h.CurrentActor == "" {
		return "", fmt.Errorf("%w: hand %s has no actor to time out", domain.ErrInvalidState, h.ID)
	}
	idx := h.PlayerIndex(h.CurrentActor)
	if idx < 0 {
		return "", fmt.Errorf("%w: current actor %s not seated in hand %s", domain.ErrInvariant, h.CurrentActor, h.ID)
	}
	if h.CurrentBet > h.Players[idx].CommittedThisStreet {
		return domain.ActionFold, nil
	}
	return domain.ActionCheck, nil
}
