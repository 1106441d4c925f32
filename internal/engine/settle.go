package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/courtside/holdem-engine/internal/domain"
	"github.com/courtside/holdem-engine/internal/evaluator"
)

// Settle distributes the pot and completes the hand. The partition into
// main and side pots is computed once here from total_committed history,
// never incrementally, so it cannot drift. Chip conservation is checked;
// a mismatch is an invariant violation, never a silent misaward.
func Settle(h domain.Hand, now time.Time) (domain.Hand, error) {
	if h.Status == domain.HandStatusComplete {
		return domain.Hand{}, fmt.Errorf("%w: hand %s is already complete", domain.ErrInvalidState, h.ID)
	}

	next := h.Clone()
	contested := countInHand(next) > 1

	// Showdown reveals every surviving player's cards in hand history.
	if contested {
		if len(next.Community) != 5 {
			return domain.Hand{}, fmt.Errorf("%w: contested settlement with %d community cards", domain.ErrInvariant, len(next.Community))
		}
		for i := range next.Players {
			if next.Players[i].InHand() {
				next.Players[i].Revealed = true
			}
		}
	}

	pots, err := partitionPots(next)
	if err != nil {
		return domain.Hand{}, err
	}

	var awarded int64
	sideNo := 0
	for i := range pots {
		pot := &pots[i]
		if err := awardPot(&next, pot); err != nil {
			return domain.Hand{}, err
		}
		awarded += pot.Amount
		if pot.Label == "" {
			if i == 0 {
				pot.Label = "main_pot"
			} else {
				sideNo++
				pot.Label = fmt.Sprintf("side_pot_%d", sideNo)
			}
		}
	}

	if total := next.TotalCommitted(); awarded != total {
		return domain.Hand{}, fmt.Errorf("%w: pots award %d chips but %d were committed", domain.ErrInvariant, awarded, total)
	}

	next.Pots = pots
	next.Status = domain.HandStatusComplete
	next.CurrentActor = ""
	next.Deadline = time.Time{}
	next.EndedAt = &now
	next.Seq++
	return next, nil
}

// partitionPots slices total contributions into tiers: each distinct
// commitment level caps one pot, eligible to the non-folded players who
// contributed at least that much. A tier with a single contributor is an
// uncalled bet and goes straight back to its owner.
func partitionPots(h domain.Hand) ([]domain.Pot, error) {
	levels := make([]int64, 0, len(h.Players))
	seen := make(map[int64]struct{}, len(h.Players))
	for _, p := range h.Players {
		if p.TotalCommitted == 0 {
			continue
		}
		if _, dup := seen[p.TotalCommitted]; dup {
			continue
		}
		seen[p.TotalCommitted] = struct{}{}
		levels = append(levels, p.TotalCommitted)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]domain.Pot, 0, len(levels))
	prev := int64(0)
	for _, level := range levels {
		var contributors, eligible []string
		for _, p := range h.Players {
			if p.TotalCommitted < level {
				continue
			}
			contributors = append(contributors, p.PlayerID)
			if p.InHand() {
				eligible = append(eligible, p.PlayerID)
			}
		}
		amount := (level - prev) * int64(len(contributors))
		prev = level
		if amount == 0 {
			continue
		}

		if len(contributors) == 1 {
			pots = append(pots, domain.Pot{
				Amount:   amount,
				Eligible: contributors,
				Winners:  contributors,
				Label:    "uncalled",
			})
			continue
		}
		if len(eligible) == 0 {
			return nil, fmt.Errorf("%w: pot tier %d has no eligible players", domain.ErrInvariant, level)
		}
		pots = append(pots, domain.Pot{Amount: amount, Eligible: eligible})
	}
	return pots, nil
}

// awardPot fills in winners and pays stacks. Odd chips go one each to
// winners in seat order starting after the button.
func awardPot(h *domain.Hand, pot *domain.Pot) error {
	winners := pot.Winners
	if len(winners) == 0 {
		if len(pot.Eligible) == 1 {
			winners = append([]string(nil), pot.Eligible...)
		} else {
			best, err := bestEligible(*h, pot.Eligible)
			if err != nil {
				return err
			}
			winners = best
		}
	}

	share := pot.Amount / int64(len(winners))
	odd := pot.Amount % int64(len(winners))
	for _, id := range winners {
		idx := h.PlayerIndex(id)
		if idx < 0 {
			return fmt.Errorf("%w: pot winner %s not seated", domain.ErrInvariant, id)
		}
		h.Players[idx].Stack += share
	}
	for _, idx := range seatOrderAfterButton(*h, winners) {
		if odd == 0 {
			break
		}
		h.Players[idx].Stack++
		odd--
	}

	pot.Winners = winners
	return nil
}

func bestEligible(h domain.Hand, eligible []string) ([]string, error) {
	hole := make(map[string]domain.HoleCards, len(eligible))
	for _, id := range eligible {
		idx := h.PlayerIndex(id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: eligible player %s not seated", domain.ErrInvariant, id)
		}
		hole[id] = h.Players[idx].Hole
	}
	winners, err := evaluator.BestHands(hole, h.Community)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvariant, err)
	}
	return winners, nil
}

// seatOrderAfterButton orders the given players by seat, starting with the
// first seat past the button.
func seatOrderAfterButton(h domain.Hand, players []string) []int {
	include := make(map[string]struct{}, len(players))
	for _, id := range players {
		include[id] = struct{}{}
	}
	n := len(h.Players)
	out := make([]int, 0, len(players))
	for i := 1; i <= n; i++ {
		idx := (h.ButtonIdx + i) % n
		if _, ok := include[h.Players[idx].PlayerID]; ok {
			out = append(out, idx)
		}
	}
	return out
}

// Reveal marks a completed hand's hole cards publicly visible. Only the
// owner may reveal, and only after the hand is complete; display only,
// payouts are long since settled.
func Reveal(h domain.Hand, playerID string) (domain.Hand, error) {
	if h.Status != domain.HandStatusComplete {
		return domain.Hand{}, fmt.Errorf("%w: hand %s is %s, reveal requires complete", domain.ErrInvalidState, h.ID, h.Status)
	}
	idx := h.PlayerIndex(playerID)
	if idx < 0 {
		return domain.Hand{}, fmt.Errorf("%w: player %s is not in hand %s", domain.ErrNotFound, playerID, h.ID)
	}
	next := h.Clone()
	next.Players[idx].Revealed = true
	next.Seq++
	return next, nil
}
