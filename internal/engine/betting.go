package engine

import (
	"fmt"
	"time"

	"github.com/courtside/holdem-engine/internal/domain"
)

// Apply validates and applies one action for the current actor and returns
// the next hand state with Seq bumped. It never mutates its input. The
// caller persists the result under a conditional write keyed on the prior
// Seq, so a real action and a timeout fold racing for the same turn cannot
// both land.
func Apply(h domain.Hand, playerID string, kind domain.ActionKind, amount int64, now time.Time, actionTimeout time.Duration) (domain.Hand, error) {
	switch h.Status {
	case domain.HandStatusActive:
	case domain.HandStatusShowdown, domain.HandStatusComplete:
		return domain.Hand{}, fmt.Errorf("%w: hand %s is %s, no further actions", domain.ErrInvalidState, h.ID, h.Status)
	default:
		return domain.Hand{}, fmt.Errorf("%w: hand %s has unknown status %q", domain.ErrInvariant, h.ID, h.Status)
	}

	idx := h.PlayerIndex(playerID)
	if idx < 0 {
		return domain.Hand{}, fmt.Errorf("%w: player %s is not in hand %s", domain.ErrNotFound, playerID, h.ID)
	}
	if h.CurrentActor != playerID {
		return domain.Hand{}, fmt.Errorf("%w: current actor is %s, bet to match %d", domain.ErrNotYourTurn, h.CurrentActor, h.CurrentBet)
	}

	next := h.Clone()
	p := &next.Players[idx]
	if !p.CanAct() {
		return domain.Hand{}, fmt.Errorf("%w: player %s is %s and cannot act", domain.ErrInvariant, playerID, p.Status)
	}
	owed := next.CurrentBet - p.CommittedThisStreet

	switch kind {
	case domain.ActionFold:
		p.Status = domain.PlayerStatusFolded

	case domain.ActionCheck:
		if owed != 0 {
			return domain.Hand{}, fmt.Errorf("%w: cannot check facing a bet, %d to call", domain.ErrInvalidAction, owed)
		}

	case domain.ActionCall:
		if owed <= 0 {
			return domain.Hand{}, fmt.Errorf("%w: nothing to call, check instead", domain.ErrInvalidAction)
		}
		commit(p, min64(owed, p.Stack))

	case domain.ActionBet:
		if next.CurrentBet != 0 {
			return domain.Hand{}, fmt.Errorf("%w: there is a bet of %d to match, raise instead", domain.ErrInvalidAction, next.CurrentBet)
		}
		if err := applyWager(&next, p, amount); err != nil {
			return domain.Hand{}, err
		}

	case domain.ActionRaise:
		if next.CurrentBet == 0 {
			return domain.Hand{}, fmt.Errorf("%w: no bet to raise, bet instead", domain.ErrInvalidAction)
		}
		if err := applyWager(&next, p, amount); err != nil {
			return domain.Hand{}, err
		}

	default:
		return domain.Hand{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidAction, kind)
	}

	p.Acted = true
	next.Seq++

	return resolve(next, idx, now, actionTimeout)
}

// applyWager handles bet and raise uniformly: amount is the raise-to total
// committed this street. A full raise (at least the last full raise on top
// of the current bet) reopens action to everyone; an all-in for less does
// not restore the right to raise for players already closed out.
func applyWager(next *domain.Hand, p *domain.PlayerState, amount int64) error {
	if amount <= next.CurrentBet {
		return fmt.Errorf("%w: raise-to %d must exceed current bet %d", domain.ErrInvalidAction, amount, next.CurrentBet)
	}
	if !p.CanRaise {
		return fmt.Errorf("%w: betting is not reopened to %s", domain.ErrInvalidAction, p.PlayerID)
	}
	delta := amount - p.CommittedThisStreet
	if delta <= 0 {
		return fmt.Errorf("%w: raise-to %d is not above committed %d", domain.ErrInvalidAction, amount, p.CommittedThisStreet)
	}
	if delta > p.Stack {
		return fmt.Errorf("%w: raise-to %d needs %d chips, stack is %d", domain.ErrInvalidAction, amount, delta, p.Stack)
	}

	allIn := delta == p.Stack
	raiseSize := amount - next.CurrentBet
	minRaise := next.LastFullRaise
	if next.CurrentBet == 0 {
		// Opening bet: the minimum is the big blind.
		minRaise = next.BigBlind
		raiseSize = amount
	}
	if raiseSize < minRaise && !allIn {
		return fmt.Errorf("%w: minimum raise-to is %d", domain.ErrInvalidAction, next.CurrentBet+minRaise)
	}

	commit(p, delta)
	next.CurrentBet = amount

	if raiseSize >= minRaise {
		next.LastFullRaise = raiseSize
		for i := range next.Players {
			if next.Players[i].PlayerID == p.PlayerID {
				continue
			}
			next.Players[i].Acted = false
			next.Players[i].CanRaise = true
		}
		return nil
	}

	// Short all-in: everyone still owes a response, but whoever already
	// acted and matched the prior bet may only call or fold.
	for i := range next.Players {
		other := &next.Players[i]
		if other.PlayerID == p.PlayerID {
			continue
		}
		if other.Acted {
			other.Acted = false
			other.CanRaise = false
		}
	}
	return nil
}

func commit(p *domain.PlayerState, pay int64) {
	p.Stack -= pay
	p.CommittedThisStreet += pay
	p.TotalCommitted += pay
	if p.Stack == 0 {
		p.Status = domain.PlayerStatusAllIn
	}
}

// resolve advances the hand after a committed action: uncontested pot,
// street rollover, showdown runout, or simply the next actor's turn.
func resolve(next domain.Hand, actedIdx int, now time.Time, actionTimeout time.Duration) (domain.Hand, error) {
	if countInHand(next) <= 1 {
		return Settle(next, now)
	}

	if roundClosed(next) {
		return advanceStreet(next, now, actionTimeout)
	}

	nextIdx, ok := nextActorIdx(next, actedIdx)
	if !ok {
		// No one left who can act; the street cannot continue.
		return advanceStreet(next, now, actionTimeout)
	}
	next.CurrentActor = next.Players[nextIdx].PlayerID
	next.Deadline = now.Add(actionTimeout)
	return next, nil
}

// roundClosed reports whether every player who can still act has matched
// the current bet and acted since the last full raise.
func roundClosed(h domain.Hand) bool {
	for _, p := range h.Players {
		if !p.CanAct() {
			continue
		}
		if !p.Acted {
			return false
		}
		if p.CommittedThisStreet != h.CurrentBet {
			return false
		}
	}
	return true
}

// advanceStreet rolls the hand to the next street, dealing community cards
// as it goes. When fewer than two players can still act it keeps rolling
// to the river and leaves the hand at showdown.
func advanceStreet(h domain.Hand, now time.Time, actionTimeout time.Duration) (domain.Hand, error) {
	for {
		if h.Street == domain.StreetRiver {
			h.Status = domain.HandStatusShowdown
			h.CurrentActor = ""
			h.Deadline = time.Time{}
			return h, nil
		}

		for i := range h.Players {
			h.Players[i].CommittedThisStreet = 0
			h.Players[i].Acted = false
			h.Players[i].CanRaise = true
		}
		h.CurrentBet = 0
		h.LastFullRaise = h.BigBlind

		var draw int
		var nextStreet domain.Street
		switch h.Street {
		case domain.StreetPreflop:
			draw, nextStreet = 3, domain.StreetFlop
		case domain.StreetFlop:
			draw, nextStreet = 1, domain.StreetTurn
		case domain.StreetTurn:
			draw, nextStreet = 1, domain.StreetRiver
		default:
			return domain.Hand{}, fmt.Errorf("%w: cannot advance from street %q", domain.ErrInvariant, h.Street)
		}

		// Burn one, then deal.
		_, rest, err := domain.DealN(h.Deck, 1)
		if err != nil {
			return domain.Hand{}, err
		}
		drawn, rest, err := domain.DealN(rest, draw)
		if err != nil {
			return domain.Hand{}, err
		}
		h.Deck = rest
		h.Community = append(h.Community, drawn...)
		h.Street = nextStreet

		if countCanAct(h) < 2 {
			continue
		}

		firstIdx, ok := nextActorIdx(h, h.ButtonIdx)
		if !ok {
			continue
		}
		h.CurrentActor = h.Players[firstIdx].PlayerID
		h.Deadline = now.Add(actionTimeout)
		return h, nil
	}
}

// runOut deals the remaining board with no betting and leaves the hand at
// showdown. Used when blinds alone put everyone all-in.
func runOut(h domain.Hand, now time.Time) (domain.Hand, error) {
	h.CurrentActor = ""
	h.Deadline = time.Time{}
	return advanceStreet(h, now, 0)
}

// nextActorIdx finds the next seat after from (wrapping) that can still
// act.
func nextActorIdx(h domain.Hand, from int) (int, bool) {
	n := len(h.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if h.Players[idx].CanAct() {
			return idx, true
		}
	}
	return 0, false
}

func countInHand(h domain.Hand) int {
	count := 0
	for _, p := range h.Players {
		if p.InHand() {
			count++
		}
	}
	return count
}

func countCanAct(h domain.Hand) int {
	count := 0
	for _, p := range h.Players {
		if p.CanAct() {
			count++
		}
	}
	return count
}
