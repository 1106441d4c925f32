package engine

import (
	"fmt"
	"time"

	"github.com/courtside/holdem-engine/internal/domain"
)

// Deal starts a new hand for an in-progress game: seats the funded players,
// posts blinds, deals two hole cards each, and hands the turn to the first
// preflop actor. Heads-up the button posts the small blind and acts first.
// The caller must already have checked that no unfinished hand exists.
func Deal(g domain.Game, handNo uint64, cfg Config, shuffler domain.Shuffler, now time.Time) (domain.Hand, error) {
	if g.Status != domain.GameStatusInProgress {
		return domain.Hand{}, fmt.Errorf("%w: game %s is %s, deal requires in_progress", domain.ErrInvalidState, g.ID, g.Status)
	}
	if err := cfg.Validate(); err != nil {
		return domain.Hand{}, err
	}

	// Zero-stack players sit the hand out; seat order itself never changes.
	players := make([]domain.PlayerState, 0, len(g.SeatOrder))
	buttonIdx := -1
	buttonPlayer := g.SeatOrder[nextFundedSeatAt(g, g.ButtonIdx)]
	for _, id := range g.SeatOrder {
		stack := g.Stacks[id]
		if stack <= 0 {
			continue
		}
		if id == buttonPlayer {
			buttonIdx = len(players)
		}
		players = append(players, domain.PlayerState{
			PlayerID: id,
			Status:   domain.PlayerStatusActive,
			Stack:    stack,
			CanRaise: true,
		})
	}
	if len(players) < 2 {
		return domain.Hand{}, fmt.Errorf("%w: game %s has %d funded players, need at least 2", domain.ErrInvalidState, g.ID, len(players))
	}
	if buttonIdx < 0 {
		return domain.Hand{}, fmt.Errorf("%w: button player %s not seated in hand", domain.ErrInvariant, buttonPlayer)
	}

	hand := domain.Hand{
		GameID:        g.ID,
		HandNo:        handNo,
		Status:        domain.HandStatusActive,
		Street:        domain.StreetPreflop,
		Players:       players,
		ButtonIdx:     buttonIdx,
		SmallBlind:    cfg.SmallBlind,
		BigBlind:      cfg.BigBlind,
		CurrentBet:    cfg.BigBlind,
		LastFullRaise: cfg.BigBlind,
		Seq:           1,
		StartedAt:     now,
	}

	deck, err := domain.NewShuffledDeck(shuffler)
	if err != nil {
		return domain.Hand{}, err
	}

	// Two passes around the table starting left of the button, one card at
	// a time.
	order := make([]int, 0, len(players))
	for i := 1; i <= len(players); i++ {
		order = append(order, (buttonIdx+i)%len(players))
	}
	for round := 0; round < 2; round++ {
		for _, idx := range order {
			drawn, rest, err := domain.DealN(deck, 1)
			if err != nil {
				return domain.Hand{}, err
			}
			hand.Players[idx].Hole[round] = drawn[0]
			deck = rest
		}
	}
	hand.Deck = deck

	sbIdx, bbIdx := blindSeats(len(players), buttonIdx)
	postBlind(&hand.Players[sbIdx], cfg.SmallBlind)
	postBlind(&hand.Players[bbIdx], cfg.BigBlind)

	firstIdx, ok := nextActorIdx(hand, bbIdx)
	if !ok || countCanAct(hand) < 2 {
		// Blinds put everyone all-in; nothing to bet, run the board out.
		return runOut(hand, now)
	}
	hand.CurrentActor = hand.Players[firstIdx].PlayerID
	hand.Deadline = now.Add(cfg.ActionTimeout)
	return hand, nil
}

// blindSeats returns the small and big blind indexes relative to the
// button. Heads-up the button is the small blind.
func blindSeats(n int, buttonIdx int) (int, int) {
	if n == 2 {
		return buttonIdx, (buttonIdx + 1) % n
	}
	return (buttonIdx + 1) % n, (buttonIdx + 2) % n
}

// postBlind commits a forced blind, short-posting all-in when the stack
// cannot cover it.
func postBlind(p *domain.PlayerState, amount int64) {
	pay := min64(p.Stack, amount)
	p.Stack -= pay
	p.CommittedThisStreet += pay
	p.TotalCommitted += pay
	if p.Stack == 0 {
		p.Status = domain.PlayerStatusAllIn
	}
}

// nextFundedSeatAt returns idx itself when funded, else the next funded
// seat after it.
func nextFundedSeatAt(g domain.Game, idx int) int {
	n := len(g.SeatOrder)
	if n == 0 {
		return idx
	}
	idx = ((idx % n) + n) % n
	if g.Stacks[g.SeatOrder[idx]] > 0 {
		return idx
	}
	return nextFundedSeat(g, idx)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
