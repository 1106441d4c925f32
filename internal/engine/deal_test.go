package engine

import (
	"errors"
	"testing"

	"github.com/courtside/holdem-engine/internal/domain"
)

func TestDeal_ThreeHanded(t *testing.T) {
	t.Parallel()

	g := testGame("a", "b", "c")
	h := mustDeal(t, g)

	if h.Status != domain.HandStatusActive {
		t.Fatalf("status = %s, want active", h.Status)
	}
	if h.Street != domain.StreetPreflop {
		t.Fatalf("street = %s, want preflop", h.Street)
	}
	if h.HandNo != 1 || h.Seq != 1 {
		t.Fatalf("hand_no/seq = %d/%d, want 1/1", h.HandNo, h.Seq)
	}
	if h.ButtonIdx != 0 {
		t.Fatalf("button = %d, want 0", h.ButtonIdx)
	}

	// Small blind left of the button, big blind next; action opens after
	// the big blind, which three-handed is the button.
	if got := playerState(t, h, "b").TotalCommitted; got != 50 {
		t.Fatalf("small blind committed %d, want 50", got)
	}
	if got := playerState(t, h, "c").TotalCommitted; got != 100 {
		t.Fatalf("big blind committed %d, want 100", got)
	}
	if h.CurrentActor != "a" {
		t.Fatalf("first actor = %s, want a", h.CurrentActor)
	}
	if h.CurrentBet != 100 || h.LastFullRaise != 100 {
		t.Fatalf("current_bet/last_full_raise = %d/%d, want 100/100", h.CurrentBet, h.LastFullRaise)
	}
	if h.MinRaiseTo() != 200 {
		t.Fatalf("min raise-to = %d, want 200", h.MinRaiseTo())
	}
	if h.Deadline != testStart.Add(testConfig().ActionTimeout) {
		t.Fatalf("deadline = %v, want start+timeout", h.Deadline)
	}

	// Two unique hole cards each, and the deck is what remains.
	seen := make(map[domain.Card]struct{})
	for _, p := range h.Players {
		for _, card := range p.Hole {
			if _, dup := seen[card]; dup {
				t.Fatalf("card %s dealt twice", card)
			}
			seen[card] = struct{}{}
		}
	}
	if len(h.Deck) != 52-6 {
		t.Fatalf("deck has %d cards, want 46", len(h.Deck))
	}
	for _, card := range h.Deck {
		if _, dup := seen[card]; dup {
			t.Fatalf("card %s both dealt and in deck", card)
		}
	}
}

func TestDeal_HeadsUpButtonPostsSmallBlindAndActsFirst(t *testing.T) {
	t.Parallel()

	g := testGame("a", "b")
	h := mustDeal(t, g)

	if got := playerState(t, h, "a").TotalCommitted; got != 50 {
		t.Fatalf("button committed %d, want small blind 50", got)
	}
	if got := playerState(t, h, "b").TotalCommitted; got != 100 {
		t.Fatalf("non-button committed %d, want big blind 100", got)
	}
	if h.CurrentActor != "a" {
		t.Fatalf("first actor = %s, want button a", h.CurrentActor)
	}
}

func TestDeal_ZeroStackPlayersSitOut(t *testing.T) {
	t.Parallel()

	g := testGame("a", "b", "c")
	g.Stacks["b"] = 0
	h := mustDeal(t, g)

	if len(h.Players) != 2 {
		t.Fatalf("%d players dealt in, want 2", len(h.Players))
	}
	if h.PlayerIndex("b") >= 0 {
		t.Fatal("busted player b was dealt in")
	}
}

func TestDeal_ShortBlindPostsAllIn(t *testing.T) {
	t.Parallel()

	g := testGame("a", "b", "c")
	g.Stacks["c"] = 60
	h := mustDeal(t, g)

	bb := playerState(t, h, "c")
	if bb.Status != domain.PlayerStatusAllIn {
		t.Fatalf("short big blind status = %s, want all_in", bb.Status)
	}
	if bb.TotalCommitted != 60 || bb.Stack != 0 {
		t.Fatalf("short big blind committed %d stack %d, want 60/0", bb.TotalCommitted, bb.Stack)
	}
	// The table still owes a response to the full big blind amount.
	if h.CurrentBet != 100 {
		t.Fatalf("current_bet = %d, want 100", h.CurrentBet)
	}
}

func TestDeal_BlindsAllInRunsBoardOut(t *testing.T) {
	t.Parallel()

	g := testGame("a", "b")
	g.Stacks["a"] = 30
	g.Stacks["b"] = 80
	h := mustDeal(t, g)

	if h.Status != domain.HandStatusShowdown {
		t.Fatalf("status = %s, want showdown", h.Status)
	}
	if len(h.Community) != 5 {
		t.Fatalf("community has %d cards, want 5", len(h.Community))
	}
	if h.CurrentActor != "" {
		t.Fatalf("current actor = %q, want none", h.CurrentActor)
	}
}

func TestDeal_RequiresInProgress(t *testing.T) {
	t.Parallel()

	g := testGame("a", "b")
	g.Status = domain.GameStatusOpen
	_, err := Deal(g, 1, testConfig(), domain.NewSeededShuffler(7), testStart)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestDeal_RequiresTwoFundedPlayers(t *testing.T) {
	t.Parallel()

	g := testGame("a", "b", "c")
	g.Stacks["b"] = 0
	g.Stacks["c"] = 0
	_, err := Deal(g, 1, testConfig(), domain.NewSeededShuffler(7), testStart)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestDeal_ButtonSkipsBustedSeat(t *testing.T) {
	t.Parallel()

	g := testGame("a", "b", "c")
	g.ButtonIdx = 1
	g.Stacks["b"] = 0
	h := mustDeal(t, g)

	// Seat 1 is busted, so the button lands on seat 2 ("c").
	if got := h.Players[h.ButtonIdx].PlayerID; got != "c" {
		t.Fatalf("button player = %s, want c", got)
	}
}
