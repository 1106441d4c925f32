package engine

import (
	"testing"
	"time"

	"github.com/courtside/holdem-engine/internal/domain"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		SmallBlind:    50,
		BigBlind:      100,
		StartingStack: 10_000,
		ActionTimeout: 30 * time.Second,
	}
}

// testGame builds an in-progress game with the given seat order and a
// default stack per seat. Seat 0 holds the button.
func testGame(players ...string) domain.Game {
	stacks := make(map[string]int64, len(players))
	for _, id := range players {
		stacks[id] = testConfig().StartingStack
	}
	return domain.Game{
		ID:        "game-1",
		Status:    domain.GameStatusInProgress,
		Players:   append([]string(nil), players...),
		SeatOrder: append([]string(nil), players...),
		Stacks:    stacks,
	}
}

func mustDeal(t *testing.T, g domain.Game) domain.Hand {
	t.Helper()
	h, err := Deal(g, g.HandCount+1, testConfig(), domain.NewSeededShuffler(7), testStart)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	h.ID = "hand-1"
	return h
}

func mustApply(t *testing.T, h domain.Hand, playerID string, kind domain.ActionKind, amount int64) domain.Hand {
	t.Helper()
	next, err := Apply(h, playerID, kind, amount, testStart, testConfig().ActionTimeout)
	if err != nil {
		t.Fatalf("apply %s %s %d: %v", playerID, kind, amount, err)
	}
	return next
}

func playerState(t *testing.T, h domain.Hand, playerID string) domain.PlayerState {
	t.Helper()
	idx := h.PlayerIndex(playerID)
	if idx < 0 {
		t.Fatalf("player %s not in hand", playerID)
	}
	return h.Players[idx]
}
