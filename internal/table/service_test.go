package table

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/courtside/holdem-engine/internal/domain"
	"github.com/courtside/holdem-engine/internal/engine"
	"github.com/courtside/holdem-engine/internal/store"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testConfig() engine.Config {
	return engine.Config{
		SmallBlind:    50,
		BigBlind:      100,
		StartingStack: 10_000,
		ActionTimeout: 30 * time.Second,
	}
}

// newTestService wires the service to an in-memory store with a seeded
// shuffler and a controllable clock.
func newTestService(t *testing.T) (*Service, store.Repository, *fakeClock) {
	t.Helper()
	repo := store.NewMemoryRepository()
	clk := &fakeClock{now: testStart}
	svc := New(repo, testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.Shuffler = domain.NewSeededShuffler(7)
	svc.Now = func() time.Time { return clk.now }
	return svc, repo, clk
}

// seedGame stores an in-progress game with a fixed seat order, bypassing
// the random seating so tests know who the button is.
func seedGame(t *testing.T, repo store.Repository, players ...string) domain.Game {
	t.Helper()
	stacks := make(map[string]int64, len(players))
	for _, id := range players {
		stacks[id] = testConfig().StartingStack
	}
	g := domain.Game{
		ID:        "game-1",
		Status:    domain.GameStatusInProgress,
		Players:   append([]string(nil), players...),
		SeatOrder: append([]string(nil), players...),
		Stacks:    stacks,
		Version:   1,
		CreatedAt: testStart,
	}
	require.NoError(t, repo.CreateGame(context.Background(), g))
	return g
}

func TestService_CreateAndStartGame(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	g, err := svc.CreateGame(ctx, []string{"a", "b", "c"}, false)
	require.NoError(t, err)
	require.Equal(t, domain.GameStatusOpen, g.Status)
	require.Equal(t, int64(1), g.Version)

	started, err := svc.StartGame(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, domain.GameStatusInProgress, started.Status)
	require.Len(t, started.SeatOrder, 3)
	require.Equal(t, int64(2), started.Version)

	// A second start finds the game no longer open.
	_, err = svc.StartGame(ctx, g.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_DealIsIdempotentPerUnfinishedHand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	seedGame(t, repo, "a", "b")

	hand, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)
	require.Equal(t, domain.HandStatusActive, hand.Status)
	require.Equal(t, uint64(1), hand.HandNo)

	// Retrying surfaces the existing hand rather than dealing a second one.
	again, err := svc.DealHand(ctx, "game-1")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	require.Equal(t, hand.ID, again.ID)
}

func TestService_FoldedHandSettlesAndRotatesButton(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	seedGame(t, repo, "a", "b")

	hand, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)
	// Heads-up the button posts the small blind and opens.
	require.Equal(t, "a", hand.CurrentActor)

	done, err := svc.SubmitAction(ctx, hand.ID, "a", domain.ActionFold, 0)
	require.NoError(t, err)
	require.Equal(t, domain.HandStatusComplete, done.Status)

	g, err := repo.GetGame(ctx, "game-1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), g.HandCount)
	require.Equal(t, 1, g.ButtonIdx)
	require.Equal(t, int64(9_950), g.Stacks["a"])
	require.Equal(t, int64(10_050), g.Stacks["b"])

	// The next deal is a fresh hand with the button passed on.
	next, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)
	require.Equal(t, uint64(2), next.HandNo)
	require.Equal(t, "b", next.Players[next.ButtonIdx].PlayerID)
}

func TestService_CheckedDownHandReachesShowdown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	seedGame(t, repo, "a", "b")

	hand, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)

	hand, err = svc.SubmitAction(ctx, hand.ID, "a", domain.ActionCall, 0)
	require.NoError(t, err)
	hand, err = svc.SubmitAction(ctx, hand.ID, "b", domain.ActionCheck, 0)
	require.NoError(t, err)

	for hand.Status == domain.HandStatusActive {
		hand, err = svc.SubmitAction(ctx, hand.ID, hand.CurrentActor, domain.ActionCheck, 0)
		require.NoError(t, err)
	}
	require.Equal(t, domain.HandStatusComplete, hand.Status)
	require.Len(t, hand.Community, 5)

	// Chips are conserved and written back to the game.
	g, err := repo.GetGame(ctx, "game-1")
	require.NoError(t, err)
	require.Equal(t, int64(20_000), g.Stacks["a"]+g.Stacks["b"])
	require.Equal(t, uint64(1), g.HandCount)

	// Every action landed in the audit trail exactly once.
	records, err := svc.HandActions(ctx, hand.ID)
	require.NoError(t, err)
	require.Len(t, records, 8)
	for i, rec := range records {
		require.Equal(t, int64(i+2), rec.Seq)
		require.False(t, rec.Forced)
	}
}

func TestService_StaleWriteLosesRace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	seedGame(t, repo, "a", "b")

	dealt, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)

	stale, err := repo.GetHand(ctx, dealt.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAction(ctx, dealt.ID, "a", domain.ActionCall, 0)
	require.NoError(t, err)

	// A forced fold computed from the pre-action snapshot must not land.
	_, err = svc.applyAction(ctx, stale, "a", domain.ActionFold, 0, true)
	require.ErrorIs(t, err, domain.ErrConflict)

	current, err := repo.GetHand(ctx, dealt.ID)
	require.NoError(t, err)
	require.Equal(t, domain.HandStatusActive, current.Status)
	require.Equal(t, domain.PlayerStatusActive, current.Players[current.PlayerIndex("a")].Status)
}

func TestService_SweepForcesTimedOutActor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, clk := newTestService(t)
	seedGame(t, repo, "a", "b")

	hand, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)
	require.Equal(t, "a", hand.CurrentActor)

	// Before the deadline the sweep is a no-op.
	applied, err := svc.SweepTimeouts(ctx)
	require.NoError(t, err)
	require.Zero(t, applied)

	clk.Advance(testConfig().ActionTimeout + time.Second)

	// The opener owes the big blind, so the timeout folds them, ending
	// the hand heads-up.
	applied, err = svc.SweepTimeouts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	done, err := repo.GetHand(ctx, hand.ID)
	require.NoError(t, err)
	require.Equal(t, domain.HandStatusComplete, done.Status)

	records, err := svc.HandActions(ctx, hand.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Forced)
	require.Equal(t, domain.ActionFold, records[0].Kind)

	// Re-running the sweep finds nothing due.
	applied, err = svc.SweepTimeouts(ctx)
	require.NoError(t, err)
	require.Zero(t, applied)
}

func TestService_SweepSettlesParkedShowdown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	g := seedGame(t, repo, "a", "b")

	parked := domain.Hand{
		ID:     "hand-parked",
		GameID: g.ID,
		HandNo: 1,
		Status: domain.HandStatusShowdown,
		Street: domain.StreetRiver,
		Community: []domain.Card{
			domain.MustParseCard("Ah"), domain.MustParseCard("Kh"), domain.MustParseCard("Qh"),
			domain.MustParseCard("2c"), domain.MustParseCard("7d"),
		},
		Players: []domain.PlayerState{
			{PlayerID: "a", Status: domain.PlayerStatusAllIn, TotalCommitted: 500, Hole: domain.HoleCards{domain.MustParseCard("As"), domain.MustParseCard("Ad")}},
			{PlayerID: "b", Status: domain.PlayerStatusAllIn, TotalCommitted: 500, Hole: domain.HoleCards{domain.MustParseCard("3s"), domain.MustParseCard("4d")}},
		},
		Seq: 5,
	}
	require.NoError(t, repo.CreateHand(ctx, parked))

	applied, err := svc.SweepTimeouts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	done, err := repo.GetHand(ctx, "hand-parked")
	require.NoError(t, err)
	require.Equal(t, domain.HandStatusComplete, done.Status)
	require.Equal(t, int64(1000), done.Players[done.PlayerIndex("a")].Stack)

	g2, err := repo.GetGame(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), g2.Stacks["a"])
	require.Equal(t, int64(0), g2.Stacks["b"])
}

func TestService_RevealAfterCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	seedGame(t, repo, "a", "b")

	hand, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)

	// Reveal is display-only and gated on completion.
	_, err = svc.RevealCards(ctx, hand.ID, "a")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = svc.SubmitAction(ctx, hand.ID, "a", domain.ActionFold, 0)
	require.NoError(t, err)

	revealed, err := svc.RevealCards(ctx, hand.ID, "a")
	require.NoError(t, err)
	require.True(t, revealed.Players[revealed.PlayerIndex("a")].Revealed)

	view := revealed.View("")
	require.NotEmpty(t, view.Players[revealed.PlayerIndex("a")].Hole)
	require.Empty(t, view.Players[revealed.PlayerIndex("b")].Hole)
}

func TestService_GameStateHidesOpponentHoleCards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	seedGame(t, repo, "a", "b")

	_, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)

	view, err := svc.GameState(ctx, "game-1", "a")
	require.NoError(t, err)
	require.NotNil(t, view.Hand)

	for _, p := range view.Hand.Players {
		if p.PlayerID == "a" {
			require.Len(t, p.Hole, 2)
		} else {
			require.Empty(t, p.Hole)
		}
	}
	// The deck never leaves the engine.
	require.Len(t, view.Hand.Community, 0)
}

func TestService_GameHandsListsHistoryInDealOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	seedGame(t, repo, "a", "b")

	first, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)
	_, err = svc.SubmitAction(ctx, first.ID, "a", domain.ActionFold, 0)
	require.NoError(t, err)

	second, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)

	views, err := svc.GameHands(ctx, "game-1", "")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, first.ID, views[0].ID)
	require.Equal(t, second.ID, views[1].ID)
	require.Equal(t, domain.HandStatusComplete, views[0].Status)
	require.Equal(t, domain.HandStatusActive, views[1].Status)
}

func TestService_GameStateFallsBackToLastHand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	seedGame(t, repo, "a", "b")

	hand, err := svc.DealHand(ctx, "game-1")
	require.NoError(t, err)
	_, err = svc.SubmitAction(ctx, hand.ID, "a", domain.ActionFold, 0)
	require.NoError(t, err)

	view, err := svc.GameState(ctx, "game-1", "b")
	require.NoError(t, err)
	require.NotNil(t, view.Hand)
	require.Equal(t, hand.ID, view.Hand.ID)
	require.Equal(t, domain.HandStatusComplete, view.Hand.Status)
}
