package engine

import (
	cryptorand "crypto/rand"
	"fmt"
	"math/big"

	"github.com/courtside/holdem-engine/internal/domain"
)

// StartGame fixes the seat order as a secure-random permutation of the
// distinct signed-up players and moves the game to in_progress. The caller
// persists the result under a "status is still open" conditional write, so
// of two racing starters exactly one succeeds.
func StartGame(g domain.Game, cfg Config) (domain.Game, error) {
	if g.Status != domain.GameStatusOpen {
		return domain.Game{}, fmt.Errorf("%w: game %s is %s, only open games can start", domain.ErrInvalidState, g.ID, g.Status)
	}

	players := dedupe(g.Players)
	if len(players) < 2 {
		return domain.Game{}, fmt.Errorf("%w: game %s has %d signed-up players, need at least 2", domain.ErrInvalidState, g.ID, len(players))
	}

	next := g.Clone()
	perm, err := securePerm(len(players))
	if err != nil {
		return domain.Game{}, err
	}
	next.SeatOrder = make([]string, len(players))
	for i, j := range perm {
		next.SeatOrder[i] = players[j]
	}

	if next.Stacks == nil {
		next.Stacks = make(map[string]int64, len(players))
	}
	for _, id := range players {
		if _, ok := next.Stacks[id]; !ok {
			next.Stacks[id] = cfg.StartingStack
		}
	}

	next.Status = domain.GameStatusInProgress
	next.ButtonIdx = 0
	return next, nil
}

// CancelGame marks the game cancelled. Terminal states stay terminal.
func CancelGame(g domain.Game) (domain.Game, error) {
	if g.Status.Terminal() {
		return domain.Game{}, fmt.Errorf("%w: game %s is already %s", domain.ErrInvalidState, g.ID, g.Status)
	}
	next := g.Clone()
	next.Status = domain.GameStatusCancelled
	return next, nil
}

// CompleteGame closes out an in-progress game.
func CompleteGame(g domain.Game) (domain.Game, error) {
	if g.Status != domain.GameStatusInProgress {
		return domain.Game{}, fmt.Errorf("%w: game %s is %s, only in-progress games complete", domain.ErrInvalidState, g.ID, g.Status)
	}
	next := g.Clone()
	next.Status = domain.GameStatusComplete
	return next, nil
}

// ApplyHandResult writes a settled hand's stacks back to the game, records
// the hand counter, and rotates the button to the next funded seat.
func ApplyHandResult(g domain.Game, h domain.Hand) (domain.Game, error) {
	if h.Status != domain.HandStatusComplete {
		return domain.Game{}, fmt.Errorf("%w: hand %s is %s, not complete", domain.ErrInvalidState, h.ID, h.Status)
	}
	if h.GameID != g.ID {
		return domain.Game{}, fmt.Errorf("%w: hand %s belongs to game %s, not %s", domain.ErrInvariant, h.ID, h.GameID, g.ID)
	}
	if h.HandNo <= g.HandCount {
		// Already applied; a retry after a lost game write must not
		// rotate the button twice.
		return g.Clone(), nil
	}

	next := g.Clone()
	for _, p := range h.Players {
		next.Stacks[p.PlayerID] = p.Stack
	}
	next.HandCount = h.HandNo
	next.ButtonIdx = nextFundedSeat(next, next.ButtonIdx)
	return next, nil
}

// nextFundedSeat walks the fixed seat order forward to the next player who
// can still post chips; with no funded seats the button stays put.
func nextFundedSeat(g domain.Game, from int) int {
	n := len(g.SeatOrder)
	if n == 0 {
		return from
	}
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if g.Stacks[g.SeatOrder[idx]] > 0 {
			return idx
		}
	}
	return from
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// securePerm draws a Fisher-Yates permutation from crypto/rand; seat order
// must be as unpredictable as the deck.
func securePerm(n int) ([]int, error) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		v, err := cryptorand.Int(cryptorand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, fmt.Errorf("secure permutation: %w", err)
		}
		j := int(v.Int64())
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}
