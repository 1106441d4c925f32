package domain

import "time"

// GameStatus is the table lifecycle: open -> in_progress -> complete or
// cancelled. Both end states are terminal.
type GameStatus string

const (
	GameStatusOpen       GameStatus = "open"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusComplete   GameStatus = "complete"
	GameStatusCancelled  GameStatus = "cancelled"
)

func (s GameStatus) Terminal() bool {
	return s == GameStatusComplete || s == GameStatusCancelled
}

// Game is one table. Players collects signups while the game is open;
// SeatOrder is the secure-random permutation fixed exactly once at start.
// ButtonIdx indexes SeatOrder and persists so restarts resume rotation.
type Game struct {
	ID        string           `json:"id"`
	Status    GameStatus       `json:"status"`
	Players   []string         `json:"players"`
	SeatOrder []string         `json:"seat_order,omitempty"`
	Stacks    map[string]int64 `json:"stacks"`
	ButtonIdx int              `json:"button_idx"`
	HandCount uint64           `json:"hand_count"`
	Preview   bool             `json:"preview"`
	Version   int64            `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
}

// Seated reports whether the player is part of the fixed seat order.
func (g Game) Seated(playerID string) bool {
	for _, id := range g.SeatOrder {
		if id == playerID {
			return true
		}
	}
	return false
}

// Clone deep-copies the game so pure transitions never alias stored state.
func (g Game) Clone() Game {
	out := g
	out.Players = append([]string(nil), g.Players...)
	out.SeatOrder = append([]string(nil), g.SeatOrder...)
	if g.Stacks != nil {
		out.Stacks = make(map[string]int64, len(g.Stacks))
		for id, stack := range g.Stacks {
			out.Stacks[id] = stack
		}
	}
	return out
}
