package domain

import "time"

type HandStatus string

const (
	HandStatusActive   HandStatus = "active"
	HandStatusShowdown HandStatus = "showdown"
	HandStatusComplete HandStatus = "complete"
)

func (s HandStatus) Finished() bool {
	return s == HandStatusComplete
}

type Street string

const (
	StreetPreflop Street = "preflop"
	StreetFlop    Street = "flop"
	StreetTurn    Street = "turn"
	StreetRiver   Street = "river"
)

type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionCheck ActionKind = "check"
	ActionCall  ActionKind = "call"
	ActionBet   ActionKind = "bet"
	ActionRaise ActionKind = "raise"
)

type PlayerStatus string

const (
	PlayerStatusActive PlayerStatus = "active"
	PlayerStatusFolded PlayerStatus = "folded"
	PlayerStatusAllIn  PlayerStatus = "all_in"
)

// PlayerState is one seat's view of the hand in progress. Acted and
// CanRaise track the no-limit reopening rule: a short all-in re-opens the
// duty to respond but not the right to raise.
type PlayerState struct {
	PlayerID            string       `json:"player_id"`
	Status              PlayerStatus `json:"status"`
	Stack               int64        `json:"stack"`
	CommittedThisStreet int64        `json:"committed_this_street"`
	TotalCommitted      int64        `json:"total_committed"`
	Hole                HoleCards    `json:"hole"`
	Acted               bool         `json:"acted"`
	CanRaise            bool         `json:"can_raise"`
	Revealed            bool         `json:"revealed"`
}

func (p PlayerState) InHand() bool {
	return p.Status != PlayerStatusFolded
}

func (p PlayerState) CanAct() bool {
	return p.Status == PlayerStatusActive
}

// Pot is one settlement tier: the main pot or a side pot with a restricted
// eligibility set. Winners is filled at settlement.
type Pot struct {
	Amount   int64    `json:"amount"`
	Eligible []string `json:"eligible"`
	Winners  []string `json:"winners,omitempty"`
	Label    string   `json:"label"`
}

// Hand is one play of a game. Seq is the action sequence number every
// conditional write is keyed on; whichever of a real action or the timeout
// sweep commits first invalidates the other.
type Hand struct {
	ID           string        `json:"id"`
	GameID       string        `json:"game_id"`
	HandNo       uint64        `json:"hand_no"`
	Status       HandStatus    `json:"status"`
	Street       Street        `json:"street"`
	Community    []Card        `json:"community"`
	Players      []PlayerState `json:"players"`
	ButtonIdx    int           `json:"button_idx"`
	CurrentActor string        `json:"current_actor,omitempty"`
	Deadline     time.Time     `json:"deadline"`
	CurrentBet   int64         `json:"current_bet"`
	LastFullRaise int64        `json:"last_full_raise"`
	SmallBlind   int64         `json:"small_blind"`
	BigBlind     int64         `json:"big_blind"`
	Deck         []Card        `json:"deck"`
	Pots         []Pot         `json:"pots,omitempty"`
	Seq          int64         `json:"seq"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
}

// Unfinished reports whether the hand still blocks dealing a new one.
func (h Hand) Unfinished() bool {
	return h.Status == HandStatusActive || h.Status == HandStatusShowdown
}

// MinRaiseTo is the smallest legal raise-to total this street.
func (h Hand) MinRaiseTo() int64 {
	return h.CurrentBet + h.LastFullRaise
}

// PlayerIndex returns the seat index for a player id, or -1.
func (h Hand) PlayerIndex(playerID string) int {
	for i := range h.Players {
		if h.Players[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

// TotalCommitted sums every seat's whole-hand commitment; settlement must
// conserve exactly this amount.
func (h Hand) TotalCommitted() int64 {
	var total int64
	for _, p := range h.Players {
		total += p.TotalCommitted
	}
	return total
}

// Clone deep-copies the hand so transitions work on value state.
func (h Hand) Clone() Hand {
	out := h
	out.Community = append([]Card(nil), h.Community...)
	out.Players = append([]PlayerState(nil), h.Players...)
	out.Deck = append([]Card(nil), h.Deck...)
	out.Pots = make([]Pot, 0, len(h.Pots))
	for _, pot := range h.Pots {
		cloned := pot
		cloned.Eligible = append([]string(nil), pot.Eligible...)
		cloned.Winners = append([]string(nil), pot.Winners...)
		out.Pots = append(out.Pots, cloned)
	}
	if h.EndedAt != nil {
		endedAt := *h.EndedAt
		out.EndedAt = &endedAt
	}
	return out
}

// ActionRecord is an immutable audit entry. The (hand, seq) pair is unique,
// which makes a forced fold racing a real action a natural no-op.
type ActionRecord struct {
	ID       string     `json:"id"`
	HandID   string     `json:"hand_id"`
	Seq      int64      `json:"seq"`
	PlayerID string     `json:"player_id"`
	Kind     ActionKind `json:"kind"`
	Amount   int64      `json:"amount"`
	Street   Street     `json:"street"`
	Forced   bool       `json:"forced"`
	At       time.Time  `json:"at"`
}
