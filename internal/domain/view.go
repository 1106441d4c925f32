package domain

import "time"

// PlayerView is a seat as shown to a viewer. Hole cards appear only for the
// viewer's own seat, or after the hand completed for seats that were shown
// down or voluntarily revealed.
type PlayerView struct {
	PlayerID            string       `json:"player_id"`
	Status              PlayerStatus `json:"status"`
	Stack               int64        `json:"stack"`
	CommittedThisStreet int64        `json:"committed_this_street"`
	TotalCommitted      int64        `json:"total_committed"`
	Hole                []string     `json:"hole,omitempty"`
}

type HandView struct {
	ID           string       `json:"id"`
	GameID       string       `json:"game_id"`
	HandNo       uint64       `json:"hand_no"`
	Status       HandStatus   `json:"status"`
	Street       Street       `json:"street"`
	Community    []string     `json:"community"`
	Players      []PlayerView `json:"players"`
	ButtonIdx    int          `json:"button_idx"`
	CurrentActor string       `json:"current_actor,omitempty"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	CurrentBet   int64        `json:"current_bet"`
	MinRaiseTo   int64        `json:"min_raise_to"`
	Pot          int64        `json:"pot"`
	Pots         []Pot        `json:"pots,omitempty"`
}

type GameView struct {
	ID        string           `json:"id"`
	Status    GameStatus       `json:"status"`
	Players   []string         `json:"players"`
	SeatOrder []string         `json:"seat_order,omitempty"`
	Stacks    map[string]int64 `json:"stacks"`
	ButtonIdx int              `json:"button_idx"`
	HandCount uint64           `json:"hand_count"`
	Preview   bool             `json:"preview"`
	Hand      *HandView        `json:"hand,omitempty"`
}

// View renders the hand for one viewer, stripping the deck and every other
// player's hidden hole cards.
func (h Hand) View(viewerID string) HandView {
	community := make([]string, 0, len(h.Community))
	for _, card := range h.Community {
		community = append(community, card.String())
	}

	players := make([]PlayerView, 0, len(h.Players))
	for _, p := range h.Players {
		view := PlayerView{
			PlayerID:            p.PlayerID,
			Status:              p.Status,
			Stack:               p.Stack,
			CommittedThisStreet: p.CommittedThisStreet,
			TotalCommitted:      p.TotalCommitted,
		}
		if p.PlayerID == viewerID || (h.Status == HandStatusComplete && p.Revealed) {
			view.Hole = p.Hole.Codes()
		}
		players = append(players, view)
	}

	view := HandView{
		ID:           h.ID,
		GameID:       h.GameID,
		HandNo:       h.HandNo,
		Status:       h.Status,
		Street:       h.Street,
		Community:    community,
		Players:      players,
		ButtonIdx:    h.ButtonIdx,
		CurrentActor: h.CurrentActor,
		CurrentBet:   h.CurrentBet,
		MinRaiseTo:   h.MinRaiseTo(),
		Pot:          h.TotalCommitted(),
		Pots:         h.Clone().Pots,
	}
	if h.CurrentActor != "" && !h.Deadline.IsZero() {
		deadline := h.Deadline
		view.Deadline = &deadline
	}
	return view
}

// View renders the public game state for one viewer.
func (g Game) View(hand *Hand, viewerID string) GameView {
	cloned := g.Clone()
	view := GameView{
		ID:        cloned.ID,
		Status:    cloned.Status,
		Players:   cloned.Players,
		SeatOrder: cloned.SeatOrder,
		Stacks:    cloned.Stacks,
		ButtonIdx: cloned.ButtonIdx,
		HandCount: cloned.HandCount,
		Preview:   cloned.Preview,
	}
	if hand != nil {
		handView := hand.View(viewerID)
		view.Hand = &handView
	}
	return view
}
