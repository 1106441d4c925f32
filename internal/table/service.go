// Package table orchestrates the engine against the store. Every
// operation follows the same shape: read current state, compute the next
// state with a pure engine transition, and persist it under a conditional
// write. A write that matches zero rows means another caller won the race;
// depending on who lost, that is either surfaced (a player's stale action)
// or swallowed (the timeout sweep losing to a real action).
package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/holdem-engine/internal/domain"
	"github.com/courtside/holdem-engine/internal/engine"
	"github.com/courtside/holdem-engine/internal/store"
)

const gameWriteAttempts = 3

type Service struct {
	Repo     store.Repository
	Config   engine.Config
	Shuffler domain.Shuffler
	Log      *slog.Logger
	Now      func() time.Time
}

func New(repo store.Repository, cfg engine.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		Repo:     repo,
		Config:   cfg,
		Shuffler: domain.NewCryptoShuffler(),
		Log:      log,
		Now:      time.Now,
	}
}

// CreateGame registers a new open table with its signed-up players. The
// signup flow itself lives outside the engine; this is its hand-off point.
func (s *Service) CreateGame(ctx context.Context, players []string, preview bool) (domain.Game, error) {
	g := domain.Game{
		ID:        uuid.NewString(),
		Status:    domain.GameStatusOpen,
		Players:   append([]string(nil), players...),
		Stacks:    make(map[string]int64),
		Version:   1,
		CreatedAt: s.Now().UTC(),
	}
	g.Preview = preview
	if err := s.Repo.CreateGame(ctx, g); err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

// StartGame fixes the seat order and moves the game to in_progress.
// Exactly one of two racing starters succeeds; the other gets ErrConflict
// and can read the seat order the winner set.
func (s *Service) StartGame(ctx context.Context, gameID string) (domain.Game, error) {
	g, err := s.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}

	next, err := engine.StartGame(g, s.Config)
	if err != nil {
		return domain.Game{}, err
	}
	next.Version = g.Version + 1

	if err := s.Repo.UpdateGame(ctx, next, g.Version); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Game{}, fmt.Errorf("%w: game %s was started by another caller", domain.ErrConflict, gameID)
		}
		return domain.Game{}, err
	}

	s.Log.Info("game started", "game_id", gameID, "seats", len(next.SeatOrder))
	return next, nil
}

// CancelGame terminates a game; no further hands may be dealt.
func (s *Service) CancelGame(ctx context.Context, gameID string) (domain.Game, error) {
	return s.transitionGame(ctx, gameID, engine.CancelGame)
}

// CompleteGame closes out an in-progress game.
func (s *Service) CompleteGame(ctx context.Context, gameID string) (domain.Game, error) {
	return s.transitionGame(ctx, gameID, engine.CompleteGame)
}

func (s *Service) transitionGame(ctx context.Context, gameID string, fn func(domain.Game) (domain.Game, error)) (domain.Game, error) {
	g, err := s.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	next, err := fn(g)
	if err != nil {
		return domain.Game{}, err
	}
	next.Version = g.Version + 1
	if err := s.Repo.UpdateGame(ctx, next, g.Version); err != nil {
		return domain.Game{}, err
	}
	return next, nil
}

// DealHand starts the next hand of an in-progress game. While a hand is
// unfinished the retry is answered with that hand and ErrInvalidState, so
// a double-click never deals twice.
func (s *Service) DealHand(ctx context.Context, gameID string) (domain.Hand, error) {
	g, err := s.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Hand{}, err
	}

	if existing, ok, err := s.Repo.UnfinishedHand(ctx, gameID); err != nil {
		return domain.Hand{}, err
	} else if ok {
		return existing, fmt.Errorf("%w: game %s already has unfinished hand %s", domain.ErrInvalidState, gameID, existing.ID)
	}

	now := s.Now().UTC()
	hand, err := engine.Deal(g, g.HandCount+1, s.Config, s.Shuffler, now)
	if err != nil {
		return domain.Hand{}, err
	}
	hand.ID = uuid.NewString()

	// Blinds can put the whole table all-in; the board is already run out
	// and the hand settles before it is ever persisted as active.
	if hand.Status == domain.HandStatusShowdown {
		hand, err = engine.Settle(hand, now)
		if err != nil {
			return domain.Hand{}, err
		}
	}

	if err := s.Repo.CreateHand(ctx, hand); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if existing, ok, readErr := s.Repo.UnfinishedHand(ctx, gameID); readErr == nil && ok {
				return existing, fmt.Errorf("%w: game %s already has unfinished hand %s", domain.ErrInvalidState, gameID, existing.ID)
			}
		}
		return domain.Hand{}, err
	}

	if hand.Status == domain.HandStatusComplete {
		if err := s.applyHandResult(ctx, hand); err != nil {
			return domain.Hand{}, err
		}
	}

	s.Log.Info("hand dealt",
		"game_id", gameID,
		"hand_id", hand.ID,
		"hand_no", hand.HandNo,
		"players", len(hand.Players),
		"actor", hand.CurrentActor,
	)
	return hand, nil
}

// SubmitAction applies one player action. The conditional write is keyed
// on the action sequence number read before the transition: if the hand
// moved on underneath the caller, they get ErrConflict and should refresh.
func (s *Service) SubmitAction(ctx context.Context, handID string, playerID string, kind domain.ActionKind, amount int64) (domain.Hand, error) {
	h, err := s.Repo.GetHand(ctx, handID)
	if err != nil {
		return domain.Hand{}, err
	}
	return s.applyAction(ctx, h, playerID, kind, amount, false)
}

func (s *Service) applyAction(ctx context.Context, h domain.Hand, playerID string, kind domain.ActionKind, amount int64, forced bool) (domain.Hand, error) {
	now := s.Now().UTC()
	expect := h.Seq

	next, err := engine.Apply(h, playerID, kind, amount, now, s.Config.ActionTimeout)
	if err != nil {
		return domain.Hand{}, err
	}
	if next.Status == domain.HandStatusShowdown {
		next, err = engine.Settle(next, now)
		if err != nil {
			return domain.Hand{}, err
		}
	}

	if err := s.Repo.UpdateHand(ctx, next, expect); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Hand{}, fmt.Errorf("%w: hand %s already moved on, refresh state", domain.ErrConflict, h.ID)
		}
		return domain.Hand{}, err
	}

	record := domain.ActionRecord{
		ID:       uuid.NewString(),
		HandID:   h.ID,
		Seq:      expect + 1,
		PlayerID: playerID,
		Kind:     kind,
		Amount:   amount,
		Street:   h.Street,
		Forced:   forced,
		At:       now,
	}
	if err := s.Repo.AppendAction(ctx, record); err != nil && !errors.Is(err, domain.ErrConflict) {
		return domain.Hand{}, err
	}

	if next.Status == domain.HandStatusComplete {
		if err := s.applyHandResult(ctx, next); err != nil {
			return domain.Hand{}, err
		}
	}

	s.Log.Info("action applied",
		"hand_id", h.ID,
		"player_id", playerID,
		"kind", kind,
		"amount", amount,
		"forced", forced,
		"street", next.Street,
		"status", next.Status,
	)
	return next, nil
}

// SweepTimeouts is the externally ticked turn clock: it forces a check or
// fold for every expired actor and settles hands parked at showdown. It is
// idempotent and safe to run concurrently with real actions — losing a
// race is success-elsewhere, not an error.
func (s *Service) SweepTimeouts(ctx context.Context) (int, error) {
	now := s.Now().UTC()
	due, err := s.Repo.DueHands(ctx, now)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, h := range due {
		if h.Status == domain.HandStatusShowdown {
			if err := s.settleDue(ctx, h); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					continue
				}
				return applied, err
			}
			applied++
			continue
		}

		kind, err := engine.ForcedAction(h)
		if err != nil {
			// The hand changed between scan and decision; skip it.
			continue
		}
		if _, err := s.applyAction(ctx, h, h.CurrentActor, kind, 0, true); err != nil {
			if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotYourTurn) {
				s.Log.Debug("timeout sweep lost race", "hand_id", h.ID)
				continue
			}
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (s *Service) settleDue(ctx context.Context, h domain.Hand) error {
	now := s.Now().UTC()
	expect := h.Seq
	next, err := engine.Settle(h, now)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateHand(ctx, next, expect); err != nil {
		return err
	}
	return s.applyHandResult(ctx, next)
}

// RevealCards flips a player's own hole cards face-up in the history of a
// completed hand.
func (s *Service) RevealCards(ctx context.Context, handID string, playerID string) (domain.Hand, error) {
	h, err := s.Repo.GetHand(ctx, handID)
	if err != nil {
		return domain.Hand{}, err
	}
	next, err := engine.Reveal(h, playerID)
	if err != nil {
		return domain.Hand{}, err
	}
	if err := s.Repo.UpdateHand(ctx, next, h.Seq); err != nil {
		return domain.Hand{}, err
	}
	return next, nil
}

// GameState returns the public view for one viewer: the current hand if
// one is unfinished, otherwise the most recently completed hand.
func (s *Service) GameState(ctx context.Context, gameID string, viewerID string) (domain.GameView, error) {
	g, err := s.Repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.GameView{}, err
	}

	hand, ok, err := s.Repo.UnfinishedHand(ctx, gameID)
	if err != nil {
		return domain.GameView{}, err
	}
	if !ok {
		hands, err := s.Repo.ListHands(ctx, gameID)
		if err != nil {
			return domain.GameView{}, err
		}
		if len(hands) > 0 {
			hand, ok = hands[len(hands)-1], true
		}
	}

	if !ok {
		return g.View(nil, viewerID), nil
	}
	return g.View(&hand, viewerID), nil
}

// GameHands lists a game's hand history in deal order, rendered for one
// viewer.
func (s *Service) GameHands(ctx context.Context, gameID string, viewerID string) ([]domain.HandView, error) {
	if _, err := s.Repo.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	hands, err := s.Repo.ListHands(ctx, gameID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.HandView, 0, len(hands))
	for _, h := range hands {
		views = append(views, h.View(viewerID))
	}
	return views, nil
}

// HandActions returns the append-only audit trail for a hand.
func (s *Service) HandActions(ctx context.Context, handID string) ([]domain.ActionRecord, error) {
	if _, err := s.Repo.GetHand(ctx, handID); err != nil {
		return nil, err
	}
	return s.Repo.ListActions(ctx, handID)
}

// applyHandResult writes settled stacks back to the game and rotates the
// button, retrying around concurrent game writes. The engine transition is
// idempotent per hand number, so a retry can never rotate twice.
func (s *Service) applyHandResult(ctx context.Context, h domain.Hand) error {
	var lastErr error
	for attempt := 0; attempt < gameWriteAttempts; attempt++ {
		g, err := s.Repo.GetGame(ctx, h.GameID)
		if err != nil {
			return err
		}
		next, err := engine.ApplyHandResult(g, h)
		if err != nil {
			return err
		}
		if next.HandCount == g.HandCount && next.Version == g.Version {
			// Already applied by a concurrent writer.
			return nil
		}
		next.Version = g.Version + 1
		if err := s.Repo.UpdateGame(ctx, next, g.Version); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("apply hand result for hand %s: %w", h.ID, lastErr)
}
