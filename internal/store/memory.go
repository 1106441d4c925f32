package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/courtside/holdem-engine/internal/domain"
)

// memoryRepository is the in-process Repository used by tests and local
// runs. It honors the same compare-and-swap contract as Postgres.
type memoryRepository struct {
	mu sync.RWMutex

	games   map[string]domain.Game
	hands   map[string]domain.Hand
	actions map[string][]domain.ActionRecord
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		games:   make(map[string]domain.Game),
		hands:   make(map[string]domain.Hand),
		actions: make(map[string][]domain.ActionRecord),
	}
}

func (r *memoryRepository) CreateGame(_ context.Context, g domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[g.ID]; exists {
		return fmt.Errorf("%w: game %s already exists", domain.ErrConflict, g.ID)
	}
	r.games[g.ID] = g.Clone()
	return nil
}

func (r *memoryRepository) GetGame(_ context.Context, id string) (domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return domain.Game{}, fmt.Errorf("%w: game %s", domain.ErrNotFound, id)
	}
	return g.Clone(), nil
}

func (r *memoryRepository) UpdateGame(_ context.Context, g domain.Game, expectVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.games[g.ID]
	if !ok || current.Version != expectVersion {
		return fmt.Errorf("%w: game %s version %d no longer current", domain.ErrConflict, g.ID, expectVersion)
	}
	r.games[g.ID] = g.Clone()
	return nil
}

func (r *memoryRepository) CreateHand(_ context.Context, h domain.Hand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.hands[h.ID]; exists {
		return fmt.Errorf("%w: hand %s already exists", domain.ErrConflict, h.ID)
	}
	for _, existing := range r.hands {
		if existing.GameID == h.GameID && existing.Unfinished() {
			return fmt.Errorf("%w: game %s already has unfinished hand %s", domain.ErrConflict, h.GameID, existing.ID)
		}
	}
	r.hands[h.ID] = h.Clone()
	return nil
}

func (r *memoryRepository) GetHand(_ context.Context, id string) (domain.Hand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hands[id]
	if !ok {
		return domain.Hand{}, fmt.Errorf("%w: hand %s", domain.ErrNotFound, id)
	}
	return h.Clone(), nil
}

func (r *memoryRepository) UnfinishedHand(_ context.Context, gameID string) (domain.Hand, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.hands {
		if h.GameID == gameID && h.Unfinished() {
			return h.Clone(), true, nil
		}
	}
	return domain.Hand{}, false, nil
}

func (r *memoryRepository) UpdateHand(_ context.Context, h domain.Hand, expectSeq int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.hands[h.ID]
	if !ok || current.Seq != expectSeq {
		return fmt.Errorf("%w: hand %s seq %d no longer current", domain.ErrConflict, h.ID, expectSeq)
	}
	r.hands[h.ID] = h.Clone()
	return nil
}

func (r *memoryRepository) ListHands(_ context.Context, gameID string) ([]domain.Hand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Hand, 0, 8)
	for _, h := range r.hands {
		if h.GameID == gameID {
			out = append(out, h.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HandNo == out[j].HandNo {
			return out[i].ID < out[j].ID
		}
		return out[i].HandNo < out[j].HandNo
	})
	return out, nil
}

func (r *memoryRepository) DueHands(_ context.Context, now time.Time) ([]domain.Hand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Hand, 0, 4)
	for _, h := range r.hands {
		switch h.Status {
		case domain.HandStatusActive:
			if !h.Deadline.IsZero() && !h.Deadline.After(now) {
				out = append(out, h.Clone())
			}
		case domain.HandStatusShowdown:
			out = append(out, h.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepository) AppendAction(_ context.Context, rec domain.ActionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.actions[rec.HandID] {
		if existing.Seq == rec.Seq {
			return fmt.Errorf("%w: hand %s already has action at seq %d", domain.ErrConflict, rec.HandID, rec.Seq)
		}
	}
	r.actions[rec.HandID] = append(r.actions[rec.HandID], rec)
	return nil
}

func (r *memoryRepository) ListActions(_ context.Context, handID string) ([]domain.ActionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]domain.ActionRecord(nil), r.actions[handID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
