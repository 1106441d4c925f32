// Package store persists games, hands and the action audit log. Every
// state transition goes through a conditional write: an update names the
// version (games) or action sequence number (hands) it expects, and a
// write that matches zero rows surfaces domain.ErrConflict — the caller
// lost a race and must re-read or discard, never overwrite.
package store

import (
	"context"
	"time"

	"github.com/courtside/holdem-engine/internal/domain"
)

type Repository interface {
	CreateGame(ctx context.Context, g domain.Game) error
	GetGame(ctx context.Context, id string) (domain.Game, error)
	// UpdateGame persists g only if the stored version still equals
	// expectVersion. g.Version must already be advanced past it.
	UpdateGame(ctx context.Context, g domain.Game, expectVersion int64) error

	// CreateHand fails with domain.ErrConflict when the game already has
	// an unfinished (active or showdown) hand.
	CreateHand(ctx context.Context, h domain.Hand) error
	GetHand(ctx context.Context, id string) (domain.Hand, error)
	UnfinishedHand(ctx context.Context, gameID string) (domain.Hand, bool, error)
	// UpdateHand persists h only if the stored seq still equals expectSeq.
	UpdateHand(ctx context.Context, h domain.Hand, expectSeq int64) error
	ListHands(ctx context.Context, gameID string) ([]domain.Hand, error)
	// DueHands returns active hands whose actor deadline has passed, plus
	// any hand parked at showdown awaiting settlement.
	DueHands(ctx context.Context, now time.Time) ([]domain.Hand, error)

	// AppendAction is append-only; a duplicate (hand, seq) pair fails
	// with domain.ErrConflict, which makes replayed forced folds no-ops.
	AppendAction(ctx context.Context, rec domain.ActionRecord) error
	ListActions(ctx context.Context, handID string) ([]domain.ActionRecord, error)
}
