package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/courtside/holdem-engine/internal/domain"
)

// postgresRepository persists state as JSONB documents with the CAS
// columns (status, version, seq, deadline) lifted out for the conditional
// updates and the sweep scan.
type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateGame(ctx context.Context, g domain.Game) error {
	state, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	const q = `
INSERT INTO games (id, status, version, state)
VALUES ($1,$2,$3,$4)
`
	_, err = r.db.ExecContext(ctx, q, g.ID, string(g.Status), g.Version, state)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: game %s already exists", domain.ErrConflict, g.ID)
	}
	return err
}

func (r *postgresRepository) GetGame(ctx context.Context, id string) (domain.Game, error) {
	const q = `SELECT state FROM games WHERE id = $1`
	var raw []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, fmt.Errorf("%w: game %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Game{}, err
	}
	var g domain.Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return domain.Game{}, fmt.Errorf("unmarshal game %s: %w", id, err)
	}
	return g, nil
}

func (r *postgresRepository) UpdateGame(ctx context.Context, g domain.Game, expectVersion int64) error {
	state, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	const q = `
UPDATE games
SET status = $3, version = $4, state = $5, updated_at = now()
WHERE id = $1 AND version = $2
`
	result, err := r.db.ExecContext(ctx, q, g.ID, expectVersion, string(g.Status), g.Version, state)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: game %s version %d no longer current", domain.ErrConflict, g.ID, expectVersion)
	}
	return nil
}

func (r *postgresRepository) CreateHand(ctx context.Context, h domain.Hand) error {
	state, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal hand: %w", err)
	}
	const q = `
INSERT INTO hands (id, game_id, hand_no, status, seq, deadline, state)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err = r.db.ExecContext(ctx, q,
		h.ID, h.GameID, h.HandNo, string(h.Status), h.Seq, nullableTime(h.Deadline), state)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: game %s already has an unfinished hand", domain.ErrConflict, h.GameID)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: game %s", domain.ErrNotFound, h.GameID)
	}
	return err
}

func (r *postgresRepository) GetHand(ctx context.Context, id string) (domain.Hand, error) {
	const q = `SELECT state FROM hands WHERE id = $1`
	var raw []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hand{}, fmt.Errorf("%w: hand %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Hand{}, err
	}
	return unmarshalHand(raw)
}

func (r *postgresRepository) UnfinishedHand(ctx context.Context, gameID string) (domain.Hand, bool, error) {
	const q = `
SELECT state FROM hands
WHERE game_id = $1 AND status IN ('active', 'showdown')
`
	var raw []byte
	err := r.db.QueryRowContext(ctx, q, gameID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hand{}, false, nil
	}
	if err != nil {
		return domain.Hand{}, false, err
	}
	h, err := unmarshalHand(raw)
	if err != nil {
		return domain.Hand{}, false, err
	}
	return h, true, nil
}

func (r *postgresRepository) UpdateHand(ctx context.Context, h domain.Hand, expectSeq int64) error {
	state, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal hand: %w", err)
	}
	const q = `
UPDATE hands
SET status = $3, seq = $4, deadline = $5, state = $6, updated_at = now()
WHERE id = $1 AND seq = $2
`
	result, err := r.db.ExecContext(ctx, q,
		h.ID, expectSeq, string(h.Status), h.Seq, nullableTime(h.Deadline), state)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: hand %s seq %d no longer current", domain.ErrConflict, h.ID, expectSeq)
	}
	return nil
}

func (r *postgresRepository) ListHands(ctx context.Context, gameID string) ([]domain.Hand, error) {
	const q = `
SELECT state FROM hands
WHERE game_id = $1
ORDER BY hand_no ASC, id ASC
`
	rows, err := r.db.QueryContext(ctx, q, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Hand, 0, 32)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		h, err := unmarshalHand(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *postgresRepository) DueHands(ctx context.Context, now time.Time) ([]domain.Hand, error) {
	const q = `
SELECT state FROM hands
WHERE (status = 'active' AND deadline IS NOT NULL AND deadline <= $1)
   OR status = 'showdown'
ORDER BY id ASC
`
	rows, err := r.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Hand, 0, 8)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		h, err := unmarshalHand(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *postgresRepository) AppendAction(ctx context.Context, rec domain.ActionRecord) error {
	const q = `
INSERT INTO hand_actions (action_id, hand_id, seq, player_id, kind, amount, street, forced, at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.HandID, rec.Seq, rec.PlayerID, string(rec.Kind),
		rec.Amount, string(rec.Street), rec.Forced, rec.At)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: hand %s already has action at seq %d", domain.ErrConflict, rec.HandID, rec.Seq)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: hand %s", domain.ErrNotFound, rec.HandID)
	}
	return err
}

func (r *postgresRepository) ListActions(ctx context.Context, handID string) ([]domain.ActionRecord, error) {
	const q = `
SELECT action_id, hand_id, seq, player_id, kind, amount, street, forced, at
FROM hand_actions
WHERE hand_id = $1
ORDER BY seq ASC
`
	rows, err := r.db.QueryContext(ctx, q, handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ActionRecord, 0, 64)
	for rows.Next() {
		var rec domain.ActionRecord
		var kind, street string
		if err := rows.Scan(
			&rec.ID, &rec.HandID, &rec.Seq, &rec.PlayerID,
			&kind, &rec.Amount, &street, &rec.Forced, &rec.At,
		); err != nil {
			return nil, err
		}
		rec.Kind = domain.ActionKind(kind)
		rec.Street = domain.Street(street)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func unmarshalHand(raw []byte) (domain.Hand, error) {
	var h domain.Hand
	if err := json.Unmarshal(raw, &h); err != nil {
		return domain.Hand{}, fmt.Errorf("unmarshal hand: %w", err)
	}
	return h, nil
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func isUniqueViolation(err error) bool {
	return hasSQLState(err, "23505")
}

func isForeignKeyViolation(err error) bool {
	return hasSQLState(err, "23503")
}

type sqlStateProvider interface {
	SQLState() string
}

func hasSQLState(err error, code string) bool {
	if err == nil {
		return false
	}
	var stateErr sqlStateProvider
	if errors.As(err, &stateErr) && stateErr.SQLState() == code {
		return true
	}
	// Fallback for drivers that only surface SQLSTATE in error text.
	return strings.Contains(err.Error(), "SQLSTATE "+code)
}
