package engine

import (
	"errors"
	"time"
)

const (
	DefaultSmallBlind    int64 = 50
	DefaultBigBlind      int64 = 100
	DefaultStartingStack int64 = 10_000
	DefaultActionTimeout       = 30 * time.Second
)

var (
	ErrInvalidBlindStructure = errors.New("big blind must be greater than or equal to small blind")
	ErrInvalidTimeout        = errors.New("action timeout must be positive")
)

// Config holds the table stakes and turn clock shared by every hand of a
// game.
type Config struct {
	SmallBlind    int64
	BigBlind      int64
	StartingStack int64
	ActionTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		SmallBlind:    DefaultSmallBlind,
		BigBlind:      DefaultBigBlind,
		StartingStack: DefaultStartingStack,
		ActionTimeout: DefaultActionTimeout,
	}
}

func (c Config) Validate() error {
	if c.SmallBlind <= 0 || c.BigBlind < c.SmallBlind {
		return ErrInvalidBlindStructure
	}
	if c.StartingStack < c.BigBlind {
		return errors.New("starting stack must cover at least the big blind")
	}
	if c.ActionTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}
