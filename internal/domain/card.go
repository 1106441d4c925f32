package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit is the canonical lowercase suit symbol: 'c', 'd', 'h', 's'.
type Suit byte

const (
	SuitClubs    Suit = 'c'
	SuitDiamonds Suit = 'd'
	SuitHearts   Suit = 'h'
	SuitSpades   Suit = 's'
)

// CardRank is the numeric card rank, 2..14 with ace high.
type CardRank uint8

const (
	RankTen   CardRank = 10
	RankJack  CardRank = 11
	RankQueen CardRank = 12
	RankKing  CardRank = 13
	RankAce   CardRank = 14
)

// Card is a single playing card. The wire form is the two-symbol code
// rank+suit, e.g. "Ah", "Td", "9c". Input is case-insensitive; output is
// canonical (uppercase rank, lowercase suit).
type Card struct {
	Rank CardRank
	Suit Suit
}

const rankSymbols = "23456789TJQKA"

// ParseCard parses a two-symbol card code.
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return Card{}, fmt.Errorf("card code must be 2 symbols, got %q", code)
	}
	rankSym := strings.ToUpper(code[:1])[0]
	suitSym := strings.ToLower(code[1:])[0]

	idx := strings.IndexByte(rankSymbols, rankSym)
	if idx < 0 {
		return Card{}, fmt.Errorf("unknown card rank %q in %q", string(rankSym), code)
	}
	switch Suit(suitSym) {
	case SuitClubs, SuitDiamonds, SuitHearts, SuitSpades:
	default:
		return Card{}, fmt.Errorf("unknown card suit %q in %q", string(suitSym), code)
	}
	return Card{Rank: CardRank(idx + 2), Suit: Suit(suitSym)}, nil
}

// MustParseCard is a test and literal helper; it panics on a bad code.
func MustParseCard(code string) Card {
	card, err := ParseCard(code)
	if err != nil {
		panic(err)
	}
	return card
}

func (c Card) String() string {
	if c.Rank < 2 || c.Rank > 14 {
		return "??"
	}
	return string(rankSymbols[c.Rank-2]) + string(byte(c.Suit))
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	card, err := ParseCard(code)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// HoleCards is the fixed pair dealt to a player, write-once at deal time.
type HoleCards [2]Card

func (h HoleCards) Codes() []string {
	return []string{h[0].String(), h[1].String()}
}
