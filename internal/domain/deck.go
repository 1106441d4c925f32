package domain

import (
	cryptorand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand"
)

// Shuffler permutes a deck in place. The production shuffler draws from
// crypto/rand so card order cannot be predicted or replayed by a client;
// the seeded shuffler exists for deterministic tests only.
type Shuffler interface {
	Shuffle(cards []Card) error
}

type cryptoShuffler struct{}

func NewCryptoShuffler() Shuffler {
	return cryptoShuffler{}
}

func (cryptoShuffler) Shuffle(cards []Card) error {
	for i := len(cards) - 1; i > 0; i-- {
		n, err := cryptorand.Int(cryptorand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("crypto shuffle: %w", err)
		}
		j := int(n.Int64())
		cards[i], cards[j] = cards[j], cards[i]
	}
	return nil
}

type seededShuffler struct {
	rng *rand.Rand
}

func NewSeededShuffler(seed int64) Shuffler {
	return seededShuffler{rng: rand.New(rand.NewSource(seed))}
}

func (s seededShuffler) Shuffle(cards []Card) error {
	for i := len(cards) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return nil
}

// StandardDeck returns the 52 cards in a fixed order.
func StandardDeck() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range []Suit{SuitClubs, SuitDiamonds, SuitHearts, SuitSpades} {
		for rank := CardRank(2); rank <= RankAce; rank++ {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	return cards
}

// NewShuffledDeck returns a fresh 52-card deck permuted by the shuffler.
func NewShuffledDeck(shuffler Shuffler) ([]Card, error) {
	deck := StandardDeck()
	if err := shuffler.Shuffle(deck); err != nil {
		return nil, err
	}
	return deck, nil
}

// DealN draws n cards without replacement and returns the drawn cards and
// the remaining deck. Exhausting a 52-card deck is impossible at table
// sizes this engine supports, so running out is an invariant violation.
func DealN(deck []Card, n int) ([]Card, []Card, error) {
	if n < 0 || n > len(deck) {
		return nil, deck, fmt.Errorf("%w: deal %d from deck of %d", ErrInvariant, n, len(deck))
	}
	drawn := append([]Card(nil), deck[:n]...)
	rest := append([]Card(nil), deck[n:]...)
	return drawn, rest, nil
}
