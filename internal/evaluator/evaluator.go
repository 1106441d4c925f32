// Package evaluator ranks poker hands. Rank maps any 5-7 card set to a
// single comparable score for the best 5-card hand it contains; lower
// scores are better. It is pure: no I/O, no state.
package evaluator

import (
	"fmt"
	"sort"

	"github.com/courtside/holdem-engine/internal/domain"
)

// Category orders hand classes from best (smallest) to worst.
type Category uint8

const (
	CategoryStraightFlush Category = iota + 1
	CategoryFourOfAKind
	CategoryFullHouse
	CategoryFlush
	CategoryStraight
	CategoryThreeOfAKind
	CategoryTwoPair
	CategoryOnePair
	CategoryHighCard
)

func (c Category) String() string {
	switch c {
	case CategoryStraightFlush:
		return "straight_flush"
	case CategoryFourOfAKind:
		return "four_of_a_kind"
	case CategoryFullHouse:
		return "full_house"
	case CategoryFlush:
		return "flush"
	case CategoryStraight:
		return "straight"
	case CategoryThreeOfAKind:
		return "three_of_a_kind"
	case CategoryTwoPair:
		return "two_pair"
	case CategoryOnePair:
		return "one_pair"
	case CategoryHighCard:
		return "high_card"
	default:
		return "unknown"
	}
}

// Score is a comparable hand strength; lower is better. The category sits
// in the high bits and up to five kicker nibbles below it, each inverted so
// that a higher card rank yields a smaller score.
type Score int32

// Category recovers the hand class encoded in a score.
func (s Score) Category() Category {
	return Category(s >> 20)
}

// Beats reports whether s is strictly stronger than other.
func (s Score) Beats(other Score) bool {
	return s < other
}

// Rank scores the best 5-card hand obtainable from 5 to 7 cards.
func Rank(cards []domain.Card) (Score, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("rank requires 5..7 cards, got %d", len(cards))
	}
	seen := make(map[domain.Card]struct{}, len(cards))
	for _, card := range cards {
		if card.Rank < 2 || card.Rank > domain.RankAce {
			return 0, fmt.Errorf("invalid card %v", card)
		}
		if _, dup := seen[card]; dup {
			return 0, fmt.Errorf("duplicate card %s", card)
		}
		seen[card] = struct{}{}
	}

	if len(cards) == 5 {
		return scoreFive(cards), nil
	}

	best := Score(1<<30 - 1)
	pick := make([]domain.Card, 5)
	n := len(cards)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						pick[0], pick[1], pick[2], pick[3], pick[4] = cards[a], cards[b], cards[c], cards[d], cards[e]
						if score := scoreFive(pick); score < best {
							best = score
						}
					}
				}
			}
		}
	}
	return best, nil
}

// RankCodes is a convenience wrapper over Rank for two-symbol card codes.
func RankCodes(codes []string) (Score, error) {
	cards := make([]domain.Card, 0, len(codes))
	for _, code := range codes {
		card, err := domain.ParseCard(code)
		if err != nil {
			return 0, err
		}
		cards = append(cards, card)
	}
	return Rank(cards)
}

// BestHands evaluates each player's best 7-card hand against the community
// and returns every player tied at the best score, sorted by id. Supports
// split pots.
func BestHands(hole map[string]domain.HoleCards, community []domain.Card) ([]string, error) {
	if len(community) != 5 {
		return nil, fmt.Errorf("best hands requires 5 community cards, got %d", len(community))
	}
	if len(hole) == 0 {
		return nil, fmt.Errorf("best hands requires at least one player")
	}

	var winners []string
	var best Score
	for playerID, cards := range hole {
		all := append([]domain.Card{cards[0], cards[1]}, community...)
		score, err := Rank(all)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", playerID, err)
		}
		switch {
		case len(winners) == 0 || score.Beats(best):
			best = score
			winners = winners[:0]
			winners = append(winners, playerID)
		case score == best:
			winners = append(winners, playerID)
		}
	}
	sort.Strings(winners)
	return winners, nil
}

func scoreFive(cards []domain.Card) Score {
	var ranks [5]uint8
	counts := make(map[uint8]uint8, 5)
	flush := true
	for i, card := range cards {
		ranks[i] = uint8(card.Rank)
		counts[uint8(card.Rank)]++
		if card.Suit != cards[0].Suit {
			flush = false
		}
	}
	sort.Slice(ranks[:], func(i, j int) bool { return ranks[i] > ranks[j] })

	straightHigh, straight := straightHighRank(ranks)

	if flush && straight {
		return pack(CategoryStraightFlush, straightHigh)
	}

	groups := groupRanks(counts)
	switch {
	case groups[0].count == 4:
		return pack(CategoryFourOfAKind, groups[0].rank, groups[1].rank)
	case groups[0].count == 3 && groups[1].count == 2:
		return pack(CategoryFullHouse, groups[0].rank, groups[1].rank)
	case flush:
		return pack(CategoryFlush, ranks[0], ranks[1], ranks[2], ranks[3], ranks[4])
	case straight:
		return pack(CategoryStraight, straightHigh)
	case groups[0].count == 3:
		return pack(CategoryThreeOfAKind, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2 && groups[1].count == 2:
		return pack(CategoryTwoPair, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2:
		return pack(CategoryOnePair, groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank)
	default:
		return pack(CategoryHighCard, ranks[0], ranks[1], ranks[2], ranks[3], ranks[4])
	}
}

// pack encodes category and kickers so that plain integer comparison orders
// hands: smaller category wins, then higher kickers (inverted nibbles).
func pack(category Category, kickers ...uint8) Score {
	score := Score(category) << 20
	shift := 16
	for _, kicker := range kickers {
		score |= Score(15-kicker) << shift
		shift -= 4
	}
	return score
}

type rankGroup struct {
	rank  uint8
	count uint8
}

// groupRanks sorts rank multiplicities by count desc, then rank desc, the
// order kicker tie-breaking reads them in.
func groupRanks(counts map[uint8]uint8) []rankGroup {
	groups := make([]rankGroup, 0, len(counts))
	for rank, count := range counts {
		groups = append(groups, rankGroup{rank: rank, count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count == groups[j].count {
			return groups[i].rank > groups[j].rank
		}
		return groups[i].count > groups[j].count
	})
	return groups
}

func straightHighRank(sorted [5]uint8) (uint8, bool) {
	for i := 1; i < 5; i++ {
		if sorted[i-1] == sorted[i] {
			return 0, false
		}
	}
	// Wheel: A-5-4-3-2 plays as a five-high straight.
	if sorted[0] == 14 && sorted[1] == 5 && sorted[2] == 4 && sorted[3] == 3 && sorted[4] == 2 {
		return 5, true
	}
	for i := 1; i < 5; i++ {
		if sorted[i-1]-1 != sorted[i] {
			return 0, false
		}
	}
	return sorted[0], true
}
