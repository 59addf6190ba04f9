package blackjack

import "strconv"

// Card is a single playing card. Hidden marks the dealer's hole card in
// snapshots until the dealer turn reveals it.
type Card struct {
	Suit   string `json:"suit"`
	Value  string `json:"value"`
	Hidden bool   `json:"hidden,omitempty"`
}

var suits = []string{"hearts", "diamonds", "clubs", "spades"}
var values = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// NewDeck assembles an ordered standard 52-card deck. Cards are drawn
// from the tail, so the shuffle decides the deal order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for _, v := range values {
			deck = append(deck, Card{Suit: s, Value: v})
		}
	}
	return deck
}

func cardValue(c Card) int {
	switch c.Value {
	case "J", "Q", "K":
		return 10
	case "A":
		return 11
	default:
		n, _ := strconv.Atoi(c.Value)
		return n
	}
}

// HandValue computes the visible hand total with soft ace counting:
// aces start at 11 and drop to 1 one at a time while the total busts.
// Hidden cards do not count.
func HandValue(hand []Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		if c.Hidden {
			continue
		}
		total += cardValue(c)
		if c.Value == "A" {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsNatural reports a two-card 21.
func IsNatural(hand []Card) bool {
	return len(hand) == 2 && HandValue(hand) == 21
}
