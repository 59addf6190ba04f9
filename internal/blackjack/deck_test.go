package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDeckIs52UniqueCards(t *testing.T) {
	deck := NewDeck()
	assert.Len(t, deck, 52)

	seen := map[Card]bool{}
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card %v", c)
		seen[c] = true
	}
}

func TestHandValue(t *testing.T) {
	cases := []struct {
		name string
		hand []Card
		want int
	}{
		{"face cards", []Card{{Suit: "hearts", Value: "K"}, {Suit: "clubs", Value: "Q"}}, 20},
		{"ace counts high", []Card{{Suit: "hearts", Value: "A"}, {Suit: "clubs", Value: "7"}}, 18},
		{"ace drops to one", []Card{{Suit: "hearts", Value: "A"}, {Suit: "clubs", Value: "9"}, {Suit: "spades", Value: "5"}}, 15},
		{"two aces", []Card{{Suit: "hearts", Value: "A"}, {Suit: "clubs", Value: "A"}}, 12},
		{"bust", []Card{{Suit: "hearts", Value: "K"}, {Suit: "clubs", Value: "Q"}, {Suit: "spades", Value: "5"}}, 25},
		{"hidden card ignored", []Card{{Suit: "hearts", Value: "A"}, {Suit: "clubs", Value: "K", Hidden: true}}, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HandValue(tc.hand))
		})
	}
}

func TestIsNatural(t *testing.T) {
	assert.True(t, IsNatural([]Card{{Suit: "hearts", Value: "A"}, {Suit: "clubs", Value: "K"}}))
	assert.False(t, IsNatural([]Card{{Suit: "hearts", Value: "K"}, {Suit: "clubs", Value: "Q"}}))
	// 21 in three cards is not a natural
	assert.False(t, IsNatural([]Card{{Suit: "hearts", Value: "7"}, {Suit: "clubs", Value: "7"}, {Suit: "spades", Value: "7"}}))
}
