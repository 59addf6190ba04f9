package blackjack

import "errors"

var ErrNotYourTurn = errors.New("not your turn")
var ErrWrongPhase = errors.New("cannot do that now")
var ErrNotSeated = errors.New("not seated at this table")
var ErrBadBet = errors.New("bet must be positive")
var ErrShoeEmpty = errors.New("shoe is empty")

// Phase is the lifecycle stage of a blackjack round. The cycle is
// betting -> dealing -> playing -> dealer_turn -> payout -> betting.
type Phase string

const (
	PhaseBetting    Phase = "betting"
	PhaseDealing    Phase = "dealing"
	PhasePlaying    Phase = "playing"
	PhaseDealerTurn Phase = "dealer_turn"
	PhasePayout     Phase = "payout"
)

// Status tracks a seat through a round.
type Status string

const (
	StatusBetting   Status = "betting"
	StatusWaiting   Status = "waiting"
	StatusPlaying   Status = "playing"
	StatusStand     Status = "stand"
	StatusBust      Status = "bust"
	StatusBlackjack Status = "blackjack"
	StatusWin       Status = "win"
	StatusLose      Status = "lose"
	StatusPush      Status = "push"
)

const (
	// MaxSeats is the seating cap per table.
	MaxSeats = 4
	// StartingChips is the stack every new player sits down with.
	StartingChips = 10000
	// DefaultBet applies when a bet request names no amount.
	DefaultBet = 100
)

// Source supplies shuffle randomness. *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Player is one seat at a blackjack table.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Chips  int    `json:"chips"`
	Bet    int    `json:"bet"`
	Hand   []Card `json:"hand"`
	Status Status `json:"status"`
	Seat   int    `json:"seat"`
}

// JoinResult classifies the outcome of a join request.
type JoinResult int

const (
	JoinAdded JoinResult = iota
	JoinAlreadySeated
	JoinTableFull
)

// Table is the authoritative state of one blackjack game. The shoe is
// never broadcast; everything else is the client snapshot. Between
// reshuffles the union of shoe, player hands and dealer hand is always
// exactly one 52-card set.
type Table struct {
	ID         string    `json:"tableId"`
	Phase      Phase     `json:"phase"`
	Players    []*Player `json:"players"`
	DealerHand []Card    `json:"dealerHand"`
	Shoe       []Card    `json:"-"`
	Current    int       `json:"currentPlayerIndex"`
	Version    int       `json:"version"`

	rng Source
}

// NewTable creates a betting-phase table with a freshly shuffled shoe.
func NewTable(id string, rng Source) *Table {
	t := &Table{
		ID:      id,
		Phase:   PhaseBetting,
		Players: []*Player{},
		rng:     rng,
	}
	t.reshuffle()
	return t
}

func (t *Table) reshuffle() {
	t.Shoe = NewDeck()
	t.rng.Shuffle(len(t.Shoe), func(i, j int) {
		t.Shoe[i], t.Shoe[j] = t.Shoe[j], t.Shoe[i]
	})
}

// draw takes the tail card off the shoe.
func (t *Table) draw() (Card, bool) {
	if len(t.Shoe) == 0 {
		return Card{}, false
	}
	c := t.Shoe[len(t.Shoe)-1]
	t.Shoe = t.Shoe[:len(t.Shoe)-1]
	return c, true
}

// Join seats a new player with the starting stack.
func (t *Table) Join(id, name string) JoinResult {
	if t.player(id) != nil {
		return JoinAlreadySeated
	}
	if len(t.Players) >= MaxSeats {
		return JoinTableFull
	}
	t.Players = append(t.Players, &Player{
		ID:     id,
		Name:   name,
		Chips:  StartingChips,
		Hand:   []Card{},
		Status: StatusBetting,
		Seat:   len(t.Players),
	})
	t.Version++
	return JoinAdded
}

// Bet debits the stake immediately, clamped to the player's stack. Once
// every seated player has bet, the round deals itself; the returned
// flag is true when the deal resolved straight through to payout, in
// which case the caller arms the deferred round reset.
func (t *Table) Bet(id string, amount int) (settled bool, err error) {
	if t.Phase != PhaseBetting {
		return false, ErrWrongPhase
	}
	p := t.player(id)
	if p == nil {
		return false, ErrNotSeated
	}
	if amount > p.Chips {
		amount = p.Chips
	}
	if amount <= 0 {
		return false, ErrBadBet
	}

	p.Bet = amount
	p.Chips -= amount
	p.Status = StatusWaiting
	t.Version++

	for _, pl := range t.Players {
		if pl.Status != StatusWaiting {
			return false, nil
		}
	}
	return t.deal(), nil
}

// deal hands two cards to every player and the dealer (hole card
// hidden), flags naturals and hands control to the first live seat, or
// straight to the dealer when every hand is a natural.
func (t *Table) deal() (settled bool) {
	t.Phase = PhaseDealing

	for _, p := range t.Players {
		first, _ := t.draw()
		second, _ := t.draw()
		p.Hand = []Card{first, second}
		p.Status = StatusPlaying
		if IsNatural(p.Hand) {
			p.Status = StatusBlackjack
		}
	}

	up, _ := t.draw()
	hole, _ := t.draw()
	hole.Hidden = true
	t.DealerHand = []Card{up, hole}

	t.Phase = PhasePlaying
	t.Current = 0
	for t.Current < len(t.Players) && t.Players[t.Current].Status == StatusBlackjack {
		t.Current++
	}

	if t.Current >= len(t.Players) {
		t.dealerPlay()
		return true
	}
	t.Version++
	return false
}

// Hit draws one card for the current player. Busting or reaching 21
// resolves the seat and passes play on; the returned flag is true when
// the round ran through the dealer to payout.
func (t *Table) Hit(id string) (settled bool, err error) {
	if t.Phase != PhasePlaying {
		return false, ErrWrongPhase
	}
	if err := t.requireTurn(id); err != nil {
		return false, err
	}
	p := t.Players[t.Current]

	card, ok := t.draw()
	if !ok {
		return false, ErrShoeEmpty
	}
	p.Hand = append(p.Hand, card)
	t.Version++

	switch value := HandValue(p.Hand); {
	case value > 21:
		p.Status = StatusBust
		return t.next(), nil
	case value == 21:
		p.Status = StatusStand
		return t.next(), nil
	default:
		return false, nil
	}
}

// Stand resolves the current seat and passes play on.
func (t *Table) Stand(id string) (settled bool, err error) {
	if t.Phase != PhasePlaying {
		return false, ErrWrongPhase
	}
	if err := t.requireTurn(id); err != nil {
		return false, err
	}
	t.Players[t.Current].Status = StatusStand
	t.Version++
	return t.next(), nil
}

// next advances past resolved seats, starting the dealer turn when no
// eligible player remains.
func (t *Table) next() (settled bool) {
	t.Current++
	for t.Current < len(t.Players) {
		switch t.Players[t.Current].Status {
		case StatusBust, StatusStand, StatusBlackjack:
			t.Current++
		default:
			return false
		}
	}
	t.dealerPlay()
	return true
}

// dealerPlay reveals the hole card, draws to 17 and settles every seat.
func (t *Table) dealerPlay() {
	t.Phase = PhaseDealerTurn

	for i := range t.DealerHand {
		t.DealerHand[i].Hidden = false
	}
	for HandValue(t.DealerHand) < 17 {
		card, ok := t.draw()
		if !ok {
			break
		}
		t.DealerHand = append(t.DealerHand, card)
	}

	dealerValue := HandValue(t.DealerHand)
	dealerBust := dealerValue > 21
	dealerNatural := IsNatural(t.DealerHand)

	t.Phase = PhasePayout
	for _, p := range t.Players {
		switch {
		case p.Status == StatusBust:
			p.Status = StatusLose
		case p.Status == StatusBlackjack:
			if dealerNatural {
				p.Status = StatusPush
				p.Chips += p.Bet
			} else {
				p.Status = StatusWin
				p.Chips += p.Bet + p.Bet*3/2
			}
		case dealerBust:
			p.Status = StatusWin
			p.Chips += p.Bet * 2
		default:
			switch value := HandValue(p.Hand); {
			case value > dealerValue:
				p.Status = StatusWin
				p.Chips += p.Bet * 2
			case value == dealerValue:
				p.Status = StatusPush
				p.Chips += p.Bet
			default:
				p.Status = StatusLose
			}
		}
	}

	t.Version++
}

// ResetRound prunes broke players and rearms the table for a new
// betting round. Fired from a deferred transition; a true return tells
// the caller to destroy the table instead of broadcasting.
func (t *Table) ResetRound() (destroyed bool) {
	remaining := t.Players[:0]
	for _, p := range t.Players {
		if p.Chips > 0 {
			remaining = append(remaining, p)
		}
	}
	t.Players = remaining

	if len(t.Players) == 0 {
		return true
	}

	t.Phase = PhaseBetting
	t.DealerHand = nil
	t.Current = 0
	t.reshuffle()
	for _, p := range t.Players {
		p.Hand = []Card{}
		p.Bet = 0
		p.Status = StatusBetting
	}
	t.Version++
	return false
}

// Leave removes the seat unconditionally; a true destroyed return means
// the table emptied out.
func (t *Table) Leave(id string) (removed, destroyed bool) {
	idx := -1
	for i, p := range t.Players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, false
	}

	t.Players = append(t.Players[:idx], t.Players[idx+1:]...)
	if len(t.Players) == 0 {
		return true, true
	}
	t.Version++
	return true, false
}

func (t *Table) player(id string) *Player {
	for _, p := range t.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Table) requireTurn(id string) error {
	if t.Current >= len(t.Players) || t.Players[t.Current].ID != id {
		return ErrNotYourTurn
	}
	return nil
}
