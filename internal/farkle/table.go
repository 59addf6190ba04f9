package farkle

import "errors"

var ErrNotYourTurn = errors.New("not your turn")
var ErrWrongPhase = errors.New("cannot do that now")
var ErrNotHost = errors.New("only host can start")
var ErrNeedPlayers = errors.New("need at least 2 players")
var ErrInvalidSelection = errors.New("invalid selection")
var ErrNothingHeld = errors.New("must hold dice before banking")

// Phase is the lifecycle stage of a farkle table.
type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseWaitingForRoll Phase = "waiting_for_roll"
	PhaseSelecting      Phase = "selecting"
	PhaseFarkled        Phase = "farkled"
)

const (
	// DiceCount is the number of dice on the table.
	DiceCount = 6
	// MaxSeats is the seating cap per table.
	MaxSeats = 4
)

// Source supplies dice rolls. *math/rand.Rand satisfies it; tests
// substitute a scripted implementation.
type Source interface {
	Intn(n int) int
}

// Player is one seat at a farkle table.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Seat      int    `json:"seat"`
	Connected bool   `json:"connected"`
}

// JoinResult classifies the outcome of a join request.
type JoinResult int

const (
	JoinAdded JoinResult = iota
	JoinAlreadySeated
	JoinTableFull
)

// Table is the authoritative state of one farkle game. Fields are
// exported in the exact shape broadcast to clients; the whole struct is
// the snapshot. Version increments exactly once per accepted mutation.
type Table struct {
	ID        string          `json:"tableId"`
	Phase     Phase           `json:"phase"`
	Players   []*Player       `json:"players"`
	Current   int             `json:"currentPlayerIndex"`
	Dice      [DiceCount]int  `json:"dice"`
	Held      [DiceCount]bool `json:"held"`
	TurnScore int             `json:"turnScore"`
	Version   int             `json:"version"`
	HostID    string          `json:"hostId"`

	rng Source
}

// NewTable creates a lobby-phase table hosted by the first joiner. The
// host is not seated until it sends a join of its own.
func NewTable(id, hostID string, rng Source) *Table {
	return &Table{
		ID:      id,
		Phase:   PhaseLobby,
		Players: []*Player{},
		Dice:    [DiceCount]int{1, 1, 1, 1, 1, 1},
		HostID:  hostID,
		rng:     rng,
	}
}

// Join seats the sender. Seat indices are assigned at join time and are
// never renumbered, so a mid-list departure leaves a gap.
func (t *Table) Join(id, name string) JoinResult {
	if t.player(id) != nil {
		return JoinAlreadySeated
	}
	if len(t.Players) >= MaxSeats {
		return JoinTableFull
	}
	t.Players = append(t.Players, &Player{
		ID:        id,
		Name:      name,
		Seat:      len(t.Players),
		Connected: true,
	})
	t.Version++
	return JoinAdded
}

// Start moves the table out of the lobby. Host-only, needs two seats.
func (t *Table) Start(senderID string) error {
	if senderID != t.HostID {
		return ErrNotHost
	}
	if len(t.Players) < 2 {
		return ErrNeedPlayers
	}
	t.Phase = PhaseWaitingForRoll
	t.Current = 0
	t.Version++
	return nil
}

// Roll rerolls the dice for the current player: all six on the first
// roll of a turn, only unheld dice on a reroll. The returned flag is
// true when the fresh unheld dice cannot score, in which case the turn
// score is forfeited and the caller should arm the deferred advance.
func (t *Table) Roll(senderID string) (farkled bool, err error) {
	if err := t.requireTurn(senderID); err != nil {
		return false, err
	}
	if t.Phase != PhaseWaitingForRoll && t.Phase != PhaseSelecting {
		return false, ErrWrongPhase
	}

	if t.Phase == PhaseWaitingForRoll {
		t.Held = [DiceCount]bool{}
		for i := range t.Dice {
			t.Dice[i] = t.rng.Intn(6) + 1
		}
	} else {
		for i := range t.Dice {
			if !t.Held[i] {
				t.Dice[i] = t.rng.Intn(6) + 1
			}
		}
	}

	if IsFarkle(t.Dice, t.Held) {
		t.Phase = PhaseFarkled
		t.TurnScore = 0
		t.Version++
		return true, nil
	}

	t.Phase = PhaseSelecting
	t.Version++
	return false, nil
}

// Hold replaces the held array with the requested one. The request is
// accepted whole or rejected whole; on rejection nothing changes. When
// the hold leaves all six dice held ("hot dice") the held flags reset
// so the player may roll the full set again, keeping the turn score.
func (t *Table) Hold(senderID string, next [DiceCount]bool) error {
	if err := t.requireTurn(senderID); err != nil {
		return err
	}
	if t.Phase != PhaseSelecting {
		return ErrWrongPhase
	}
	if !validSelection(t.Dice, t.Held, next) {
		return ErrInvalidSelection
	}

	newlyHeld := make([]int, 0, DiceCount)
	for i := 0; i < DiceCount; i++ {
		if !t.Held[i] && next[i] {
			newlyHeld = append(newlyHeld, t.Dice[i])
		}
	}
	t.TurnScore += Score(newlyHeld)
	t.Held = next
	t.Version++

	hot := true
	for _, h := range t.Held {
		if !h {
			hot = false
			break
		}
	}
	if hot {
		t.Held = [DiceCount]bool{}
	}
	return nil
}

// Bank moves the turn score into the current player's banked score.
// The caller broadcasts and arms the deferred advance.
func (t *Table) Bank(senderID string) error {
	if err := t.requireTurn(senderID); err != nil {
		return err
	}
	if t.Phase != PhaseSelecting {
		return ErrWrongPhase
	}
	anyHeld := false
	for _, h := range t.Held {
		if h {
			anyHeld = true
			break
		}
	}
	if !anyHeld {
		return ErrNothingHeld
	}

	t.Players[t.Current].Score += t.TurnScore
	t.Version++
	return nil
}

// Advance passes the turn to the next seat and resets the dice display.
// Fired from a deferred transition; the caller must have verified the
// table still exists in its registry.
func (t *Table) Advance() {
	if len(t.Players) == 0 {
		return
	}
	t.Current = (t.Current + 1) % len(t.Players)
	t.Phase = PhaseWaitingForRoll
	t.TurnScore = 0
	t.Held = [DiceCount]bool{}
	t.Dice = [DiceCount]int{1, 1, 1, 1, 1, 1}
	t.Version++
}

// Leave removes the sender's seat. A host departure destroys the table
// for everyone; the caller deletes it and broadcasts a termination
// notice instead of normal state.
func (t *Table) Leave(senderID string) (removed, destroyed bool) {
	idx := -1
	for i, p := range t.Players {
		if p.ID == senderID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, false
	}

	if senderID == t.HostID {
		return true, true
	}

	t.Players = append(t.Players[:idx], t.Players[idx+1:]...)
	if t.Current >= len(t.Players) {
		t.Current = 0
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

func (t *Table) requireTurn(senderID string) error {
	if t.Current >= len(t.Players) || t.Players[t.Current].ID != senderID {
		return ErrNotYourTurn
	}
	return nil
}
