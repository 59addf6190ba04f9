// Package protocol defines the wire messages exchanged with clients:
// a strict discriminated decode for inbound frames and builders for the
// outbound full-state snapshots. One JSON object per text frame, keyed
// by the top-level "type" field.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lakotafox/top2d/internal/blackjack"
	"github.com/lakotafox/top2d/internal/farkle"
	"github.com/lakotafox/top2d/internal/presence"
)

// ErrNotJSON marks frames that cannot be parsed at all; the room logs
// and drops them without closing the connection.
var ErrNotJSON = errors.New("frame is not valid JSON")

// RejectError is a malformed-but-parseable request. It is reported to
// the sender only, before any state is touched.
type RejectError struct {
	MsgType string // "farkle_error" or "blackjack_error"
	Reason  string
}

func (e *RejectError) Error() string { return e.Reason }

// Inbound is the decoded form of a client frame.
type Inbound interface{ isInbound() }

// PresenceJoin introduces a presence record.
type PresenceJoin struct{ Fields presence.Update }

// PresenceUpdate merges partial fields onto an existing record.
type PresenceUpdate struct{ Fields presence.Update }

// PresenceSync requests the full roster, sent to the requester only.
type PresenceSync struct{}

// FarkleCmd is a dice-table action. Held is meaningful for "hold" only.
type FarkleCmd struct {
	Action  string
	TableID string
	Held    [farkle.DiceCount]bool
}

// BlackjackCmd is a card-table action. Amount is meaningful for "bet".
type BlackjackCmd struct {
	Action  string
	TableID string
	Amount  int
}

// Relay is any unrecognized frame, forwarded verbatim to the rest of
// the room with the sender's identity attached.
type Relay struct{ Raw json.RawMessage }

func (PresenceJoin) isInbound()   {}
func (PresenceUpdate) isInbound() {}
func (PresenceSync) isInbound()   {}
func (FarkleCmd) isInbound()      {}
func (BlackjackCmd) isInbound()   {}
func (Relay) isInbound()          {}

type envelope struct {
	Type string `json:"type"`
	presence.Update

	TableID      string `json:"tableId"`
	FarkleAction string `json:"farkleAction"`
	Held         []bool `json:"held"`
	Action       string `json:"action"`
	Amount       *int   `json:"amount"`
}

// Decode validates and classifies one inbound frame. Malformed JSON
// yields ErrNotJSON; parseable frames with missing or invalid required
// fields yield a *RejectError for the sender.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	switch env.Type {
	case "join":
		return PresenceJoin{Fields: env.Update}, nil
	case "update":
		return PresenceUpdate{Fields: env.Update}, nil
	case "sync":
		return PresenceSync{}, nil
	case "farkle":
		return decodeFarkle(env)
	case "blackjack":
		return decodeBlackjack(env)
	default:
		return Relay{Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

func decodeFarkle(env envelope) (Inbound, error) {
	if env.TableID == "" {
		return nil, &RejectError{MsgType: "farkle_error", Reason: "missing tableId"}
	}
	cmd := FarkleCmd{Action: env.FarkleAction, TableID: env.TableID}
	switch env.FarkleAction {
	case "join", "start", "roll", "bank", "leave":
		return cmd, nil
	case "hold":
		if len(env.Held) != farkle.DiceCount {
			return nil, &RejectError{MsgType: "farkle_error", Reason: "invalid held array"}
		}
		copy(cmd.Held[:], env.Held)
		return cmd, nil
	default:
		return nil, &RejectError{MsgType: "farkle_error", Reason: "unknown farkle action"}
	}
}

func decodeBlackjack(env envelope) (Inbound, error) {
	if env.TableID == "" {
		return nil, &RejectError{MsgType: "blackjack_error", Reason: "missing tableId"}
	}
	cmd := BlackjackCmd{Action: env.Action, TableID: env.TableID}
	switch env.Action {
	case "join", "hit", "stand", "leave":
		return cmd, nil
	case "bet":
		cmd.Amount = blackjack.DefaultBet
		if env.Amount != nil {
			cmd.Amount = *env.Amount
		}
		return cmd, nil
	default:
		return nil, &RejectError{MsgType: "blackjack_error", Reason: "unknown blackjack action"}
	}
}

/* ---- outbound builders ---- */

func marshal(v any) []byte {
	payload, _ := json.Marshal(v)
	return payload
}

// Welcome greets a newly accepted connection with its identity and the
// current roster.
func Welcome(playerID string, roster []*presence.Record, message string) []byte {
	return marshal(struct {
		Type     string             `json:"type"`
		PlayerID string             `json:"playerId"`
		Players  []*presence.Record `json:"players"`
		Message  string             `json:"message"`
	}{"welcome", playerID, roster, message})
}

// CapacityError tells a connection the room is full before it closes.
func CapacityError(message string) []byte {
	return marshal(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"error", message})
}

// PlayerJoined announces a new presence record to the rest of the room.
func PlayerJoined(rec *presence.Record) []byte {
	return marshal(struct {
		Type   string           `json:"type"`
		Player *presence.Record `json:"player"`
	}{"join", rec})
}

// PlayerUpdated announces a merged presence record.
func PlayerUpdated(rec *presence.Record) []byte {
	return marshal(struct {
		Type   string           `json:"type"`
		Player *presence.Record `json:"player"`
	}{"update", rec})
}

// PlayerLeft announces a departure.
func PlayerLeft(playerID string) []byte {
	return marshal(struct {
		Type     string `json:"type"`
		PlayerID string `json:"playerId"`
	}{"leave", playerID})
}

// Roster is the sync reply, sent to the requester only.
func Roster(roster []*presence.Record) []byte {
	return marshal(struct {
		Type    string             `json:"type"`
		Players []*presence.Record `json:"players"`
	}{"sync", roster})
}

// FarkleState is the full dice-table snapshot.
func FarkleState(t *farkle.Table) []byte {
	return marshal(struct {
		Type string `json:"type"`
		*farkle.Table
	}{"farkle_state", t})
}

// FarkleEnded is the termination notice broadcast when the host leaves.
func FarkleEnded(tableID, reason string) []byte {
	return marshal(struct {
		Type    string `json:"type"`
		TableID string `json:"tableId"`
		Ended   bool   `json:"ended"`
		Reason  string `json:"reason"`
	}{"farkle_state", tableID, true, reason})
}

// FarkleError is a sender-only rule rejection.
func FarkleError(reason string) []byte {
	return marshal(struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}{"farkle_error", reason})
}

// BlackjackState is the full card-table snapshot. The shoe stays
// server-side.
func BlackjackState(t *blackjack.Table) []byte {
	return marshal(struct {
		Type string `json:"type"`
		*blackjack.Table
	}{"blackjack_state", t})
}

// BlackjackError is a sender-only rule rejection.
func BlackjackError(reason string) []byte {
	return marshal(struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}{"blackjack_error", reason})
}

// Reject renders a decode-stage rejection.
func Reject(e *RejectError) []byte {
	return marshal(struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}{e.MsgType, e.Reason})
}

// Relayed re-emits an unrecognized frame with the sender's identity and
// display name attached, for the unvalidated auxiliary event stream.
func Relayed(raw json.RawMessage, playerID, playerName string) ([]byte, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["playerId"] = playerID
	fields["playerName"] = playerName
	return json.Marshal(fields)
}
