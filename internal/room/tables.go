package room

import (
	"go.uber.org/zap"

	"github.com/lakotafox/top2d/internal/blackjack"
	"github.com/lakotafox/top2d/internal/farkle"
	"github.com/lakotafox/top2d/internal/protocol"
)

const (
	farkleTimerPrefix    = "farkle:"
	blackjackTimerPrefix = "blackjack:"
)

func (r *Room) handleFarkle(connID string, cmd protocol.FarkleCmd) {
	switch cmd.Action {
	case "join":
		t, ok := r.dice[cmd.TableID]
		if !ok {
			t = farkle.NewTable(cmd.TableID, connID, r.cfg.Rand)
			r.dice[cmd.TableID] = t
			r.log.Info("farkle table created", zap.String("table", cmd.TableID), zap.String("host", connID))
		}
		switch t.Join(connID, r.displayName(connID)) {
		case farkle.JoinAdded:
			r.broadcast(protocol.FarkleState(t), "")
		case farkle.JoinAlreadySeated:
			r.send(connID, protocol.FarkleState(t))
		case farkle.JoinTableFull:
			// seating cap reached, silently ignored
		}

	case "leave":
		t, ok := r.dice[cmd.TableID]
		if !ok {
			r.send(connID, protocol.FarkleError("table not found"))
			return
		}
		removed, destroyed := t.Leave(connID)
		if destroyed {
			r.dropFarkleTable(cmd.TableID)
			r.log.Info("farkle table ended by host", zap.String("table", cmd.TableID))
			r.broadcast(protocol.FarkleEnded(cmd.TableID, "Host left"), "")
			return
		}
		if removed {
			r.broadcast(protocol.FarkleState(t), "")
		}

	default:
		t, ok := r.dice[cmd.TableID]
		if !ok {
			r.send(connID, protocol.FarkleError("table not found"))
			return
		}

		var err error
		var arm = r.cfg.FarkleAdvanceDelay
		armed := false
		switch cmd.Action {
		case "start":
			err = t.Start(connID)
		case "roll":
			var farkled bool
			if farkled, err = t.Roll(connID); err == nil && farkled {
				armed = true
			}
		case "hold":
			err = t.Hold(connID, cmd.Held)
		case "bank":
			if err = t.Bank(connID); err == nil {
				armed, arm = true, r.cfg.FarkleBankDelay
			}
		}
		if err != nil {
			r.log.Debug("farkle action rejected", zap.String("conn", connID), zap.String("action", cmd.Action), zap.Error(err))
			r.send(connID, protocol.FarkleError(err.Error()))
			return
		}
		r.broadcast(protocol.FarkleState(t), "")
		if armed {
			r.armTimer(farkleTimerPrefix+cmd.TableID, arm, advanceFarkle{tableID: cmd.TableID})
		}
	}
}

// handleFarkleAdvance is the deferred turn advance. The table may have
// been torn down while the timer was pending; then this is a no-op.
func (r *Room) handleFarkleAdvance(tableID string) {
	delete(r.timers, farkleTimerPrefix+tableID)
	t, ok := r.dice[tableID]
	if !ok {
		r.log.Debug("advance fired for vanished farkle table", zap.String("table", tableID))
		return
	}
	t.Advance()
	r.broadcast(protocol.FarkleState(t), "")
}

func (r *Room) dropFarkleTable(tableID string) {
	if tm, ok := r.timers[farkleTimerPrefix+tableID]; ok {
		tm.Stop()
		delete(r.timers, farkleTimerPrefix+tableID)
	}
	delete(r.dice, tableID)
}

func (r *Room) handleBlackjack(connID string, cmd protocol.BlackjackCmd) {
	switch cmd.Action {
	case "join":
		t, ok := r.cards[cmd.TableID]
		if !ok {
			t = blackjack.NewTable(cmd.TableID, r.cfg.Rand)
			r.cards[cmd.TableID] = t
			r.log.Info("blackjack table created", zap.String("table", cmd.TableID))
		}
		switch t.Join(connID, r.displayName(connID)) {
		case blackjack.JoinAdded:
			r.broadcast(protocol.BlackjackState(t), "")
		case blackjack.JoinAlreadySeated:
			r.send(connID, protocol.BlackjackState(t))
		case blackjack.JoinTableFull:
			// seating cap reached, silently ignored
		}

	case "leave":
		t, ok := r.cards[cmd.TableID]
		if !ok {
			r.send(connID, protocol.BlackjackError("table not found"))
			return
		}
		removed, destroyed := t.Leave(connID)
		if destroyed {
			r.dropBlackjackTable(cmd.TableID)
			r.log.Info("blackjack table emptied", zap.String("table", cmd.TableID))
			return
		}
		if removed {
			r.broadcast(protocol.BlackjackState(t), "")
		}

	default:
		t, ok := r.cards[cmd.TableID]
		if !ok {
			r.send(connID, protocol.BlackjackError("table not found"))
			return
		}

		var settled bool
		var err error
		switch cmd.Action {
		case "bet":
			settled, err = t.Bet(connID, cmd.Amount)
		case "hit":
			settled, err = t.Hit(connID)
		case "stand":
			settled, err = t.Stand(connID)
		}
		if err != nil {
			r.log.Debug("blackjack action rejected", zap.String("conn", connID), zap.String("action", cmd.Action), zap.Error(err))
			r.send(connID, protocol.BlackjackError(err.Error()))
			return
		}
		r.broadcast(protocol.BlackjackState(t), "")
		if settled {
			r.armTimer(blackjackTimerPrefix+cmd.TableID, r.cfg.BlackjackResetDelay, resetBlackjack{tableID: cmd.TableID})
		}
	}
}

// handleBlackjackReset is the deferred round reset after payout. Broke
// players are pruned; an emptied table is destroyed instead of reset.
func (r *Room) handleBlackjackReset(tableID string) {
	delete(r.timers, blackjackTimerPrefix+tableID)
	t, ok := r.cards[tableID]
	if !ok {
		r.log.Debug("reset fired for vanished blackjack table", zap.String("table", tableID))
		return
	}
	if t.ResetRound() {
		delete(r.cards, tableID)
		r.log.Info("blackjack table emptied", zap.String("table", tableID))
		return
	}
	r.broadcast(protocol.BlackjackState(t), "")
}

func (r *Room) dropBlackjackTable(tableID string) {
	if tm, ok := r.timers[blackjackTimerPrefix+tableID]; ok {
		tm.Stop()
		delete(r.timers, blackjackTimerPrefix+tableID)
	}
	delete(r.cards, tableID)
}
