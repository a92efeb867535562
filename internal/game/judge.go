package game

// Outcome is a victory evaluation result. Settled false means the game
// continues; Settled with Draw means both sides won simultaneously.
type Outcome struct {
	Settled  bool
	Draw     bool
	WinnerID string
}

// Judge evaluates the board and players after every state-mutating command
// and reports a winner or "undecided". Implementations must be pure with
// respect to their inputs: the turn loop calls them freely and expects no
// side effects.
type Judge interface {
	Evaluate(board *Board, players []*Player, units *UnitFactory) Outcome
}

// HomeRowJudge is the default win condition: a side wins when one of its
// units stands in the opposing home row. Both sides reaching at once is a
// draw.
type HomeRowJudge struct{}

// Evaluate implements Judge.
func (HomeRowJudge) Evaluate(board *Board, players []*Player, units *UnitFactory) Outcome {
	reached := make([]bool, len(players))
	for i, player := range players {
		opponent := players[(i+1)%len(players)]
		for _, cell := range board.HomeRowCells(opponent.HomeRowPrefix) {
			if cell.Empty() {
				continue
			}
			unit, ok := units.Get(cell.UnitID)
			if ok && unit.PlayerID == player.ID {
				reached[i] = true
				break
			}
		}
	}

	switch {
	case reached[0] && reached[1]:
		return Outcome{Settled: true, Draw: true}
	case reached[0]:
		return Outcome{Settled: true, WinnerID: players[0].ID}
	case reached[1]:
		return Outcome{Settled: true, WinnerID: players[1].ID}
	default:
		return Outcome{}
	}
}
