package game

// GameState tracks whose turn it is and the turn counter. Only the dealer's
// turn loop mutates it.
type GameState struct {
	nthTurn         int
	currentPlayerID string
}

// NewGameState starts at turn 0 with no current player.
func NewGameState() *GameState {
	return &GameState{}
}

// BeginTurn increments the turn counter, records the active player, and
// returns the new turn number.
func (s *GameState) BeginTurn(playerID string) int {
	s.nthTurn++
	s.currentPlayerID = playerID
	return s.nthTurn
}

// NthTurn returns the current turn number (0 before the first turn).
func (s *GameState) NthTurn() int {
	return s.nthTurn
}

// CurrentPlayerID returns the active player's id.
func (s *GameState) CurrentPlayerID() string {
	return s.currentPlayerID
}
