package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wildwar/wildwar-server-go/internal/catalog"
)

// Player-order strategies.
const (
	PlayerOrderIteration = "iteration"
	PlayerOrderRandom    = "random"
)

// Supported board dimension bounds. Single-digit rows and columns keep the
// "{row}{col}" cell-id scheme unambiguous.
const (
	MinBoardCols = 3
	MaxBoardCols = 9
	MinBoardRows = 4
	MaxBoardRows = 9
)

// receiveGrace absorbs clock and network skew on top of the configured
// per-turn timeout.
const receiveGrace = 5 * time.Second

// playerColors are the fixed seat colors, black first.
var playerColors = [2][4]float64{
	{0.4, 0, 0, 1},
	{0, 0.2, 0, 1},
}

// Config carries the dealer's construction parameters. Violating its bounds
// is a configuration error: NewDealer refuses to start.
type Config struct {
	BoardCols   int
	BoardRows   int
	TurnTimeout time.Duration
	HandInit    int
	MaxHand     int
	DeckSize    int
	UnitRatio   float64
	PlayerOrder string
}

// Options are the dealer's pluggable collaborators. Zero values select the
// defaults: the home-row judge, a random deck builder sized from Config,
// and a time-seeded random source.
type Options struct {
	Judge       Judge
	DeckBuilder DeckBuilder
	Spectators  []Channel
	Rand        *rand.Rand
}

// stepResult is what one receive/dispatch step tells the turn loop.
type stepResult int

const (
	stepContinue stepResult = iota
	stepTurnOver
	stepGameOver
)

// Dealer is the authoritative turn-sequencing engine. It is the single
// writer of the board, players, and factories; everything runs on the one
// goroutine executing Run.
type Dealer struct {
	logger *zap.Logger
	cfg    Config

	catalog *catalog.Catalog
	cards   *CardFactory
	units   *UnitFactory
	board   *Board

	players    []*Player
	playerByID map[string]*Player
	receivers  []Channel
	senders    []Channel

	judge Judge
	deck  DeckBuilder
	state *GameState

	grace  time.Duration
	result Outcome
}

// NewDealer validates the configuration, orders the players, builds their
// decks, and lays out the board. Exactly two player channels are required;
// spectators only ever receive broadcasts.
func NewDealer(cfg Config, cat *catalog.Catalog, channels []Channel, opts Options, logger *zap.Logger) (*Dealer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cat == nil || len(cat.Units) == 0 {
		return nil, errors.New("game: catalog must contain at least one unit prototype")
	}
	if len(channels) != 2 {
		return nil, fmt.Errorf("game: exactly 2 player channels required, got %d", len(channels))
	}
	if channels[0].PlayerID() == channels[1].PlayerID() {
		return nil, fmt.Errorf("game: duplicate player id %q", channels[0].PlayerID())
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	receivers := append([]Channel(nil), channels...)
	switch cfg.PlayerOrder {
	case PlayerOrderIteration:
	case PlayerOrderRandom:
		rng.Shuffle(len(receivers), func(i, j int) {
			receivers[i], receivers[j] = receivers[j], receivers[i]
		})
	}

	judge := opts.Judge
	if judge == nil {
		judge = HomeRowJudge{}
	}
	deck := opts.DeckBuilder
	if deck == nil {
		deck = &RandomDeckBuilder{NCards: cfg.DeckSize, UnitRatio: cfg.UnitRatio, Rand: rng}
	}

	d := &Dealer{
		logger:     logger,
		cfg:        cfg,
		catalog:    cat,
		cards:      NewCardFactory(),
		units:      NewUnitFactory(cat.Units),
		board:      NewBoard(cfg.BoardCols, cfg.BoardRows, logger),
		playerByID: make(map[string]*Player, 2),
		receivers:  receivers,
		senders:    append(append([]Channel(nil), receivers...), opts.Spectators...),
		judge:      judge,
		deck:       deck,
		state:      NewGameState(),
		grace:      receiveGrace,
	}

	for seat, ch := range receivers {
		player := &Player{
			ID:        ch.PlayerID(),
			SeatIndex: seat,
			Color:     playerColors[seat],
		}
		if seat == 0 {
			player.HomeRowPrefix = BlackHomePrefix
			player.FirstRowPrefix = rowPrefix(1)
			player.SecondRowPrefix = rowPrefix(2)
		} else {
			player.HomeRowPrefix = WhiteHomePrefix
			player.FirstRowPrefix = rowPrefix(cfg.BoardRows - 2)
			player.SecondRowPrefix = rowPrefix(cfg.BoardRows - 3)
		}
		player.Deck = d.deck.Build(player.ID, d.cards, cat)
		d.players = append(d.players, player)
		d.playerByID[player.ID] = player
	}

	return d, nil
}

func validateConfig(cfg Config) error {
	if cfg.BoardCols < MinBoardCols || cfg.BoardCols > MaxBoardCols {
		return fmt.Errorf("game: board cols %d out of range [%d, %d]", cfg.BoardCols, MinBoardCols, MaxBoardCols)
	}
	if cfg.BoardRows < MinBoardRows || cfg.BoardRows > MaxBoardRows {
		return fmt.Errorf("game: board rows %d out of range [%d, %d]", cfg.BoardRows, MinBoardRows, MaxBoardRows)
	}
	if cfg.TurnTimeout <= 0 {
		return fmt.Errorf("game: turn timeout must be positive, got %v", cfg.TurnTimeout)
	}
	if cfg.HandInit < 0 {
		return fmt.Errorf("game: initial hand size must not be negative, got %d", cfg.HandInit)
	}
	if cfg.MaxHand < cfg.HandInit {
		return fmt.Errorf("game: hand cap %d below initial hand size %d", cfg.MaxHand, cfg.HandInit)
	}
	if cfg.DeckSize < cfg.HandInit+1 {
		return fmt.Errorf("game: deck size %d too small for initial hand size %d", cfg.DeckSize, cfg.HandInit)
	}
	if cfg.UnitRatio < 0 || cfg.UnitRatio > 1 {
		return fmt.Errorf("game: unit ratio %v out of range [0, 1]", cfg.UnitRatio)
	}
	switch cfg.PlayerOrder {
	case PlayerOrderIteration, PlayerOrderRandom:
	default:
		return fmt.Errorf("game: unknown player order %q", cfg.PlayerOrder)
	}
	return nil
}

func rowPrefix(row int) string {
	return fmt.Sprintf("%d", row)
}

// Result returns the final outcome once Run has returned.
func (d *Dealer) Result() Outcome {
	return d.result
}

// Turns returns the number of turns played so far.
func (d *Dealer) Turns() int {
	return d.state.NthTurn()
}

// Board exposes the board for judges and tests. Only the Run goroutine may
// mutate it.
func (d *Dealer) Board() *Board {
	return d.board
}

// Players exposes the seat-ordered player list.
func (d *Dealer) Players() []*Player {
	return d.players
}

// Run executes the game from the opening broadcast to the game_end
// broadcast and returns when the game is settled.
func (d *Dealer) Run() error {
	d.emit(CmdGameBegin, BroadcastAll, GameBeginParams{
		UnitPrototypes:  d.catalog.Units,
		SpellPrototypes: d.catalog.Spells,
		Timeout:         d.cfg.TurnTimeout.Seconds(),
		BoardSize:       [2]int{d.cfg.BoardCols, d.cfg.BoardRows},
		Players:         d.publicPlayers(),
	})

	for _, player := range d.players {
		for i := 0; i < d.cfg.HandInit; i++ {
			d.drawCard(player)
		}
	}

	for i := 0; ; i = (i + 1) % len(d.receivers) {
		recv := d.receivers[i]
		player := d.playerByID[recv.PlayerID()]

		nthTurn := d.state.BeginTurn(player.ID)
		d.upkeep(player)
		d.emit(CmdTurnBegin, BroadcastAll, TurnBeginParams{NthTurn: nthTurn, PlayerID: player.ID})
		d.drawCard(player)

		result := d.awaitCommands(recv, player)

		// turn_end is unconditional: explicit end, timeout, and the
		// game-over unwind all pass through here.
		d.emit(CmdTurnEnd, BroadcastAll, TurnEndParams{NthTurn: nthTurn})

		if result == stepGameOver {
			winnerID := d.result.WinnerID
			if d.result.Draw {
				winnerID = WinnerDraw
			}
			d.emit(CmdGameEnd, BroadcastAll, GameEndParams{WinnerID: winnerID})
			d.logger.Info("game ended",
				zap.String("winner_id", winnerID),
				zap.Int("nth_turn", nthTurn),
			)
			return nil
		}
	}
}

func (d *Dealer) publicPlayers() []PublicPlayer {
	public := make([]PublicPlayer, len(d.players))
	for i, player := range d.players {
		public[i] = player.Public()
	}
	return public
}

// upkeep runs the begin-turn maintenance. Every action is broadcast so
// clients can animate the change.
func (d *Dealer) upkeep(player *Player) {
	live := d.units.Live()

	unitIDs := make([]string, len(live))
	for i, unit := range live {
		unit.ResetStats()
		unitIDs[i] = unit.ID
	}
	d.emit(CmdResetStats, BroadcastAll, ResetStatsParams{UnitIDs: unitIDs})

	for _, unit := range live {
		if unit.NTurnsUntilMovable > 0 {
			unit.NTurnsUntilMovable--
		}
	}
	d.emit(CmdReduceCooldown, BroadcastAll, ReduceCooldownParams{Amount: 1})

	player.MaxCost++
	d.emit(CmdSetMaxCost, BroadcastAll, SetMaxCostParams{PlayerID: player.ID, MaxCost: player.MaxCost})
}

// drawCard draws one card for the player and emits the two-broadcast
// pattern: the card's identity to the drawer only, the draw itself to all.
func (d *Dealer) drawCard(player *Player) {
	if len(player.Hand) >= d.cfg.MaxHand {
		d.logger.Debug("draw skipped, hand full",
			zap.String("player_id", player.ID),
			zap.Int("hand_size", len(player.Hand)),
		)
		return
	}
	card := player.DrawCard()
	if card == nil {
		d.logger.Debug("draw skipped, deck empty", zap.String("player_id", player.ID))
		return
	}
	d.emit(CmdSetCardInfo, player.ID, SetCardInfoParams{Card: card})
	d.emit(CmdDraw, BroadcastAll, DrawParams{DrawerID: player.ID, CardID: card.ID})
}

// awaitCommands receives and dispatches the active player's commands until
// the turn or the game is over. Malformed messages, stale turn numbers, and
// unknown command types are discarded without notifying anyone.
func (d *Dealer) awaitCommands(recv Channel, player *Player) stepResult {
	deadline := time.Now().Add(d.cfg.TurnTimeout + d.grace)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return d.turnTimeout(player)
		}

		payload, err := recv.Receive(remaining)
		if err != nil {
			if errors.Is(err, ErrReceiveTimeout) {
				return d.turnTimeout(player)
			}
			if errors.Is(err, ErrChannelClosed) {
				// The player is gone; the opponent wins by forfeit.
				d.logger.Info("channel closed, player forfeits", zap.String("player_id", player.ID))
				d.result = Outcome{Settled: true, WinnerID: d.opponentOf(player).ID}
				return stepGameOver
			}
			d.logger.Warn("receive failed", zap.String("player_id", player.ID), zap.Error(err))
			continue
		}

		cmd, err := DecodeClientCommand(payload)
		if err != nil {
			d.logger.Debug("discarding client message", zap.Error(err))
			continue
		}
		if cmd.NthTurn != d.state.NthTurn() {
			d.logger.Debug("discarding stale command",
				zap.String("type", cmd.Type),
				zap.Int("nth_turn", cmd.NthTurn),
				zap.Int("current", d.state.NthTurn()),
			)
			continue
		}

		switch d.dispatch(cmd, player) {
		case stepTurnOver:
			return stepTurnOver
		case stepGameOver:
			return stepGameOver
		}

		if outcome := d.judge.Evaluate(d.board, d.players, d.units); outcome.Settled {
			d.result = outcome
			return stepGameOver
		}
	}
}

// turnTimeout notifies the active player only; running out of time ends the
// turn, not the game.
func (d *Dealer) turnTimeout(player *Player) stepResult {
	d.emit(CmdNotification, player.ID, NotificationParams{
		Message: "Time's up.",
		Type:    NotificationInformation,
	})
	return stepTurnOver
}

func (d *Dealer) dispatch(cmd *ClientCommand, player *Player) stepResult {
	switch cmd.Type {
	case CmdUseUnitCard:
		d.handleUseUnitCard(player, cmd.UseCard)
	case CmdUseSpellCard:
		d.handleUseSpellCard(player, cmd.UseCard)
	case CmdCellToCell:
		d.handleCellToCell(player, cmd.CellToCell)
	case CmdTurnEnd:
		return stepTurnOver
	case CmdResign:
		opponent := d.opponentOf(player)
		d.logger.Info("player resigned", zap.String("player_id", player.ID))
		d.result = Outcome{Settled: true, WinnerID: opponent.ID}
		return stepGameOver
	}
	return stepContinue
}

func (d *Dealer) opponentOf(player *Player) *Player {
	return d.players[(player.SeatIndex+1)%len(d.players)]
}

// recomputeCost rebuilds a player's running cost from the live units rather
// than tracking it incrementally, so it cannot drift.
func (d *Dealer) recomputeCost(player *Player) {
	total := 0
	for _, unit := range d.units.Live() {
		if unit.PlayerID == player.ID {
			total += unit.Cost
		}
	}
	player.Cost = total
}

// emit marshals a command stamped with the current turn number and delivers
// it to every sender matching send_to.
func (d *Dealer) emit(cmdType, sendTo string, params any) {
	cmd, err := NewCommand(cmdType, sendTo, d.state.NthTurn(), params)
	if err != nil {
		d.logger.Error("failed to build command", zap.String("type", cmdType), zap.Error(err))
		return
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		d.logger.Error("failed to marshal command", zap.String("type", cmdType), zap.Error(err))
		return
	}
	for _, sender := range d.senders {
		if sendTo == BroadcastAll || sendTo == sender.PlayerID() {
			sender.Send(payload)
		}
	}
	d.logger.Debug("dealer command",
		zap.String("type", cmdType),
		zap.String("send_to", sendTo),
		zap.Int("nth_turn", d.state.NthTurn()),
	)
}
