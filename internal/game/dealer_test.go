package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wildwar/wildwar-server-go/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Units: map[string]*catalog.UnitPrototype{
			"soldier": {ID: "soldier", Cost: 1, Power: 2, Attack: 1, Defense: 1, SkillIDs: []string{}, Tags: []string{}},
			"knight":  {ID: "knight", Cost: 2, Power: 5, Attack: 2, Defense: 3, SkillIDs: []string{}, Tags: []string{}},
		},
		Spells: map[string]*catalog.SpellPrototype{},
	}
}

func testConfig() Config {
	return Config{
		BoardCols:   5,
		BoardRows:   6,
		TurnTimeout: time.Minute,
		HandInit:    2,
		MaxHand:     7,
		DeckSize:    10,
		UnitRatio:   1,
		PlayerOrder: PlayerOrderIteration,
	}
}

// fixedDeckBuilder deals n copies of one prototype, keeping tests
// deterministic without a seeded random source.
type fixedDeckBuilder struct {
	protoID string
	n       int
}

func (b fixedDeckBuilder) Build(playerID string, cards *CardFactory, cat *catalog.Catalog) []*Card {
	deck := make([]*Card, 0, b.n)
	for i := 0; i < b.n; i++ {
		deck = append(deck, cards.Create(b.protoID))
	}
	return deck
}

type testClient struct {
	t  *testing.T
	ch *QueueChannel
}

func (c *testClient) recv() Command {
	c.t.Helper()
	payload, err := c.ch.Receive(2 * time.Second)
	require.NoError(c.t, err, "expected a command from the dealer")
	var cmd Command
	require.NoError(c.t, json.Unmarshal(payload, &cmd))
	return cmd
}

// waitFor discards commands until one of the given type arrives.
func (c *testClient) waitFor(cmdType string) Command {
	c.t.Helper()
	for i := 0; i < 100; i++ {
		cmd := c.recv()
		if cmd.Type == cmdType {
			return cmd
		}
	}
	c.t.Fatalf("no %s command received", cmdType)
	return Command{}
}

func (c *testClient) send(cmdType string, nthTurn int, params any) {
	c.t.Helper()
	cmd, err := NewCommand(cmdType, "", nthTurn, params)
	require.NoError(c.t, err)
	payload, err := json.Marshal(cmd)
	require.NoError(c.t, err)
	c.ch.Send(payload)
}

func (c *testClient) sendRaw(payload []byte) {
	c.ch.Send(payload)
}

func (c *testClient) idle() bool {
	_, ok := c.ch.ReceiveNowait()
	return !ok
}

func decodeParams(t *testing.T, cmd Command, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(cmd.Params, dst))
}

func newTestDealer(t *testing.T, cfg Config, opts Options) (*Dealer, *testClient, *testClient) {
	t.Helper()
	dealerA, clientA := NewQueuePair("alice")
	dealerB, clientB := NewQueuePair("bob")
	if opts.DeckBuilder == nil {
		opts.DeckBuilder = fixedDeckBuilder{protoID: "soldier", n: cfg.DeckSize}
	}
	d, err := NewDealer(cfg, testCatalog(), []Channel{dealerA, dealerB}, opts, zap.NewNop())
	require.NoError(t, err)
	return d, &testClient{t, clientA}, &testClient{t, clientB}
}

// runDealer starts Run on its own goroutine and returns a channel closed
// when it returns.
func runDealer(t *testing.T, d *Dealer) <-chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := d.Run(); err != nil {
			t.Errorf("dealer run: %v", err)
		}
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dealer did not finish")
	}
}

func TestNewDealerValidation(t *testing.T) {
	cat := testCatalog()
	chA, _ := NewQueuePair("alice")
	chB, _ := NewQueuePair("bob")
	chA2, _ := NewQueuePair("alice")
	logger := zap.NewNop()

	tests := []struct {
		name     string
		mutate   func(*Config)
		channels []Channel
	}{
		{"cols too small", func(c *Config) { c.BoardCols = 2 }, []Channel{chA, chB}},
		{"cols too large", func(c *Config) { c.BoardCols = 10 }, []Channel{chA, chB}},
		{"rows too small", func(c *Config) { c.BoardRows = 3 }, []Channel{chA, chB}},
		{"zero timeout", func(c *Config) { c.TurnTimeout = 0 }, []Channel{chA, chB}},
		{"negative hand", func(c *Config) { c.HandInit = -1 }, []Channel{chA, chB}},
		{"cap below hand", func(c *Config) { c.MaxHand = 1 }, []Channel{chA, chB}},
		{"deck too small", func(c *Config) { c.DeckSize = 2 }, []Channel{chA, chB}},
		{"ratio out of range", func(c *Config) { c.UnitRatio = 1.5 }, []Channel{chA, chB}},
		{"unknown order", func(c *Config) { c.PlayerOrder = "clockwise" }, []Channel{chA, chB}},
		{"one channel", func(c *Config) {}, []Channel{chA}},
		{"duplicate player ids", func(c *Config) {}, []Channel{chA, chA2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewDealer(cfg, cat, tt.channels, Options{}, logger)
			assert.Error(t, err)
		})
	}
}

func TestNewDealerSeatGeometry(t *testing.T) {
	d, _, _ := newTestDealer(t, testConfig(), Options{})
	players := d.Players()
	require.Len(t, players, 2)

	alice, bob := players[0], players[1]
	assert.Equal(t, "alice", alice.ID)
	assert.Equal(t, 0, alice.SeatIndex)
	assert.Equal(t, "b", alice.HomeRowPrefix)
	assert.Equal(t, "1", alice.FirstRowPrefix)
	assert.Equal(t, "2", alice.SecondRowPrefix)

	assert.Equal(t, "bob", bob.ID)
	assert.Equal(t, 1, bob.SeatIndex)
	assert.Equal(t, "w", bob.HomeRowPrefix)
	assert.Equal(t, "4", bob.FirstRowPrefix)
	assert.Equal(t, "3", bob.SecondRowPrefix)

	assert.Len(t, alice.Deck, 10)
	assert.Len(t, bob.Deck, 10)
	assert.NotEqual(t, alice.Color, bob.Color)
}

func TestOpeningSequence(t *testing.T) {
	d, clientA, clientB := newTestDealer(t, testConfig(), Options{})
	done := runDealer(t, d)

	begin := clientA.recv()
	require.Equal(t, CmdGameBegin, begin.Type)
	assert.Equal(t, "Command", begin.Klass)
	assert.Equal(t, BroadcastAll, begin.SendTo)
	assert.Equal(t, 0, begin.NthTurn)

	var params GameBeginParams
	decodeParams(t, begin, &params)
	assert.Equal(t, 60.0, params.Timeout)
	assert.Equal(t, [2]int{5, 6}, params.BoardSize)
	assert.Len(t, params.UnitPrototypes, 2)
	require.Len(t, params.Players, 2)
	assert.Equal(t, "alice", params.Players[0].ID)
	assert.Equal(t, 10, params.Players[0].NCardsInDeck)
	assert.Equal(t, 0, params.Players[0].NTefuda)

	// Opening hands: each client sees its own cards revealed and every
	// draw announced.
	var mine, draws int
	for mine < 2 || draws < 4 {
		cmd := clientA.recv()
		switch cmd.Type {
		case CmdSetCardInfo:
			mine++
		case CmdDraw:
			draws++
		default:
			t.Fatalf("unexpected %s during opening draws", cmd.Type)
		}
		assert.Equal(t, 0, cmd.NthTurn)
	}

	turnBegin := clientA.waitFor(CmdTurnBegin)
	var tb TurnBeginParams
	decodeParams(t, turnBegin, &tb)
	assert.Equal(t, 1, tb.NthTurn)
	assert.Equal(t, "alice", tb.PlayerID)

	clientB.waitFor(CmdTurnBegin)
	clientA.send(CmdResign, 1, nil)

	end := clientA.waitFor(CmdGameEnd)
	var ge GameEndParams
	decodeParams(t, end, &ge)
	assert.Equal(t, "bob", ge.WinnerID)
	waitDone(t, done)

	// Opening hands plus the single turn-1 draw for alice.
	alice, bob := d.Players()[0], d.Players()[1]
	assert.Len(t, alice.Hand, 3)
	assert.Len(t, alice.Deck, 7)
	assert.Len(t, bob.Hand, 2)
	assert.Len(t, bob.Deck, 8)
}

func TestUpkeepBroadcasts(t *testing.T) {
	d, clientA, _ := newTestDealer(t, testConfig(), Options{})
	done := runDealer(t, d)

	reset := clientA.waitFor(CmdResetStats)
	var rs ResetStatsParams
	decodeParams(t, reset, &rs)
	assert.Empty(t, rs.UnitIDs)

	cooldown := clientA.recv()
	require.Equal(t, CmdReduceCooldown, cooldown.Type)
	var rc ReduceCooldownParams
	decodeParams(t, cooldown, &rc)
	assert.Equal(t, 1, rc.Amount)

	maxCost := clientA.recv()
	require.Equal(t, CmdSetMaxCost, maxCost.Type)
	var mc SetMaxCostParams
	decodeParams(t, maxCost, &mc)
	assert.Equal(t, "alice", mc.PlayerID)
	assert.Equal(t, 1, mc.MaxCost)

	clientA.send(CmdResign, 1, nil)
	clientA.waitFor(CmdGameEnd)
	waitDone(t, done)
}

func TestTurnEndRotatesPlayers(t *testing.T) {
	d, clientA, clientB := newTestDealer(t, testConfig(), Options{})
	done := runDealer(t, d)

	clientA.waitFor(CmdTurnBegin)
	clientA.send(CmdTurnEnd, 1, nil)

	endCmd := clientA.waitFor(CmdTurnEnd)
	var te TurnEndParams
	decodeParams(t, endCmd, &te)
	assert.Equal(t, 1, te.NthTurn)

	clientB.waitFor(CmdTurnBegin)
	second := clientB.waitFor(CmdTurnBegin)
	var tb TurnBeginParams
	decodeParams(t, second, &tb)
	assert.Equal(t, 2, tb.NthTurn)
	assert.Equal(t, "bob", tb.PlayerID)

	clientB.send(CmdResign, 2, nil)
	clientB.waitFor(CmdGameEnd)
	waitDone(t, done)
}

func TestStaleAndMalformedCommandsDiscarded(t *testing.T) {
	d, clientA, clientB := newTestDealer(t, testConfig(), Options{})
	done := runDealer(t, d)

	clientA.waitFor(CmdTurnBegin)

	clientA.sendRaw([]byte("not json"))
	clientA.sendRaw([]byte(`{"klass":"Command","type":"teleport","send_to":"","nth_turn":1,"params":{}}`))
	clientA.send(CmdTurnEnd, 99, nil)

	// None of the noise ends the turn; a well-formed turn_end still does.
	clientA.send(CmdTurnEnd, 1, nil)
	turnEnd := clientA.waitFor(CmdTurnEnd)
	var te TurnEndParams
	decodeParams(t, turnEnd, &te)
	assert.Equal(t, 1, te.NthTurn)

	clientB.waitFor(CmdTurnBegin)
	clientB.waitFor(CmdTurnBegin)
	clientB.send(CmdResign, 2, nil)
	clientB.waitFor(CmdGameEnd)
	waitDone(t, done)
}

func TestTurnTimeoutNotifiesActivePlayerOnly(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 50 * time.Millisecond
	d, clientA, clientB := newTestDealer(t, cfg, Options{})
	d.grace = 0
	done := runDealer(t, d)

	clientA.waitFor(CmdTurnBegin)
	note := clientA.waitFor(CmdNotification)
	var np NotificationParams
	decodeParams(t, note, &np)
	assert.Equal(t, "Time's up.", np.Message)
	assert.Equal(t, NotificationInformation, np.Type)

	clientA.waitFor(CmdTurnEnd)

	// The opponent sees the turn end without any notification.
	clientB.waitFor(CmdTurnBegin)
	for {
		cmd := clientB.recv()
		require.NotEqual(t, CmdNotification, cmd.Type)
		if cmd.Type == CmdTurnEnd {
			break
		}
	}

	// Resign on every turn bob gets; with a 50ms timeout the first attempt
	// may itself arrive late and be discarded as stale.
	for {
		cmd := clientB.recv()
		switch cmd.Type {
		case CmdTurnBegin:
			var tb TurnBeginParams
			decodeParams(t, cmd, &tb)
			if tb.PlayerID == "bob" {
				clientB.send(CmdResign, tb.NthTurn, nil)
			}
		case CmdGameEnd:
			waitDone(t, done)
			return
		}
	}
}

func TestResignEndsGameWithOpponentWin(t *testing.T) {
	d, clientA, clientB := newTestDealer(t, testConfig(), Options{})
	done := runDealer(t, d)

	clientA.waitFor(CmdTurnBegin)
	clientA.send(CmdResign, 1, nil)

	// turn_end still precedes game_end on the resign path.
	clientB.waitFor(CmdTurnEnd)
	end := clientB.recv()
	require.Equal(t, CmdGameEnd, end.Type)
	var ge GameEndParams
	decodeParams(t, end, &ge)
	assert.Equal(t, "bob", ge.WinnerID)

	waitDone(t, done)
	result := d.Result()
	assert.True(t, result.Settled)
	assert.Equal(t, "bob", result.WinnerID)
}

func TestHomeRowVictory(t *testing.T) {
	d, clientA, _ := newTestDealer(t, testConfig(), Options{})

	alice := d.Players()[0]
	unit, err := d.units.Create("soldier", alice.ID)
	require.NoError(t, err)
	d.board.Attach("40", unit.ID)

	done := runDealer(t, d)
	clientA.waitFor(CmdTurnBegin)

	// Upkeep made the unit movable; one step into the opposing home row
	// wins the game.
	clientA.send(CmdCellToCell, 1, CellToCellParams{CellFromID: "40", CellToID: "w0"})

	move := clientA.waitFor(CmdMove)
	var mp MoveParams
	decodeParams(t, move, &mp)
	assert.Equal(t, "w0", mp.CellToID)

	turnEnd := clientA.recv()
	require.Equal(t, CmdTurnEnd, turnEnd.Type)
	end := clientA.recv()
	require.Equal(t, CmdGameEnd, end.Type)
	var ge GameEndParams
	decodeParams(t, end, &ge)
	assert.Equal(t, "alice", ge.WinnerID)
	waitDone(t, done)
}

func TestSpectatorsReceiveBroadcastsOnly(t *testing.T) {
	watcherDealerEnd, watcherClientEnd := NewQueuePair("watcher")
	cfg := testConfig()
	d, clientA, _ := newTestDealer(t, cfg, Options{Spectators: []Channel{watcherDealerEnd}})
	done := runDealer(t, d)

	watcher := &testClient{t, watcherClientEnd}
	begin := watcher.recv()
	assert.Equal(t, CmdGameBegin, begin.Type)

	// Opening card reveals go to their owners, never to the stand.
	for i := 0; i < 4; i++ {
		cmd := watcher.recv()
		assert.Equal(t, CmdDraw, cmd.Type)
	}

	clientA.waitFor(CmdTurnBegin)
	clientA.send(CmdResign, 1, nil)
	watcher.waitFor(CmdGameEnd)
	waitDone(t, done)
}

func TestDrawSkippedWhenHandFull(t *testing.T) {
	cfg := testConfig()
	cfg.HandInit = 2
	cfg.MaxHand = 2
	d, clientA, _ := newTestDealer(t, cfg, Options{})

	alice := d.Players()[0]
	alice.DrawCard()
	alice.DrawCard()
	require.Len(t, alice.Hand, 2)

	d.drawCard(alice)
	assert.Len(t, alice.Hand, 2)
	assert.Len(t, alice.Deck, 8)
	assert.True(t, clientA.idle())
}

func TestDrawSkippedWhenDeckEmpty(t *testing.T) {
	d, clientA, _ := newTestDealer(t, testConfig(), Options{})

	alice := d.Players()[0]
	alice.Deck = nil
	d.drawCard(alice)
	assert.Empty(t, alice.Hand)
	assert.True(t, clientA.idle())
}
