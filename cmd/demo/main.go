// Command demo runs a full match between two scripted bots over in-process
// channels and prints the dealer traffic. Useful for eyeballing the wire
// protocol without a WebSocket client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wildwar/wildwar-server-go/internal/catalog"
	"github.com/wildwar/wildwar-server-go/internal/game"
)

var (
	dataDir  = flag.String("data", "data", "directory with prototype files")
	maxTurns = flag.Int("max-turns", 40, "resign after this many turns")
	seed     = flag.Int64("seed", 0, "random seed, 0 picks one from the clock")
	verbose  = flag.Bool("verbose", false, "print every dealer command")
)

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cat, err := catalog.Load(*dataDir)
	if err != nil {
		logger.Fatal("failed to load prototype catalog", zap.Error(err))
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	logger.Info("starting demo match", zap.Int64("seed", *seed))

	dealerA, clientA := game.NewQueuePair("alice")
	dealerB, clientB := game.NewQueuePair("bob")

	cfg := game.Config{
		BoardCols:   5,
		BoardRows:   7,
		TurnTimeout: 3 * time.Second,
		HandInit:    4,
		MaxHand:     7,
		DeckSize:    20,
		UnitRatio:   1,
		PlayerOrder: game.PlayerOrderIteration,
	}
	dealer, err := game.NewDealer(cfg, cat, []game.Channel{dealerA, dealerB}, game.Options{
		Rand: rand.New(rand.NewSource(*seed)),
	}, logger)
	if err != nil {
		logger.Fatal("dealer construction failed", zap.Error(err))
	}

	go newBot(clientA, rand.New(rand.NewSource(*seed+1)), logger).run()
	go newBot(clientB, rand.New(rand.NewSource(*seed+2)), logger).run()

	if err := dealer.Run(); err != nil {
		logger.Fatal("match aborted", zap.Error(err))
	}

	result := dealer.Result()
	winner := result.WinnerID
	if result.Draw {
		winner = "draw"
	}
	logger.Info("demo match finished",
		zap.String("winner", winner),
		zap.Int("turns", dealer.Turns()),
	)
}

// bot is a minimal scripted client: on its turn it plays one card if it can
// afford a cell for it, then ends the turn.
type bot struct {
	ch     *game.QueueChannel
	rng    *rand.Rand
	logger *zap.Logger

	firstRowPrefix string
	boardCols      int
	maxCost        int
	hand           []string
	cardCost       map[string]int
	costInPlay     int
}

func newBot(ch *game.QueueChannel, rng *rand.Rand, logger *zap.Logger) *bot {
	return &bot{
		ch:       ch,
		rng:      rng,
		logger:   logger.Named("bot." + ch.PlayerID()),
		cardCost: make(map[string]int),
	}
}

func (b *bot) run() {
	unitCosts := make(map[string]int)
	for {
		payload, err := b.ch.Receive(30 * time.Second)
		if err != nil {
			b.logger.Debug("receive failed, bot exiting", zap.Error(err))
			return
		}
		var cmd game.Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			continue
		}
		if *verbose {
			b.logger.Info("received", zap.String("type", cmd.Type), zap.Int("nth_turn", cmd.NthTurn))
		}

		switch cmd.Type {
		case game.CmdGameBegin:
			var params game.GameBeginParams
			if err := json.Unmarshal(cmd.Params, &params); err != nil {
				continue
			}
			b.boardCols = params.BoardSize[0]
			for id, proto := range params.UnitPrototypes {
				unitCosts[id] = proto.Cost
			}
			for _, player := range params.Players {
				if player.ID == b.ch.PlayerID() {
					b.firstRowPrefix = player.FirstRowPrefix
				}
			}
		case game.CmdSetCardInfo:
			var params game.SetCardInfoParams
			if err := json.Unmarshal(cmd.Params, &params); err != nil {
				continue
			}
			b.hand = append(b.hand, params.Card.ID)
			b.cardCost[params.Card.ID] = unitCosts[params.Card.PrototypeID]
		case game.CmdSetMaxCost:
			var params game.SetMaxCostParams
			if err := json.Unmarshal(cmd.Params, &params); err != nil {
				continue
			}
			if params.PlayerID == b.ch.PlayerID() {
				b.maxCost = params.MaxCost
			}
		case game.CmdTurnBegin:
			var params game.TurnBeginParams
			if err := json.Unmarshal(cmd.Params, &params); err != nil {
				continue
			}
			if params.PlayerID != b.ch.PlayerID() {
				continue
			}
			b.takeTurn(params.NthTurn)
		case game.CmdGameEnd:
			return
		}
	}
}

func (b *bot) takeTurn(nthTurn int) {
	if nthTurn > *maxTurns {
		b.send(game.CmdResign, nthTurn, nil)
		return
	}
	if len(b.hand) > 0 {
		cardID := b.hand[0]
		if b.cardCost[cardID]+b.costInPlay <= b.maxCost {
			cell := fmt.Sprintf("%s%d", b.firstRowPrefix, b.rng.Intn(b.boardCols))
			b.send(game.CmdUseUnitCard, nthTurn, game.UseCardParams{CardID: cardID, CellToID: cell})
			b.hand = b.hand[1:]
			b.costInPlay += b.cardCost[cardID]
		}
	}
	b.send(game.CmdTurnEnd, nthTurn, nil)
}

func (b *bot) send(cmdType string, nthTurn int, params any) {
	cmd, err := game.NewCommand(cmdType, "", nthTurn, params)
	if err != nil {
		b.logger.Error("failed to build command", zap.Error(err))
		return
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		b.logger.Error("failed to marshal command", zap.Error(err))
		return
	}
	b.ch.Send(payload)
}
