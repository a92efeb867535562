// Package server hosts the WebSocket lobby that pairs players and runs
// matches through the dealer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wildwar/wildwar-server-go/internal/catalog"
	"github.com/wildwar/wildwar-server-go/internal/config"
	"github.com/wildwar/wildwar-server-go/internal/game"
	"github.com/wildwar/wildwar-server-go/internal/store"
)

const joinTimeout = 10 * time.Second

var errEmptyPlayerID = errors.New("server: join without player_id")

// joinRequest is the first message a client sends after connecting.
type joinRequest struct {
	PlayerID  string `json:"player_id"`
	AccessKey string `json:"access_key,omitempty"`
}

// lobbyMessage is what the lobby itself sends before a match begins.
type lobbyMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Lobby pairs joining players two at a time and runs one dealer per match.
type Lobby struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	results  store.Store
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu         sync.Mutex
	waiting    *wsChannel
	spectators []*wsChannel
}

// NewLobby creates a lobby backed by the given result store.
func NewLobby(cfg *config.Config, cat *catalog.Catalog, results store.Store, logger *zap.Logger) *Lobby {
	return &Lobby{
		cfg:     cfg,
		catalog: cat,
		results: results,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the lobby's HTTP routes.
func (l *Lobby) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/join", l.handleJoin)
	mux.HandleFunc("/watch", l.handleWatch)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (l *Lobby) handleJoin(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	join, err := readJoin(conn)
	if err != nil {
		l.logger.Warn("join handshake failed", zap.Error(err))
		conn.Close()
		return
	}
	if !checkAccess(l.cfg.Auth.AccessKeyHash, join.AccessKey) {
		l.logger.Warn("join rejected, bad access key", zap.String("player_id", join.PlayerID))
		writeLobbyMessage(conn, lobbyMessage{Type: "rejected", Message: "invalid access key"})
		conn.Close()
		return
	}

	ch := newWSChannel(join.PlayerID, conn, l.logger)
	l.logger.Info("player joined", zap.String("player_id", join.PlayerID))

	l.mu.Lock()
	if l.waiting == nil {
		l.waiting = ch
		l.mu.Unlock()
		ch.Send(mustMarshal(lobbyMessage{Type: "waiting", Message: "waiting for an opponent"}))
		return
	}
	if l.waiting.PlayerID() == ch.PlayerID() {
		l.mu.Unlock()
		ch.Send(mustMarshal(lobbyMessage{Type: "rejected", Message: "player id already waiting"}))
		ch.Close()
		return
	}
	opponent := l.waiting
	l.waiting = nil
	spectators := l.spectators
	l.spectators = nil
	l.mu.Unlock()

	go l.runMatch(opponent, ch, spectators)
}

// handleWatch attaches a spectator to the next match to start. Spectators
// only ever receive broadcasts; anything they send is ignored.
func (l *Lobby) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := newWSChannel("$spectator."+uuid.NewString(), conn, l.logger)
	l.mu.Lock()
	l.spectators = append(l.spectators, ch)
	l.mu.Unlock()

	l.logger.Info("spectator joined")
	ch.Send(mustMarshal(lobbyMessage{Type: "waiting", Message: "waiting for the next match"}))
}

func readJoin(conn *websocket.Conn) (*joinRequest, error) {
	conn.SetReadDeadline(time.Now().Add(joinTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, payload, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var join joinRequest
	if err := json.Unmarshal(payload, &join); err != nil {
		return nil, err
	}
	if join.PlayerID == "" {
		return nil, errEmptyPlayerID
	}
	return &join, nil
}

// runMatch owns both channels for the duration of one game.
func (l *Lobby) runMatch(first, second *wsChannel, spectators []*wsChannel) {
	matchID := uuid.NewString()
	startedAt := time.Now()
	logger := l.logger.With(zap.String("match_id", matchID))

	defer first.Close()
	defer second.Close()
	for _, watcher := range spectators {
		defer watcher.Close()
	}

	watcherChannels := make([]game.Channel, len(spectators))
	for i, watcher := range spectators {
		watcherChannels[i] = watcher
	}

	gameCfg := game.Config{
		BoardCols:   l.cfg.Game.BoardCols,
		BoardRows:   l.cfg.Game.BoardRows,
		TurnTimeout: l.cfg.Game.TurnTimeout,
		HandInit:    l.cfg.Game.HandInit,
		MaxHand:     l.cfg.Game.MaxHand,
		DeckSize:    l.cfg.Game.DeckSize,
		UnitRatio:   l.cfg.Game.UnitRatio,
		PlayerOrder: l.cfg.Game.PlayerOrder,
	}
	dealer, err := game.NewDealer(gameCfg, l.catalog, []game.Channel{first, second}, game.Options{Spectators: watcherChannels}, logger)
	if err != nil {
		logger.Error("dealer construction failed", zap.Error(err))
		return
	}

	logger.Info("match started",
		zap.String("player_1", first.PlayerID()),
		zap.String("player_2", second.PlayerID()),
	)
	if err := dealer.Run(); err != nil {
		logger.Error("match aborted", zap.Error(err))
		return
	}

	result := dealer.Result()
	record := store.MatchResult{
		MatchID:    matchID,
		PlayerIDs:  []string{first.PlayerID(), second.PlayerID()},
		WinnerID:   result.WinnerID,
		Draw:       result.Draw,
		Turns:      dealer.Turns(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.results.SaveResult(ctx, record); err != nil {
		logger.Error("failed to save match result", zap.Error(err))
	}
	logger.Info("match finished",
		zap.String("winner_id", result.WinnerID),
		zap.Bool("draw", result.Draw),
		zap.Int("turns", record.Turns),
	)
}

func writeLobbyMessage(conn *websocket.Conn, msg lobbyMessage) {
	payload := mustMarshal(msg)
	conn.WriteMessage(websocket.TextMessage, payload)
}

func mustMarshal(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return payload
}
