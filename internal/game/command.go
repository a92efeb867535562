package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wildwar/wildwar-server-go/internal/catalog"
)

// BroadcastAll is the send_to sentinel meaning "deliver to every recipient".
const BroadcastAll = "$all"

// commandKlass tags every wire message.
const commandKlass = "Command"

// Client→server command types.
const (
	CmdUseUnitCard  = "use_unitcard"
	CmdUseSpellCard = "use_spellcard"
	CmdCellToCell   = "cell_to_cell"
	CmdTurnEnd      = "turn_end"
	CmdResign       = "resign"
)

// Server→client command types.
const (
	CmdGameBegin      = "game_begin"
	CmdDraw           = "draw"
	CmdSetCardInfo    = "set_card_info"
	CmdTurnBegin      = "turn_begin"
	CmdResetStats     = "reset_stats"
	CmdReduceCooldown = "reduce_n_turns_until_movable_by"
	CmdSetMaxCost     = "set_max_cost"
	CmdMove           = "move"
	CmdAttack         = "attack"
	CmdNotification   = "notification"
	CmdGameEnd        = "game_end"
)

// Notification types carried by CmdNotification params.
const (
	NotificationDisallowed  = "disallowed"
	NotificationInformation = "information"
	NotificationWarning     = "warning"
)

// DeadBoth is the attack dead_id sentinel meaning both units died.
const DeadBoth = "$both"

// WinnerDraw is the game_end winner_id sentinel for a drawn game.
const WinnerDraw = "$draw"

// Command is the wire message shape in both directions.
type Command struct {
	Klass   string          `json:"klass"`
	Type    string          `json:"type"`
	SendTo  string          `json:"send_to"`
	NthTurn int             `json:"nth_turn"`
	Params  json.RawMessage `json:"params"`
}

// NewCommand builds an outbound command, marshaling params in place.
func NewCommand(cmdType, sendTo string, nthTurn int, params any) (Command, error) {
	cmd := Command{
		Klass:   commandKlass,
		Type:    cmdType,
		SendTo:  sendTo,
		NthTurn: nthTurn,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Command{}, fmt.Errorf("game: marshal %s params: %w", cmdType, err)
		}
		cmd.Params = raw
	}
	return cmd, nil
}

// GameBeginParams announces the full catalog, timing, geometry, and the
// redacted player list.
type GameBeginParams struct {
	UnitPrototypes  map[string]*catalog.UnitPrototype  `json:"unit_prototype_dict"`
	SpellPrototypes map[string]*catalog.SpellPrototype `json:"spell_prototype_dict"`
	Timeout         float64                            `json:"timeout"`
	BoardSize       [2]int                             `json:"board_size"`
	Players         []PublicPlayer                     `json:"player_list"`
}

// SetCardInfoParams reveals a card's prototype. Sent to the drawing player
// on draws, and to everyone when the card is played.
type SetCardInfoParams struct {
	Card *Card `json:"card"`
}

// DrawParams announces a draw by card id only; the card stays face down
// for everyone but the drawer.
type DrawParams struct {
	DrawerID string `json:"drawer_id"`
	CardID   string `json:"card_id"`
}

// TurnBeginParams opens a turn.
type TurnBeginParams struct {
	NthTurn  int    `json:"nth_turn"`
	PlayerID string `json:"player_id"`
}

// TurnEndParams closes a turn.
type TurnEndParams struct {
	NthTurn int `json:"nth_turn"`
}

// ResetStatsParams lists the units whose live stats were reset to their
// baselines during upkeep.
type ResetStatsParams struct {
	UnitIDs []string `json:"unit_ids"`
}

// ReduceCooldownParams announces the upkeep cooldown decay.
type ReduceCooldownParams struct {
	Amount int `json:"amount"`
}

// SetMaxCostParams announces a player's new cost cap.
type SetMaxCostParams struct {
	PlayerID string `json:"player_id"`
	MaxCost  int    `json:"max_cost"`
}

// UnitPlacedParams announces a successfully played unit card.
type UnitPlacedParams struct {
	CardID   string        `json:"card_id"`
	Unit     *UnitInstance `json:"unit"`
	CellToID string        `json:"cell_to_id"`
}

// MoveParams announces a single-step unit move.
type MoveParams struct {
	UnitID             string `json:"unit_id"`
	CellFromID         string `json:"cell_from_id"`
	CellToID           string `json:"cell_to_id"`
	NTurnsUntilMovable int    `json:"n_turns_until_movable"`
}

// AttackParams announces a resolved attack. DeadID is the id of the dead
// unit, or DeadBoth when both died. Attacker and Defender carry post-combat
// stats so clients can animate the resolution.
type AttackParams struct {
	AttackerID string        `json:"attacker_id"`
	DefenderID string        `json:"defender_id"`
	CellFromID string        `json:"cell_from_id"`
	CellToID   string        `json:"cell_to_id"`
	DeadID     string        `json:"dead_id"`
	Attacker   *UnitInstance `json:"attacker"`
	Defender   *UnitInstance `json:"defender"`
}

// NotificationParams carries a player-visible message.
type NotificationParams struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GameEndParams reports the winner, or WinnerDraw for a drawn game.
type GameEndParams struct {
	WinnerID string `json:"winner_id"`
}

// UseCardParams is the payload of use_unitcard and use_spellcard.
type UseCardParams struct {
	CardID   string `json:"card_id"`
	CellToID string `json:"cell_to_id"`
}

// CellToCellParams is the payload of cell_to_cell.
type CellToCellParams struct {
	CellFromID string `json:"cell_from_id"`
	CellToID   string `json:"cell_to_id"`
}

// Decode failures. Both are protocol noise: logged and discarded, never
// surfaced to players.
var (
	ErrMalformedCommand = errors.New("game: malformed command")
	ErrUnknownCommand   = errors.New("game: unknown command type")
)

// ClientCommand is a client command decoded and structurally validated once
// at the boundary. Handlers downstream never re-check field presence.
type ClientCommand struct {
	Type    string
	NthTurn int

	// Exactly one of these is set, matching Type.
	UseCard    *UseCardParams
	CellToCell *CellToCellParams
}

// DecodeClientCommand parses an untrusted payload into a typed client
// command. Structurally incomplete messages fail with ErrMalformedCommand,
// unrecognized types with ErrUnknownCommand.
func DecodeClientCommand(payload []byte) (*ClientCommand, error) {
	var env Command
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if env.Klass != commandKlass || env.Type == "" {
		return nil, fmt.Errorf("%w: klass %q type %q", ErrMalformedCommand, env.Klass, env.Type)
	}

	cmd := &ClientCommand{Type: env.Type, NthTurn: env.NthTurn}
	switch env.Type {
	case CmdUseUnitCard, CmdUseSpellCard:
		var params UseCardParams
		if err := unmarshalParams(env.Params, &params); err != nil {
			return nil, err
		}
		if params.CardID == "" || params.CellToID == "" {
			return nil, fmt.Errorf("%w: %s requires card_id and cell_to_id", ErrMalformedCommand, env.Type)
		}
		cmd.UseCard = &params
	case CmdCellToCell:
		var params CellToCellParams
		if err := unmarshalParams(env.Params, &params); err != nil {
			return nil, err
		}
		if params.CellFromID == "" || params.CellToID == "" {
			return nil, fmt.Errorf("%w: cell_to_cell requires cell_from_id and cell_to_id", ErrMalformedCommand)
		}
		cmd.CellToCell = &params
	case CmdTurnEnd, CmdResign:
		// No params.
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
	return cmd, nil
}

func unmarshalParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing params", ErrMalformedCommand)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	return nil
}
