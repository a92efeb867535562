package game

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// disallow rejects a gameplay command. Only the offending player hears about
// it; the opponent's view is unchanged.
func (d *Dealer) disallow(player *Player, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	d.logger.Debug("command disallowed",
		zap.String("player_id", player.ID),
		zap.String("reason", message),
	)
	d.emit(CmdNotification, player.ID, NotificationParams{
		Message: message,
		Type:    NotificationDisallowed,
	})
}

// handleUseUnitCard plays a unit card from the hand onto an empty cell.
// Checks run in a fixed order so the player always learns the first thing
// wrong with the command.
func (d *Dealer) handleUseUnitCard(player *Player, params *UseCardParams) {
	card, ok := d.cards.Get(params.CardID)
	if !ok {
		d.disallow(player, "Unknown card %q.", params.CardID)
		return
	}
	if _, inHand := player.HandCard(card.ID); !inHand {
		d.disallow(player, "Card %q is not in your hand.", card.ID)
		return
	}
	proto, ok := d.catalog.Units[card.PrototypeID]
	if !ok {
		d.disallow(player, "Card %q is not a unit card.", card.ID)
		return
	}
	if player.Cost+proto.Cost > player.MaxCost {
		d.disallow(player, "Not enough cost: %d + %d exceeds %d.", player.Cost, proto.Cost, player.MaxCost)
		return
	}
	cell, ok := d.board.CellByID(params.CellToID)
	if !ok {
		d.disallow(player, "Unknown cell %q.", params.CellToID)
		return
	}
	if !cell.Empty() {
		d.disallow(player, "Cell %q is occupied.", cell.ID)
		return
	}

	// The play reveals the card to everyone before the unit appears.
	d.emit(CmdSetCardInfo, BroadcastAll, SetCardInfoParams{Card: card})

	unit, err := d.units.Create(card.PrototypeID, player.ID)
	if err != nil {
		d.logger.Error("unit creation failed after validation",
			zap.String("prototype_id", card.PrototypeID),
			zap.Error(err),
		)
		return
	}
	d.board.Attach(cell.ID, unit.ID)
	player.RemoveFromHand(card.ID)
	d.recomputeCost(player)

	d.emit(CmdUseUnitCard, BroadcastAll, UnitPlacedParams{
		CardID:   card.ID,
		Unit:     unit,
		CellToID: cell.ID,
	})
}

// handleUseSpellCard is not implemented yet; the player is told so instead
// of being left waiting.
func (d *Dealer) handleUseSpellCard(player *Player, params *UseCardParams) {
	d.emit(CmdNotification, player.ID, NotificationParams{
		Message: "Spell cards are not supported yet.",
		Type:    NotificationInformation,
	})
}

// handleCellToCell resolves a unit order by what occupies the target cell:
// empty means move, an enemy unit means attack, a friendly unit means
// support.
func (d *Dealer) handleCellToCell(player *Player, params *CellToCellParams) {
	cellFrom, ok := d.board.CellByID(params.CellFromID)
	if !ok {
		d.disallow(player, "Unknown cell %q.", params.CellFromID)
		return
	}
	cellTo, ok := d.board.CellByID(params.CellToID)
	if !ok {
		d.disallow(player, "Unknown cell %q.", params.CellToID)
		return
	}
	if cellFrom.Empty() {
		// Likely a race against an animation on the client. Nothing to
		// reject, nothing to do.
		d.logger.Debug("cell_to_cell from empty cell", zap.String("cell_id", cellFrom.ID))
		return
	}
	unit, ok := d.units.Get(cellFrom.UnitID)
	if !ok {
		d.logger.Error("cell references dead unit",
			zap.String("cell_id", cellFrom.ID),
			zap.String("unit_id", cellFrom.UnitID),
		)
		return
	}
	if unit.PlayerID != player.ID {
		d.disallow(player, "Unit %q is not yours.", unit.ID)
		return
	}
	if unit.NTurnsUntilMovable > 0 {
		d.disallow(player, "Unit %q cannot act for %d more turn(s).", unit.ID, unit.NTurnsUntilMovable)
		return
	}
	if d.board.Distance(cellFrom.ID, cellTo.ID) > 1 {
		d.disallow(player, "Cell %q is out of reach.", cellTo.ID)
		return
	}

	if cellTo.Empty() {
		d.moveUnit(player, unit, cellFrom, cellTo)
		return
	}
	target, ok := d.units.Get(cellTo.UnitID)
	if !ok {
		d.logger.Error("cell references dead unit",
			zap.String("cell_id", cellTo.ID),
			zap.String("unit_id", cellTo.UnitID),
		)
		return
	}
	if target.PlayerID == player.ID {
		// TODO(support): power transfer between adjacent friendly units.
		d.emit(CmdNotification, player.ID, NotificationParams{
			Message: "Support is not supported yet.",
			Type:    NotificationInformation,
		})
		return
	}
	d.resolveAttack(player, unit, target, cellFrom, cellTo)
}

// moveUnit steps a unit onto an adjacent empty cell. A unit may never enter
// its own home row.
func (d *Dealer) moveUnit(player *Player, unit *UnitInstance, cellFrom, cellTo *Cell) {
	if strings.HasPrefix(cellTo.ID, player.HomeRowPrefix) {
		d.disallow(player, "Cannot move into your own home row.")
		return
	}
	d.board.Detach(cellFrom.ID)
	d.board.Attach(cellTo.ID, unit.ID)
	unit.NTurnsUntilMovable++

	d.emit(CmdMove, BroadcastAll, MoveParams{
		UnitID:             unit.ID,
		CellFromID:         cellFrom.ID,
		CellToID:           cellTo.ID,
		NTurnsUntilMovable: unit.NTurnsUntilMovable,
	})
}

// resolveAttack applies the combat math and removes the dead. Stat
// absorption happens first on both sides, then power is exchanged in a
// paired swap so neither side sees the other's loss early.
func (d *Dealer) resolveAttack(player *Player, attacker, defender *UnitInstance, cellFrom, cellTo *Cell) {
	attacker.Power += attacker.Attack
	attacker.Attack = 0
	defender.Power += defender.Defense
	defender.Defense = 0

	pa, pd := attacker.Power, defender.Power
	attacker.Power = pa - pd
	defender.Power = pd - pa

	var deadID string
	switch {
	case attacker.Power <= 0 && defender.Power <= 0:
		deadID = DeadBoth
		d.board.Detach(cellFrom.ID)
		d.board.Detach(cellTo.ID)
		d.units.Delete(attacker.ID)
		d.units.Delete(defender.ID)
	case attacker.Power <= 0:
		deadID = attacker.ID
		d.board.Detach(cellFrom.ID)
		d.units.Delete(attacker.ID)
	default:
		deadID = defender.ID
		d.board.Detach(cellTo.ID)
		d.units.Delete(defender.ID)
		d.board.Detach(cellFrom.ID)
		d.board.Attach(cellTo.ID, attacker.ID)
		attacker.NTurnsUntilMovable++
	}

	for _, p := range d.players {
		d.recomputeCost(p)
	}

	d.emit(CmdAttack, BroadcastAll, AttackParams{
		AttackerID: attacker.ID,
		DefenderID: defender.ID,
		CellFromID: cellFrom.ID,
		CellToID:   cellTo.ID,
		DeadID:     deadID,
		Attacker:   attacker,
		Defender:   defender,
	})
}
